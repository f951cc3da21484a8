package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow-console/internal/apiclient"
	"taskflow-console/internal/config"
	"taskflow-console/internal/database"
	"taskflow-console/internal/event"
	"taskflow-console/internal/handler"
	"taskflow-console/internal/interceptor"
	"taskflow-console/internal/metrics"
	"taskflow-console/internal/middleware"
	"taskflow-console/internal/router"
	"taskflow-console/internal/service"
	"taskflow-console/internal/storage"
	"taskflow-console/internal/websocket"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	var cleanupFuncs []func()
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	store, closeStore, err := openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if closeStore != nil {
		cleanupFuncs = append(cleanupFuncs, closeStore)
	}

	bus := event.NewBus()
	appMetrics := metrics.New()

	transport := interceptor.New(
		backendTransport(cfg.APITimeout),
		interceptor.WithQueue(cfg.RefreshQueue),
		interceptor.WithMetrics(appMetrics),
	)
	client := apiclient.New(cfg.APIBaseURL, &http.Client{Transport: transport})

	authService := service.NewAuthService(client, store, bus, appMetrics)
	transport.Bind(authService)
	projectService := service.NewProjectService(client)

	hubCtx, stopHub := context.WithCancel(context.Background())
	cleanupFuncs = append(cleanupFuncs, stopHub)
	hub := websocket.NewHub(bus)
	go hub.Run(hubCtx)

	pages, err := handler.NewPages()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to load page templates: %w", err)
	}

	appRouter := router.New(cfg, middleware.NewGuards(authService), router.Handlers{
		Auth:     handler.NewAuthHandler(authService, pages, cfg.RegisterRedirectDelay),
		Projects: handler.NewProjectsHandler(projectService, authService, pages),
		NotFound: handler.NewNotFoundHandler(authService, pages),
		Events:   hub.Handler(cfg.CORSOrigins),
		Metrics:  appMetrics.Handler(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	slog.Info("console configured",
		"backend", cfg.APIBaseURL,
		"storage", cfg.StorageDriver,
		"refresh_queue", cfg.RefreshQueue,
		"authenticated", authService.IsAuthenticated(),
	)

	return &App{server: server, cleanupFuncs: cleanupFuncs}, nil
}

// openStorage returns the configured token store and, for drivers holding
// resources, the func that releases them.
func openStorage(cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.StorageDriver {
	case storage.DriverMemory:
		slog.Warn("using in-memory storage; the session will not survive a restart")
		return storage.NewMemory(), nil, nil
	case storage.DriverPostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		slog.Info("database ready", "profile", cfg.StorageProfile)
		return storage.NewPostgres(db.Pool, cfg.StorageProfile), db.Close, nil
	default:
		store, err := storage.NewFile(cfg.StorageFile, cfg.StorageSecret)
		if err != nil {
			return nil, nil, err
		}
		if cfg.StorageSecret == "" {
			slog.Warn("STORAGE_SECRET is not set; tokens are stored unencrypted", "path", cfg.StorageFile)
		}
		return store, nil, nil
	}
}

// backendTransport bounds connection setup and the wait for response headers.
// Whole-request deadlines come from the inbound request context.
func backendTransport(timeout time.Duration) *http.Transport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	base.TLSHandshakeTimeout = timeout
	base.ResponseHeaderTimeout = timeout
	return base
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	return a.Shutdown()
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(ctx)

	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}

	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
