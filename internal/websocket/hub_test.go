package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"taskflow-console/internal/event"
)

func startHub(t *testing.T) (*event.InMemoryBus, string) {
	t.Helper()

	bus := event.NewBus()
	hub := NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(hub.Handler(nil))
	t.Cleanup(server.Close)

	return bus, "ws" + strings.TrimPrefix(server.URL, "http")
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestHubSendsCurrentStatusThenChanges(t *testing.T) {
	t.Parallel()

	bus, url := startHub(t)
	bus.Publish(event.New(event.TypeAuthStatus, event.StatusPayload{Authenticated: true}))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	first := readEvent(t, conn)
	require.Equal(t, string(event.TypeAuthStatus), first["type"])
	require.Equal(t, true, first["payload"].(map[string]any)["authenticated"])

	bus.Publish(event.New(event.TypeNavigate, event.NavigatePayload{Path: "/login"}))

	next := readEvent(t, conn)
	require.Equal(t, string(event.TypeNavigate), next["type"])
	require.Equal(t, "/login", next["payload"].(map[string]any)["path"])
}

func TestHandlerRejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	_, url := startHub(t)

	header := http.Header{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
