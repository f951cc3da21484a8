package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrettyHandlerRedactsTokens(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}).WithoutColor())

	log.With("component", "auth").Info("tokens stored", "access_token", "eyJhbGciOi.payload.sig", "Authorization", "Bearer abc", "user", "alice")

	out := buf.String()
	require.Contains(t, out, "INFO  tokens stored")
	require.Contains(t, out, "component=auth")
	require.Contains(t, out, "user=alice")
	require.Contains(t, out, "access_token=[REDACTED]")
	require.Contains(t, out, "Authorization=[REDACTED]")
	require.NotContains(t, out, "eyJhbGciOi")
	require.NotContains(t, out, "\033[")
}

func TestPrettyHandlerLevelsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}).WithoutColor())

	log.Info("hidden")
	log.WithGroup("upstream").Warn("slow", "path", "/projects")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "upstream.path=/projects")
}
