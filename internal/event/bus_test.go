package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBusReplaysLatestStatus(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	bus.Publish(New(TypeAuthStatus, StatusPayload{Authenticated: false}))
	bus.Publish(New(TypeNavigate, NavigatePayload{Path: "/login"}))
	bus.Publish(New(TypeAuthStatus, StatusPayload{Authenticated: true}))

	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	first := receive(t, events)
	require.Equal(t, TypeAuthStatus, first.Type)
	require.Equal(t, StatusPayload{Authenticated: true}, first.Payload)

	bus.Publish(New(TypeAuthStatus, StatusPayload{Authenticated: false}))
	next := receive(t, events)
	require.Equal(t, StatusPayload{Authenticated: false}, next.Payload)

	select {
	case e := <-events:
		t.Fatalf("unexpected event %v", e.Type)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	unsubscribe()
	unsubscribe()

	_, ok := <-events
	require.False(t, ok)

	bus.Publish(New(TypeNavigate, NavigatePayload{Path: "/projects"}))

	latest, ok := bus.Latest(TypeNavigate)
	require.False(t, ok)
	require.Empty(t, latest.ID)
}
