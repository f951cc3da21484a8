// Package websocket pushes session events (authentication status, navigation
// requests) to the console pages open in the browser.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"taskflow-console/internal/event"
)

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	bus  event.Bus
	done chan struct{}

	// Last status message, sent to every client as it connects.
	status []byte
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		bus:        bus,
		done:       make(chan struct{}),
	}
}

// Run forwards bus events to connected clients until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	defer func() {
		close(h.done)
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			if h.status != nil {
				h.deliver(client, h.status)
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "type", e.Type, "error", err)
				continue
			}
			if e.Type == event.TypeAuthStatus {
				h.status = message
			}
			for client := range h.clients {
				h.deliver(client, message)
			}
		}
	}
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		slog.Warn("dropping slow websocket client", "client", client.id)
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
