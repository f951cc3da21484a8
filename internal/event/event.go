package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAuthStatus       Type = "auth.status"
	TypeNavigate         Type = "navigate"
	TypeRefreshStarted   Type = "auth.refresh.started"
	TypeRefreshCompleted Type = "auth.refresh.completed"
	TypeRefreshFailed    Type = "auth.refresh.failed"
)

// retained types are replayed to every new subscriber.
var retained = map[Type]bool{
	TypeAuthStatus: true,
}

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

type StatusPayload struct {
	Authenticated bool `json:"authenticated"`
}

type NavigatePayload struct {
	Path string `json:"path"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}

func New(t Type, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
