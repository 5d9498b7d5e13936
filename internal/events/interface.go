package events

import (
	"context"
	"time"
)

// RoomEvent is one relayed room event, published for downstream analytics.
// The realtime fan-out never depends on the producer; a publish failure is
// logged and dropped.
type RoomEvent struct {
	ProjectID string    `json:"project_id"`
	ClientID  string    `json:"client_id"`
	Event     string    `json:"event"`
	Size      int       `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

type EventProducer interface {
	Produce(ctx context.Context, event *RoomEvent) error
	Close() error
}
