package service

import (
	"context"

	"github.com/pairpad/collab-service/internal/hub"
)

// RelayService dispatches inbound client events to the store, the review
// oracle and the room registry, and fans results back out. Each event is
// handled independently; there is no ordering across event types or
// sessions.
type RelayService interface {
	HandleJoin(ctx context.Context, client *hub.Client) error
	HandleChatHistory(ctx context.Context, client *hub.Client) error
	HandleGetProjectCode(ctx context.Context, client *hub.Client) error
	HandleChatMessage(ctx context.Context, client *hub.Client, text string) error
	HandleCodeChange(ctx context.Context, client *hub.Client, code string) error
	HandleSaveProjectCode(ctx context.Context, client *hub.Client, code string) error
	HandleGetReview(ctx context.Context, client *hub.Client, code string) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
	Start(ctx context.Context) error
	Stop() error
}
