package registry

import "context"

// Registry advertises which project rooms this instance currently serves.
// Entries expire unless refreshed by the heartbeat, so a crashed instance
// drops out of the registry on its own.
type Registry interface {
	Register(ctx context.Context, projectID string) error
	Deregister(ctx context.Context, projectID string) error
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}
