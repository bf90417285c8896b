package contracts

import "context"

const (
	ChangeAppend = "append"
	ChangeMutate = "mutate"
	ChangeEvict  = "evict"
)

// ChangeEvent is the compact fan-out signal the remote store publishes after
// every durable write. Subscribers reload the snapshot on receipt; the event
// itself carries no message body.
type ChangeEvent struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

// ChangeNotifier bridges store writes on one instance to subscribers on
// every instance.
type ChangeNotifier interface {
	Publish(ctx context.Context, evt ChangeEvent) error
	// Listen invokes handler for every published event until ctx is done.
	// It returns once the underlying subscription is established.
	Listen(ctx context.Context, handler func(evt ChangeEvent)) error
}
