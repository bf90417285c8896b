package contracts

import "context"

// Registry tracks the physical client connections on this node.
type Registry interface {
	Register(c Client)
	Unregister(c Client)
	// Broadcast pushes a frame to every connected client.
	Broadcast(ctx context.Context, data []byte)
	// CloseAll tears down every connection, used on shutdown.
	CloseAll()
}

// Client is the minimal interface the Registry needs to talk to one
// WebSocket connection.
type Client interface {
	UserID() string
	Send(ctx context.Context, data []byte) error
	Close()
}
