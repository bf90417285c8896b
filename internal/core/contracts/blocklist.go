package contracts

import "context"

// Blocklist records addresses banned by moderation.
type Blocklist interface {
	BlockAddr(ctx context.Context, addr string) error
	CountBlocked(ctx context.Context) (int, error)
}
