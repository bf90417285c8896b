package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const blockedSetKey = "ghostsignal:blocked_addrs"

// Blocklist stores moderation-banned addresses in a redis set.
type Blocklist struct {
	rdb *redis.Client
}

func NewBlocklist(rdb *redis.Client) *Blocklist {
	return &Blocklist{rdb: rdb}
}

func (b *Blocklist) BlockAddr(ctx context.Context, addr string) error {
	return b.rdb.SAdd(ctx, blockedSetKey, addr).Err()
}

func (b *Blocklist) CountBlocked(ctx context.Context) (int, error) {
	n, err := b.rdb.SCard(ctx, blockedSetKey).Result()
	return int(n), err
}
