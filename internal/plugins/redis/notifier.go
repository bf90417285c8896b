package redis

import (
	"context"
	"encoding/json"
	"log/slog"

	"ghostsignal/internal/core/contracts"

	"github.com/redis/go-redis/v9"
)

const changeChannel = "ghostsignal:room:changes"

// ChangeNotifier carries store change events over redis pub/sub so every
// instance's subscribers see writes made anywhere.
type ChangeNotifier struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewChangeNotifier(log *slog.Logger, rdb *redis.Client) *ChangeNotifier {
	return &ChangeNotifier{rdb: rdb, log: log}
}

func (n *ChangeNotifier) Publish(ctx context.Context, evt contracts.ChangeEvent) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, changeChannel, raw).Err()
}

func (n *ChangeNotifier) Listen(ctx context.Context, handler func(evt contracts.ChangeEvent)) error {
	pubsub := n.rdb.Subscribe(ctx, changeChannel)
	// Force the subscription before returning so no event published after
	// Listen returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt contracts.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					n.log.Error("notifier - listen - bad event payload", "err", err)
					continue
				}
				handler(evt)
			}
		}
	}()
	return nil
}
