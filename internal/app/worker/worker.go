package worker

import (
	"context"
	"log/slog"
	"time"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/core/services"
)

// ExpirySweeper re-arms destruction timers for revealed attachments whose
// timers were lost, typically across a restart against the remote backend.
// In-memory timers are authoritative between sweeps; the sweep is only a
// recovery net.
type ExpirySweeper struct {
	log       *slog.Logger
	messages  *services.MessageService
	ephemeral *services.EphemeralService
	interval  time.Duration
}

func NewExpirySweeper(
	log *slog.Logger,
	messages *services.MessageService,
	ephemeral *services.EphemeralService,
	interval time.Duration,
) *ExpirySweeper {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ExpirySweeper{
		log:       log,
		messages:  messages,
		ephemeral: ephemeral,
		interval:  interval,
	}
}

func (w *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.InfoContext(ctx, "worker - run - expiry sweeper started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker - run - expiry sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	snap, err := w.messages.Snapshot(ctx)
	if err != nil {
		w.log.ErrorContext(ctx, "worker - sweep - snapshot failed", "err", err)
		return
	}
	for _, msg := range snap {
		if msg.Ephemeral && msg.Viewed && msg.Type != domain.TypeDestroy {
			w.ephemeral.Reschedule(ctx, msg.ID)
		}
	}
}
