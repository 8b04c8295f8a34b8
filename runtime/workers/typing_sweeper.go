package workers

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper prunes expired entries and reports how many were removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// TypingSweeper periodically expires stale typing indicators. Without it
// a peer that stops responding stays "composing" forever.
type TypingSweeper struct {
	log      *slog.Logger
	tracker  Sweeper
	interval time.Duration
}

func NewTypingSweeper(log *slog.Logger, tracker Sweeper, interval time.Duration) *TypingSweeper {
	return &TypingSweeper{log: log, tracker: tracker, interval: interval}
}

func (w *TypingSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping typing sweeper")
			return nil
		case now := <-ticker.C:
			if removed := w.tracker.Sweep(now); removed > 0 {
				w.log.Debug("Expired typing indicators removed", "count", removed)
			}
		}
	}
}
