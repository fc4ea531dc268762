package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/Skotchmaster/marketgo/internal/repo"
)

const sweepBatch = 50

// FailureSweeper periodically re-logs unresolved webhook failures so a paid
// order stuck in webhook_failures cannot go unnoticed between deploys.
type FailureSweeper struct {
	Repo     *repo.GormRepo
	Log      *slog.Logger
	Interval time.Duration
}

func (w *FailureSweeper) Run(ctx context.Context) {
	interval := w.Interval
	if interval == 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *FailureSweeper) sweep(ctx context.Context) {
	failures, err := w.Repo.UnresolvedFailures(ctx, sweepBatch)
	if err != nil {
		w.Log.Error("failure sweep query error", "error", err)
		return
	}

	for _, f := range failures {
		w.Log.Warn("unresolved webhook failure",
			"id", f.ID,
			"event", f.EventID,
			"payment_intent", f.PaymentIntentID,
			"reason", f.Reason,
			"age", time.Since(time.Unix(f.CreatedAt, 0)).String(),
		)
	}
}
