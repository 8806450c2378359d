package dataset

import (
	"context"
	"log/slog"
	"time"
)

// Refresher reloads the dataset on a fixed interval so edits to the upstream
// CSVs show up without a restart. Failed reloads retry with exponential
// backoff and keep serving the previous snapshot.
type Refresher struct {
	source   *Source
	store    *Store
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher creates a Refresher. interval must be positive.
func NewRefresher(source *Source, store *Store, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		source:   source,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Run reloads until ctx is cancelled. Always returns nil.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("dataset refresher started", "interval", r.interval)

	// Exponential backoff after failures: start at 200ms, double each
	// retry, cap at the reload interval.
	backoff := 200 * time.Millisecond

	wait := r.interval
	for {
		if !sleepWithContext(ctx, wait) {
			r.logger.Info("dataset refresher stopping", "reason", ctx.Err())
			return nil
		}

		snap, err := r.source.Load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("dataset reload failed", "error", err)
			wait = backoff
			backoff = nextBackoff(backoff, r.interval)
			continue
		}

		r.store.Replace(snap)
		backoff = 200 * time.Millisecond
		wait = r.interval
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
