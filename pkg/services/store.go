package services

import (
	"context"
	"time"

	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/metrics"
	"github.com/siddharth-k03/urgas/pkg/retry"
)

// readWithRetry runs an idempotent read on a pooled connection, retrying when the
// store is unavailable. Never use it for mutations.
func readWithRetry[T any](ctx context.Context, db database.Transactor, cfg *retry.Config, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry.DoWithResultIfRetryable(ctx, cfg, func() (T, error) {
		var out T
		err := db.WithinConn(ctx, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx)
			return err
		})
		return out, err
	})
}

// observe reports an operation outcome. Call it deferred with a pointer to the
// named error result.
func observe(ctx context.Context, rec metrics.Recorder, operation string, start time.Time, err *error) {
	rec.Observe(ctx, operation, *err == nil, time.Since(start))
}

func recorderOrNop(rec metrics.Recorder) metrics.Recorder {
	if rec == nil {
		return metrics.Nop{}
	}
	return rec
}
