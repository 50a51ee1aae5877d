package match

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/leomatch/internal/metrics"
)

const (
	retryBaseDelay = 10 * time.Millisecond
	retryMaxDelay  = 200 * time.Millisecond
)

// withRetry runs fn up to e.retries times with capped exponential backoff.
// Caller errors and context errors return immediately; exhausted retries
// surface as ErrStorageUnavailable.
func (e *Engine) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := max(e.retries, 1)
	backoff := retryBaseDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		metrics.StorageRetriesTotal.WithLabelValues(op).Inc()
		e.log.Warn("storage operation failed, retrying", "op", op, "attempt", attempt, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff = min(backoff*2, retryMaxDelay)
		}
	}

	e.log.Error("storage operation failed", "op", op, "attempts", attempts, "err", err)
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

// locked runs fn under the lock for key inside one transaction, with retries.
// The lock is taken before the transaction opens and released after it ends.
func (e *Engine) locked(ctx context.Context, op, key string, fn func(ctx context.Context) error) error {
	return e.withRetry(ctx, op, func(ctx context.Context) error {
		unlock, err := e.locker.Lock(ctx, key)
		if err != nil {
			return fmt.Errorf("acquire %s: %w", key, err)
		}
		defer unlock()
		return e.store.WithinTx(ctx, fn)
	})
}
