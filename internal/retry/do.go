package retry

import (
	"context"
	"time"

	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
)

// OnRetry is invoked before each wait, with the 1-based retry number and the error
// that triggered it. Used for logging and metrics.
type OnRetry func(retryCount int, err error)

// Do runs fn under the policy's explicit attempt/wait/give-up loop.
//
// Only errors marked retryable (see internal/errors) are retried; everything else
// returns immediately. When retries are exhausted the last error is returned wrapped
// so callers still see its category. Context cancellation wins over any pending wait.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error, onRetry OnRetry) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !syncerrors.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt >= p.MaxRetries {
			return syncerrors.RetriesExhausted(op, attempt+1, lastErr)
		}

		retryCount := attempt + 1
		if onRetry != nil {
			onRetry(retryCount, lastErr)
		}
		if err := sleep(ctx, p.Delay(retryCount)); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
