package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Do runs op with exponential backoff until it succeeds, returns a permanent
// error, or the attempt ceiling is reached. name only labels log lines.
//
// op signals how a failure should be treated through its error value: a plain
// error is transient and retried, Permanent stops immediately, and After
// defers the next attempt by a server-provided delay.
func Do[T any](ctx context.Context, cfg Config, log *zap.Logger, name string, op func() (T, error)) (T, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = time.Duration(cfg.InitialSeconds) * time.Second
	expo.MaxInterval = time.Duration(cfg.MaxSeconds) * time.Second
	if cfg.Multiplier > 0 {
		expo.Multiplier = cfg.Multiplier
	}
	expo.RandomizationFactor = cfg.Jitter

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Warn("Transient failure, retrying",
				zap.String("call", name),
				zap.Duration("backoff", d),
				zap.Error(err))
		}),
	)
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// After returns a retryable error carrying a server-provided delay, as sent
// in a 429 Retry-After header.
func After(seconds int) error {
	return backoff.RetryAfter(seconds)
}
