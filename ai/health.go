package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when WaitReady is asked for fewer than one attempt.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

// WaitReady pings checker until it succeeds, doubling the delay between attempts.
// Returns the last ping error if all attempts fail.
func WaitReady(ctx context.Context, checker HealthChecker, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = checker.Ping(ctx)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("backend ready after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("backend not ready", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}
