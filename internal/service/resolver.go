package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/medibook/scheduling/internal/config"
	"github.com/medibook/scheduling/internal/domain/booking"
)

// ConflictResolver drives a commit attempt to a terminal outcome under
// store contention. Transient conflicts are retried a bounded number of
// times with randomized backoff; randomization keeps concurrent
// claimants for a popular slot from retrying in lockstep. A slot that
// is simply taken is returned immediately, it is an answer, not a
// fault.
type ConflictResolver struct {
	cfg config.RetryConfig
	log *zap.Logger

	// backoff returns a delay in [min, max]; swapped out in tests.
	backoff func(min, max time.Duration) time.Duration
}

func NewConflictResolver(cfg config.RetryConfig, log *zap.Logger) *ConflictResolver {
	return &ConflictResolver{
		cfg:     cfg,
		log:     log,
		backoff: randomBackoff,
	}
}

func randomBackoff(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

// Attempt invokes commit until it yields a terminal outcome, the retry
// budget runs out, or ctx is cancelled. Cancellation is checked before
// every commit call and during every backoff sleep so a timed-out
// caller is not left completing a stale booking.
func (r *ConflictResolver) Attempt(ctx context.Context, commit booking.CommitFunc) (booking.Result, error) {
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return booking.Cancelled(attempt - 1), nil
		}

		outcome, rec, err := commit(ctx)
		if err != nil {
			return booking.Result{}, fmt.Errorf("commit attempt %d: %w", attempt, err)
		}

		switch outcome {
		case booking.CommitInserted:
			return booking.Booked(rec, attempt), nil

		case booking.CommitAlreadyExists:
			return booking.SlotTaken(attempt), nil

		case booking.CommitTransientConflict:
			if attempt == r.cfg.MaxAttempts {
				continue
			}
			delay := r.backoff(r.cfg.BackoffMin, r.cfg.BackoffMax)
			r.log.Warn("transient booking conflict, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return booking.Cancelled(attempt), nil
			case <-timer.C:
			}

		default:
			return booking.Result{}, fmt.Errorf("commit attempt %d: unknown outcome %d", attempt, outcome)
		}
	}

	return booking.ConflictExhausted(r.cfg.MaxAttempts), nil
}
