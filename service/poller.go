package service

import (
	"context"
	"errors"
	"time"
)

// ErrPollTimeout is returned when a job never reaches a terminal state
// within the attempt budget.
var ErrPollTimeout = errors.New("polling timed out before job finished")

// PollTick observes a job once. seq increases monotonically across ticks;
// state appliers use it to reject a result that raced with a newer one.
// Returning terminal=true stops the loop. A non-nil error does not stop it:
// transient fetch failures are expected mid-job and the next tick retries.
type PollTick func(ctx context.Context, seq uint64) (terminal bool, err error)

// PollUntilTerminal invokes tick immediately, then re-invokes it on a fixed
// interval until it reports a terminal state, the context is cancelled, or
// maxAttempts ticks have run. Both the analysis-result watcher and the
// video-job watcher run on this loop; they differ only in interval and tick
// body.
func PollUntilTerminal(ctx context.Context, interval time.Duration, maxAttempts int, tick PollTick) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for seq := uint64(1); maxAttempts <= 0 || seq <= uint64(maxAttempts); seq++ {
		if seq == 1 {
			if err := ctx.Err(); err != nil {
				return err
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}

		terminal, err := tick(ctx, seq)
		if terminal {
			return err
		}
		if err != nil {
			lastErr = err
		}
	}

	if lastErr != nil {
		return lastErr
	}
	return ErrPollTimeout
}
