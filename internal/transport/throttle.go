package transport

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentstation/authmatch/pkg/errors"
)

// Throttle makes every upstream request wait the full delay, measured
// from the moment it asks. Time spent idle, on cache hits or on a slow
// previous request is never credited to the next one. Concurrent callers
// queue and each waits its own delay.
type Throttle struct {
	delay time.Duration
	turn  chan struct{}

	limiter *rate.Limiter
}

// NewThrottle returns a throttle pausing delay before each request.
// A non-positive delay disables throttling.
func NewThrottle(delay time.Duration) *Throttle {
	t := &Throttle{delay: delay, turn: make(chan struct{}, 1)}
	if delay > 0 {
		t.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return t
}

// Wait blocks for the configured delay or until ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.limiter == nil {
		return canceled(ctx.Err())
	}

	select {
	case t.turn <- struct{}{}:
	case <-ctx.Done():
		return canceled(ctx.Err())
	}
	defer func() { <-t.turn }()

	// Empty the bucket at now so the next token is a full interval away.
	now := time.Now()
	t.limiter.SetBurstAt(now, 0)
	t.limiter.SetBurstAt(now, 1)
	return canceled(t.limiter.Wait(ctx))
}

func canceled(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
}
