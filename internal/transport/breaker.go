package transport

import (
	"context"
	"io"
	"time"

	"github.com/sony/gobreaker"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/logging"
)

// BreakerFetcher wraps a Fetcher with a circuit breaker. After MaxFailures
// consecutive transport failures further fetches fail fast until the
// breaker's timeout elapses. Not-found answers count as successes.
type BreakerFetcher struct {
	next authority.Fetcher
	cb   *gobreaker.CircuitBreaker
}

// BreakerConfig configures a BreakerFetcher.
type BreakerConfig struct {
	MaxFailures uint32
	Timeout     time.Duration
}

// NewBreakerFetcher wraps next. Zero values in cfg fall back to defaults.
func NewBreakerFetcher(next authority.Fetcher, cfg BreakerConfig) *BreakerFetcher {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = constants.DefaultBreakerFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultBreakerTimeout
	}

	name := next.Kind().String()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.Warn().
				Str("api", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.IsNotFound(err) || errors.IsCanceled(err)
		},
	})
	return &BreakerFetcher{next: next, cb: cb}
}

// Kind implements authority.Fetcher.
func (b *BreakerFetcher) Kind() authority.Kind {
	return b.next.Kind()
}

// Fetch implements authority.Fetcher.
func (b *BreakerFetcher) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Fetch(ctx, id)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, errors.NewConnectionError(b.Kind().String(), "", err)
		}
		return nil, err
	}
	return v.(io.ReadCloser), nil
}

// State returns the breaker's current state name.
func (b *BreakerFetcher) State() string {
	return b.cb.State().String()
}
