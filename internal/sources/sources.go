// Package sources builds the authority fetcher for a run.
package sources

import (
	"context"
	"time"

	"github.com/agentstation/authmatch/internal/sources/loc"
	"github.com/agentstation/authmatch/internal/sources/oclc"
	"github.com/agentstation/authmatch/internal/transport"
	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
)

// Config holds the source settings that are not part of a run's
// reconcile.Settings: credentials and breaker tuning.
type Config struct {
	OCLC    oclc.Config
	Breaker transport.BreakerConfig
}

// New returns the fetcher for kind, wrapped in a circuit breaker, pausing
// delay before every remote request. Creating an OCLC fetcher opens a
// session and fails when no token can be obtained.
func New(ctx context.Context, kind authority.Kind, delay time.Duration, cfg Config) (authority.Fetcher, error) {
	var fetcher authority.Fetcher
	switch kind {
	case authority.KindLOC:
		fetcher = loc.New(loc.WithDelay(delay))
	case authority.KindOCLC:
		oc := cfg.OCLC
		oc.Delay = delay
		session, err := oclc.NewSession(ctx, oc)
		if err != nil {
			return nil, err
		}
		fetcher = session
	default:
		return nil, errors.NewValidationError("api", string(kind), "must be loc or oclc")
	}
	return transport.NewBreakerFetcher(fetcher, cfg.Breaker), nil
}
