// Package loc fetches Library of Congress name authority records as
// MARC/XML from id.loc.gov.
package loc

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/agentstation/authmatch/internal/transport"
	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
)

// Fetcher retrieves LOC authority documents by URI.
type Fetcher struct {
	client   *transport.Client
	throttle *transport.Throttle
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDelay sets the pause taken before every request.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.throttle = transport.NewThrottle(d)
	}
}

// New creates a LOC fetcher with the default 3s delay.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   transport.New(authority.KindLOC.String(), transport.WithAccept("application/marcxml+xml, application/xml")),
		throttle: transport.NewThrottle(constants.DefaultLOCDelay),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Kind implements authority.Fetcher.
func (f *Fetcher) Kind() authority.Kind {
	return authority.KindLOC
}

// URL returns the MARC/XML document URL for an authority URI.
// Commas are dropped because catalog headings sometimes carry them inside $0.
func URL(uri string) string {
	return strings.ReplaceAll(strings.TrimSpace(uri), ",", "") + constants.MARCXMLSuffix
}

// Fetch implements authority.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := f.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	return f.client.Get(ctx, URL(uri))
}
