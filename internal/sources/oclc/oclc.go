// Package oclc fetches WorldCat bibliographic records as MARC/XML through
// the WorldCat Metadata API, authenticating with OAuth2 client credentials.
package oclc

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/agentstation/authmatch/internal/transport"
	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/logging"
)

// Config holds the WorldCat credentials and endpoints.
type Config struct {
	Key           string
	Secret        string
	PrincipalID   string
	PrincipalIDNS string
	TokenURL      string
	BaseURL       string
	Delay         time.Duration // pause before each request; zero disables
}

// Validate reports missing credentials.
func (c Config) Validate() error {
	if c.Key == "" {
		return errors.NewConfigError("oclc", "oclc.key is required", errors.ErrCredentialsRequired)
	}
	if c.Secret == "" {
		return errors.NewConfigError("oclc", "oclc.secret is required", errors.ErrCredentialsRequired)
	}
	return nil
}

// Session is an authenticated WorldCat Metadata API session.
type Session struct {
	baseURL  string
	client   *transport.Client
	throttle *transport.Throttle
}

// NewSession builds the client-credentials token source and obtains the
// first token, so bad credentials or an unreachable token endpoint fail the
// run before any record is processed.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = constants.OCLCTokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.OCLCMetadataURL
	}

	params := url.Values{}
	if cfg.PrincipalID != "" {
		params.Set("principalID", cfg.PrincipalID)
	}
	if cfg.PrincipalIDNS != "" {
		params.Set("principalIDNS", cfg.PrincipalIDNS)
	}
	cc := &clientcredentials.Config{
		ClientID:       cfg.Key,
		ClientSecret:   cfg.Secret,
		TokenURL:       cfg.TokenURL,
		Scopes:         []string{constants.OCLCScope},
		EndpointParams: params,
	}
	tokenCtx, cancel := context.WithTimeout(ctx, constants.TokenTimeout)
	defer cancel()
	token, err := cc.Token(tokenCtx)
	if err != nil {
		return nil, errors.NewConnectionError("oclc", cfg.TokenURL, &errors.AuthenticationError{
			Provider: "oclc",
			Method:   "oauth2",
			Message:  "failed to obtain access token",
			Err:      err,
		})
	}
	source := oauth2.ReuseTokenSource(token, cc.TokenSource(ctx))
	logging.FromContext(ctx).Debug().Str("api", "oclc").Msg("Obtained WorldCat access token")

	client := transport.New(authority.KindOCLC.String(),
		transport.WithAccept("application/marcxml+xml"),
		transport.WithAuth(&transport.TokenAuth{Provider: "oclc", Source: source}),
	)
	return &Session{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   client,
		throttle: transport.NewThrottle(cfg.Delay),
	}, nil
}

// Kind implements authority.Fetcher.
func (s *Session) Kind() authority.Kind {
	return authority.KindOCLC
}

// URL returns the bibliographic record URL for an OCLC number.
func (s *Session) URL(oclcNumber string) string {
	return s.baseURL + "/bib/data/" + url.PathEscape(strings.TrimSpace(oclcNumber))
}

// Fetch implements authority.Fetcher.
func (s *Session) Fetch(ctx context.Context, oclcNumber string) (io.ReadCloser, error) {
	if err := s.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	return s.client.Get(ctx, s.URL(oclcNumber))
}
