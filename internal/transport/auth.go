package transport

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/agentstation/authmatch/pkg/errors"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
}

// NoAuth implements no authentication. The LOC linked-data service is public.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) error {
	return nil
}

// TokenAuth sets a bearer token obtained from an OAuth2 token source.
// The source is expected to cache and refresh tokens itself.
type TokenAuth struct {
	Provider string
	Source   oauth2.TokenSource
}

// Apply implements the Authenticator interface for TokenAuth.
func (a *TokenAuth) Apply(req *http.Request) error {
	token, err := a.Source.Token()
	if err != nil {
		return &errors.AuthenticationError{
			Provider: a.Provider,
			Method:   "oauth2",
			Message:  "failed to obtain access token",
			Err:      err,
		}
	}
	token.SetAuthHeader(req)
	return nil
}
