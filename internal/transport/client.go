// Package transport holds the HTTP plumbing shared by the authority
// sources: an authenticated client, an upstream throttle, and a circuit
// breaker around fetchers.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Client provides HTTP client functionality with authentication.
type Client struct {
	provider string
	http     *http.Client
	auth     Authenticator
	accept   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAuth sets the authenticator applied to every request.
func WithAuth(auth Authenticator) ClientOption {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithAccept sets the Accept header sent with every request.
func WithAccept(accept string) ClientOption {
	return func(c *Client) {
		c.accept = accept
	}
}

// New creates a new transport client for the named provider.
func New(provider string, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		http:     &http.Client{Timeout: DefaultHTTPTimeout},
		auth:     &NoAuth{},
		accept:   "application/xml",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request and returns the body of a 200 response.
// Any other status is returned as an *errors.APIError, so a 404 satisfies
// errors.IsNotFound. The caller must close the returned body.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	if err := c.auth.Apply(req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, ctx.Err())
		}
		return nil, errors.NewConnectionError(c.provider, url, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := errors.NewAPIError(c.provider, resp.StatusCode, statusMessage(resp.StatusCode, snippet))
		apiErr.Endpoint = url
		return nil, apiErr
	}
	return resp.Body, nil
}

func statusMessage(code int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(code)
	}
	return msg
}
