package transport

import (
	"context"
	"net/http"

	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

// newRequest builds a request carrying the common headers.
func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.NewValidationError("url", url, err.Error())
	}
	req.Header.Set("User-Agent", constants.UserAgent)
	if c.accept != "" {
		req.Header.Set("Accept", c.accept)
	}
	return req, nil
}
