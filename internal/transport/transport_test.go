package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, constants.UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/marcxml+xml", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/ok":
			_, _ = io.WriteString(w, "<record/>")
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := New("oclc",
		WithAccept("application/marcxml+xml"),
		WithAuth(&TokenAuth{Provider: "oclc", Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})}),
	)

	body, err := c.Get(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	_ = body.Close()
	assert.Equal(t, "<record/>", string(data))

	_, err = c.Get(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, srv.URL+"/missing", apiErr.Endpoint)

	_, err = c.Get(context.Background(), srv.URL+"/broken")
	assert.True(t, errors.IsProviderUnavailable(err))
}

func TestClient_GetConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New("loc").Get(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.IsConnectionError(err))
}

func TestThrottle(t *testing.T) {
	t.Run("delay precedes first request", func(t *testing.T) {
		th := NewThrottle(50 * time.Millisecond)
		start := time.Now()
		require.NoError(t, th.Wait(context.Background()))
		require.NoError(t, th.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("full delay after idle time", func(t *testing.T) {
		th := NewThrottle(200 * time.Millisecond)
		require.NoError(t, th.Wait(context.Background()))
		time.Sleep(300 * time.Millisecond)

		start := time.Now()
		require.NoError(t, th.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
	})

	t.Run("full delay after slow request", func(t *testing.T) {
		th := NewThrottle(100 * time.Millisecond)
		for i := 0; i < 3; i++ {
			start := time.Now()
			require.NoError(t, th.Wait(context.Background()))
			assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
			time.Sleep(60 * time.Millisecond)
		}
	})

	t.Run("concurrent callers each wait", func(t *testing.T) {
		th := NewThrottle(50 * time.Millisecond)
		start := time.Now()
		done := make(chan error, 3)
		for i := 0; i < 3; i++ {
			go func() { done <- th.Wait(context.Background()) }()
		}
		for i := 0; i < 3; i++ {
			require.NoError(t, <-done)
		}
		assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
	})

	t.Run("disabled", func(t *testing.T) {
		th := NewThrottle(0)
		start := time.Now()
		for i := 0; i < 10; i++ {
			require.NoError(t, th.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("canceled", func(t *testing.T) {
		th := NewThrottle(time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := th.Wait(ctx)
		assert.True(t, errors.IsCanceled(err))
	})
}

type flakyFetcher struct {
	calls atomic.Int64
	err   error
}

func (f *flakyFetcher) Kind() authority.Kind { return authority.KindLOC }

func (f *flakyFetcher) Fetch(context.Context, string) (io.ReadCloser, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader("<record/>")), nil
}

func TestBreakerFetcher(t *testing.T) {
	t.Run("opens after consecutive failures", func(t *testing.T) {
		next := &flakyFetcher{err: errors.NewAPIError("loc", 503, "down")}
		b := NewBreakerFetcher(next, BreakerConfig{MaxFailures: 3, Timeout: time.Hour})

		for i := 0; i < 3; i++ {
			_, err := b.Fetch(context.Background(), "x")
			assert.True(t, errors.IsProviderUnavailable(err))
		}
		assert.Equal(t, "open", b.State())

		_, err := b.Fetch(context.Background(), "x")
		assert.True(t, errors.IsConnectionError(err))
		assert.Equal(t, int64(3), next.calls.Load())
	})

	t.Run("not found does not trip", func(t *testing.T) {
		next := &flakyFetcher{err: errors.NewAPIError("loc", 404, "missing")}
		b := NewBreakerFetcher(next, BreakerConfig{MaxFailures: 2})

		for i := 0; i < 5; i++ {
			_, err := b.Fetch(context.Background(), "x")
			assert.True(t, errors.IsNotFound(err))
		}
		assert.Equal(t, "closed", b.State())
		assert.Equal(t, int64(5), next.calls.Load())
	})

	t.Run("passes bodies through", func(t *testing.T) {
		b := NewBreakerFetcher(&flakyFetcher{}, BreakerConfig{})
		assert.Equal(t, authority.KindLOC, b.Kind())
		body, err := b.Fetch(context.Background(), "x")
		require.NoError(t, err)
		_ = body.Close()
	})
}
