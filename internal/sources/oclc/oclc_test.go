package oclc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

const bibDoc = `<record xmlns="http://www.loc.gov/MARC21/slim">
<datafield tag="100" ind1="1" ind2=" "><subfield code="a">Smith, John</subfield></datafield>
</record>`

type fakeWorldCat struct {
	tokens atomic.Int64
	srv    *httptest.Server
}

func newFakeWorldCat(t *testing.T) *fakeWorldCat {
	t.Helper()
	f := &fakeWorldCat{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		id, secret, ok := r.BasicAuth()
		if !ok {
			id, secret = r.Form.Get("client_id"), r.Form.Get("client_secret")
		}
		if id != "key" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
			return
		}
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, constants.OCLCScope, r.Form.Get("scope"))
		assert.Equal(t, "pid", r.Form.Get("principalID"))
		assert.Equal(t, "pidns", r.Form.Get("principalIDNS"))
		f.tokens.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tk_abc",
			"token_type":   "bearer",
			"expires_in":   1199,
		})
	})
	mux.HandleFunc("/bib/data/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tk_abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "application/marcxml+xml", r.Header.Get("Accept"))
		if r.URL.Path == "/bib/data/12345" {
			_, _ = io.WriteString(w, bibDoc)
			return
		}
		http.NotFound(w, r)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeWorldCat) config() Config {
	return Config{
		Key:           "key",
		Secret:        "secret",
		PrincipalID:   "pid",
		PrincipalIDNS: "pidns",
		TokenURL:      f.srv.URL + "/token",
		BaseURL:       f.srv.URL + "/",
	}
}

func TestNewSession(t *testing.T) {
	wc := newFakeWorldCat(t)

	s, err := NewSession(context.Background(), wc.config())
	require.NoError(t, err)
	assert.Equal(t, authority.KindOCLC, s.Kind())
	assert.Equal(t, wc.srv.URL+"/bib/data/12345", s.URL(" 12345 "))
	assert.Equal(t, int64(1), wc.tokens.Load())
}

func TestNewSession_Errors(t *testing.T) {
	wc := newFakeWorldCat(t)

	t.Run("missing key", func(t *testing.T) {
		cfg := wc.config()
		cfg.Key = ""
		_, err := NewSession(context.Background(), cfg)
		assert.True(t, errors.IsConfigError(err))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		cfg := wc.config()
		cfg.Secret = "wrong"
		_, err := NewSession(context.Background(), cfg)
		require.Error(t, err)
		assert.True(t, errors.IsConnectionError(err))
		var authErr *errors.AuthenticationError
		assert.True(t, errors.As(err, &authErr))
	})
}

func TestSession_Fetch(t *testing.T) {
	wc := newFakeWorldCat(t)
	s, err := NewSession(context.Background(), wc.config())
	require.NoError(t, err)

	body, err := s.Fetch(context.Background(), "12345")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	_ = body.Close()
	assert.Contains(t, string(data), "Smith, John")

	_, err = s.Fetch(context.Background(), "999")
	assert.True(t, errors.IsNotFound(err))

	// The token obtained at session creation is reused.
	assert.Equal(t, int64(1), wc.tokens.Load())
}
