package loc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/marc"
)

const doc = `<?xml version="1.0" encoding="UTF-8"?>
<record xmlns="http://www.loc.gov/MARC21/slim">
  <datafield tag="100" ind1="1" ind2=" ">
    <subfield code="a">Smith, John</subfield>
    <subfield code="q">John Robert</subfield>
  </datafield>
</record>`

func TestURL(t *testing.T) {
	assert.Equal(t,
		"http://id.loc.gov/authorities/names/n82245990.marcxml.xml",
		URL("http://id.loc.gov/authorities/names/n82,245990"))
	assert.Equal(t, "x.marcxml.xml", URL(" x "))
}

func TestFetcher_Fetch(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/authorities/names/n1.marcxml.xml" {
			_, _ = io.WriteString(w, doc)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(WithDelay(0))
	assert.Equal(t, authority.KindLOC, f.Kind())

	body, err := f.Fetch(context.Background(), srv.URL+"/authorities/names/n1")
	require.NoError(t, err)
	defer body.Close()

	df, err := marc.FindDataField(body, "100")
	require.NoError(t, err)
	sf := marc.ParseDataField(df, marc.NewAllowList("a", "q"))
	assert.Equal(t, "John Robert", sf.First("q"))

	_, err = f.Fetch(context.Background(), srv.URL+"/authorities/names/n2")
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, []string{"/authorities/names/n1.marcxml.xml", "/authorities/names/n2.marcxml.xml"}, paths)
}

func TestFetcher_ThroughCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = io.WriteString(w, doc)
	}))
	defer srv.Close()

	cache := authority.NewCache(New(WithDelay(0)), "100", marc.NewAllowList("a"))
	for i := 0; i < 3; i++ {
		content, err := cache.Get(context.Background(), srv.URL+"/n1")
		require.NoError(t, err)
		assert.Equal(t, "Smith, John", content.Subfields().First("a"))
	}
	assert.Equal(t, 1, hits)
}

func TestFetcher_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Fetch(ctx, "http://id.loc.gov/authorities/names/n1")
	assert.True(t, errors.IsCanceled(err))
}
