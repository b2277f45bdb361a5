// Package authority holds the per-run cache of authority headings.
//
// Authority content is fetched from LOC or OCLC on first use of an
// identifier, reduced to the configured datafield's allowed subfields, and
// kept for the rest of the run. Identifiers are never evicted and never
// fetched twice once stored; failures are never stored.
package authority

import (
	"context"
	"io"

	"github.com/agentstation/authmatch/pkg/marc"
)

// Fetcher retrieves the raw MARC/XML document for an authority identifier.
// Implementations apply their own upstream rate limit before each request.
type Fetcher interface {
	Kind() Kind
	Fetch(ctx context.Context, id string) (io.ReadCloser, error)
}

// Content is the authority's canonical heading: a one-element sequence of
// subfields taken from the first datafield with the configured tag.
type Content []marc.Subfields

// NewContent wraps sf as Content.
func NewContent(sf marc.Subfields) Content {
	return Content{sf}
}

// Subfields returns the heading's subfields, or an empty set for empty Content.
func (c Content) Subfields() marc.Subfields {
	if len(c) == 0 || c[0] == nil {
		return marc.Subfields{}
	}
	return c[0]
}

// Observer is notified about cache activity. The metrics package
// implements it; a nil Observer is allowed.
type Observer interface {
	CacheHit(kind Kind)
	Fetched(kind Kind, err error)
}

// Stats counts cache activity for one run.
type Stats struct {
	Entries  int   `json:"entries" yaml:"entries"`
	Hits     int64 `json:"hits" yaml:"hits"`
	Misses   int64 `json:"misses" yaml:"misses"`
	Fetches  int64 `json:"fetches" yaml:"fetches"`
	Failures int64 `json:"failures" yaml:"failures"`
}
