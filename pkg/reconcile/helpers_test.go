package reconcile

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/agentstation/authmatch/internal/report"
	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/marc"
)

// fakeFetcher serves MARC/XML documents from memory.
type fakeFetcher struct {
	kind authority.Kind
	docs map[string]string
	errs map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func newFakeFetcher(kind authority.Kind) *fakeFetcher {
	return &fakeFetcher{
		kind:  kind,
		docs:  map[string]string{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) Kind() authority.Kind { return f.kind }

func (f *fakeFetcher) Fetch(_ context.Context, id string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.calls[id]++
	f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.NewAPIError(f.kind.String(), 404, "Not Found")
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

func marcRecord(tag string, subfields ...[2]string) string {
	var b strings.Builder
	b.WriteString(`<record xmlns="http://www.loc.gov/MARC21/slim"><datafield tag="` + tag + `" ind1="1" ind2=" ">`)
	for _, sf := range subfields {
		b.WriteString(`<subfield code="` + sf[0] + `">` + sf[1] + `</subfield>`)
	}
	b.WriteString(`</datafield></record>`)
	return b.String()
}

// mapSource is a ContentSource backed by a map.
type mapSource struct {
	content map[string]authority.Content
	err     error
}

func (m mapSource) Get(_ context.Context, id string) (authority.Content, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.content[id]
	if !ok {
		return nil, errors.NewNotFoundError("datafield 100", id)
	}
	return c, nil
}

// memAudit collects audit rows.
type memAudit struct {
	rows []report.AuditRow
	err  error
}

func (m *memAudit) Write(row report.AuditRow) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

// memDiscrepancies collects discrepancy rows.
type memDiscrepancies struct {
	rows [][]string
	err  error
}

func (m *memDiscrepancies) Write(rows [][]string) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, rows...)
	return nil
}

// staticRecords is a RecordSource returning fixed records.
type staticRecords struct {
	records []LocalRecord
	err     error
	queries []string
}

func (s *staticRecords) Records(_ context.Context, _ authority.Kind, query string, _ marc.AllowList) ([]LocalRecord, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func heading(t interface{ Fatalf(string, ...any) }, h string, codes ...string) marc.Subfields {
	sf, err := marc.ParseHeading(h, marc.NewAllowList(codes...))
	if err != nil {
		t.Fatalf("parse heading %q: %v", h, err)
	}
	return sf
}
