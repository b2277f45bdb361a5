package reconcile

import (
	"strings"

	"github.com/agentstation/authmatch/pkg/marc"
)

// LocalRecord is one catalog heading to be checked against its authority.
// It is built once from a catalog row and not modified afterwards.
type LocalRecord struct {
	BibID       string
	Tag         string
	Ord         int
	AuthorityID string // empty when the heading carries no authority link
	Subfields   marc.Subfields
	Language    string
	Location    string

	// Problem is set when the row could not be turned into subfields. The
	// record is still processed so the problem reaches the audit log.
	Problem error
}

// HasAuthority reports whether the record links to an authority.
func (r LocalRecord) HasAuthority() bool {
	return strings.TrimSpace(r.AuthorityID) != ""
}

// Discrepancy is one subfield of one record whose normalized local value
// is not matched by the authority.
type Discrepancy struct {
	BibID     string
	Tag       string
	Subfield  string
	Local     string
	Authority []string
	Language  string
	Location  string
}

// Record returns the discrepancy as a CSV row in header order.
func (d Discrepancy) Record() []string {
	return []string{
		d.BibID,
		d.Tag,
		d.Subfield,
		d.Local,
		strings.Join(d.Authority, valueSeparator),
		d.Language,
		d.Location,
	}
}

// valueSeparator joins repeated subfield values in a single CSV cell.
const valueSeparator = "; "
