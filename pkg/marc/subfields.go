// Package marc extracts MARC subfields from the two shapes authmatch sees:
// catalog heading strings ("$aSmith, John,$qJohn Robert,") and MARC/XML
// datafield elements returned by authority services.
package marc

import (
	"sort"
	"strings"

	"github.com/agentstation/authmatch/pkg/constants"
)

// Subfields maps a subfield code to its values in order of appearance.
// A code may repeat within one field, so every code holds a slice.
type Subfields map[string][]string

// Add appends value to code.
func (s Subfields) Add(code, value string) {
	s[code] = append(s[code], value)
}

// Has reports whether code is present.
func (s Subfields) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// First returns the first value for code, or "" when absent.
func (s Subfields) First(code string) string {
	if vs := s[code]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Codes returns the codes present, sorted.
func (s Subfields) Codes() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Clone returns a deep copy.
func (s Subfields) Clone() Subfields {
	out := make(Subfields, len(s))
	for code, vs := range s {
		out[code] = append([]string(nil), vs...)
	}
	return out
}

// AllowList is the set of subfield codes kept during extraction.
// The linking subfield $0 is always a member.
type AllowList struct {
	codes map[string]struct{}
}

// NewAllowList builds an allow-list from configured codes. Whitespace
// around codes is ignored so "a, q, d" style lists work unchanged.
func NewAllowList(codes ...string) AllowList {
	al := AllowList{codes: map[string]struct{}{constants.LinkingSubfield: {}}}
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		al.codes[c] = struct{}{}
	}
	return al
}

// ParseAllowList splits a comma separated list such as "a, q, d".
func ParseAllowList(list string) AllowList {
	return NewAllowList(strings.Split(list, ",")...)
}

// Allows reports whether code is kept.
func (al AllowList) Allows(code string) bool {
	_, ok := al.codes[code]
	return ok
}

// Codes returns the allowed codes, sorted, including $0.
func (al AllowList) Codes() []string {
	codes := make([]string, 0, len(al.codes))
	for c := range al.codes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
