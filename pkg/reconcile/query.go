package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
)

var (
	// OCLC queries select a single tag: "... tag in (100 ...".
	oclcTagPattern = regexp.MustCompile(`(?i)tag\s+in\s*\(\s*(\d+)`)
	// LOC queries may select a tag family: "... tag in (100, 700) ...".
	locTagPattern = regexp.MustCompile(`(?i)tag\s+in\s*\(\s*(\d+(?:\s*,\s*\d+)*)\s*\)`)
)

// ValidateQueryTag checks that query selects the tag being compared.
// For OCLC the first tag in the "tag in (...)" clause must equal tag. For
// LOC every listed tag must share its last two digits with tag, so a
// 100 comparison may also read 600 and 700 headings.
func ValidateQueryTag(kind authority.Kind, query, tag string) error {
	switch kind {
	case authority.KindOCLC:
		m := oclcTagPattern.FindStringSubmatch(query)
		if m == nil {
			return errors.NewConfigError("sql.oclc_query", "no tag in (...) clause", nil)
		}
		if m[1] != tag {
			return errors.NewConfigError("sql.oclc_query",
				fmt.Sprintf("query selects tag %s but subfields.tag is %s", m[1], tag), nil)
		}
		return nil

	case authority.KindLOC:
		m := locTagPattern.FindStringSubmatch(query)
		if m == nil {
			return errors.NewConfigError("sql.loc_query", "no tag in (...) clause", nil)
		}
		for _, t := range strings.Split(m[1], ",") {
			t = strings.TrimSpace(t)
			if lastTwo(t) != lastTwo(tag) {
				return errors.NewConfigError("sql.loc_query",
					fmt.Sprintf("query selects tag %s which does not match subfields.tag %s", t, tag), nil)
			}
		}
		return nil
	}
	return errors.NewValidationError("api", kind.String(), "must be one of: oclc, loc")
}

func lastTwo(s string) string {
	if len(s) <= 2 {
		return s
	}
	return s[len(s)-2:]
}

// Limit caps how many catalog rows a run reads.
type Limit struct {
	N   int
	All bool
}

// NoLimit reads every row.
var NoLimit = Limit{All: true}

// ParseLimit parses a record count or "all".
func ParseLimit(s string) (Limit, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return NoLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return Limit{}, errors.NewValidationError("limit", s, "must be a positive integer or 'all'")
	}
	return Limit{N: n}, nil
}

// String returns the limit as given on the command line.
func (l Limit) String() string {
	if l.All {
		return "all"
	}
	return strconv.Itoa(l.N)
}

// ApplyLimit appends a LIMIT clause to query unless l is NoLimit.
func ApplyLimit(query string, l Limit) string {
	if l.All {
		return query
	}
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	return fmt.Sprintf("%s limit %d", query, l.N)
}
