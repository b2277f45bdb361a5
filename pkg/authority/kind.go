package authority

import (
	"strings"

	"github.com/agentstation/authmatch/pkg/errors"
)

// Kind identifies the service authority content is fetched from.
type Kind string

const (
	// KindLOC is the Library of Congress Name Authority File (id.loc.gov).
	KindLOC Kind = "loc"
	// KindOCLC is the OCLC WorldCat Metadata service.
	KindOCLC Kind = "oclc"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// ParseKind parses an API selector as given on the command line.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindLOC:
		return KindLOC, nil
	case KindOCLC:
		return KindOCLC, nil
	}
	return "", &errors.ValidationError{
		Field:   "api",
		Value:   s,
		Message: "must be one of: oclc, loc",
	}
}
