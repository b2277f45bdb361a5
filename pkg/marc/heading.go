package marc

import (
	"strings"
	"unicode/utf8"

	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

// ParseHeading splits a catalog heading on the '$' delimiter. The text
// before the first delimiter is not a subfield and is dropped; the first
// character of every later segment is its code and the rest its value.
//
// A heading without any delimiter yields an empty Subfields and an
// *errors.ExtractionError the caller is expected to log, not propagate.
func ParseHeading(heading string, allow AllowList) (Subfields, error) {
	result := Subfields{}

	segments := strings.Split(heading, string(constants.SubfieldDelimiter))
	if len(segments) < 2 {
		return result, &errors.ExtractionError{
			Input:   heading,
			Message: "no subfield delimiter",
		}
	}

	for _, seg := range segments[1:] {
		if seg == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(seg)
		code := string(r)
		if allow.Allows(code) {
			result.Add(code, seg[size:])
		}
	}

	return result, nil
}

// AuthorityURI returns the first $0 value of a parsed heading.
func AuthorityURI(sf Subfields) (string, bool) {
	vs := sf[constants.LinkingSubfield]
	if len(vs) == 0 {
		return "", false
	}
	return strings.TrimSpace(vs[0]), true
}
