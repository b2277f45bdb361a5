// Package normalize folds headings into the form used for comparison:
// plain ASCII with no punctuation.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuation is the ASCII punctuation set removed after transliteration.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var dropPunct = strings.NewReplacer(punctPairs()...)

// String transliterates s to ASCII and deletes ASCII punctuation.
// Whitespace is left as is.
func String(s string) string {
	if s == "" {
		return ""
	}
	return dropPunct.Replace(ASCII(s))
}

// ASCII strips diacritics and transliterates whatever is left outside the
// ASCII range ("Müller" → "Muller", "Łódź" → "Lodz").
func ASCII(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	if isASCII(folded) {
		return folded
	}
	return unidecode.Unidecode(folded)
}

// Values normalizes every element of vs.
func Values(vs []string) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = String(v)
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func punctPairs() []string {
	pairs := make([]string, 0, 2*len(punctuation))
	for _, r := range punctuation {
		pairs = append(pairs, string(r), "")
	}
	return pairs
}
