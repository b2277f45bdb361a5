package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Smith John", "Smith John"},
		{"trailing comma", "Smith, John,", "Smith John"},
		{"umlaut", "Müller", "Muller"},
		{"hyphen and accents", "García-López", "GarciaLopez"},
		{"fuller form", "(John Robert)", "John Robert"},
		{"initials", "John R.", "John R"},
		{"dates", "1900-1980.", "19001980"},
		{"polish", "Łódź", "Lodz"},
		{"keeps whitespace", "a  b\tc", "a  b\tc"},
		{"combining sequence", "José", "Jose"},
		{"all punctuation", "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestString_Idempotent(t *testing.T) {
	inputs := []string{
		"García-López",
		"Dvořák, Antonín,",
		"Þórður",
		"Ærø",
		"Straße",
		"北京",
		"Чайковский, Пётр Ильич",
		"O'Brien, Flann",
		"",
	}
	for _, in := range inputs {
		once := String(in)
		assert.Equal(t, once, String(once), "input %q", in)
		assert.True(t, isASCII(once), "input %q produced non-ASCII %q", in, once)
	}
}

func TestValues(t *testing.T) {
	assert.Equal(t, []string{"Smith John", "John R"}, Values([]string{"Smith, John,", "John R."}))
	assert.Empty(t, Values(nil))
}
