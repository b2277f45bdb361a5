package marc

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/authmatch/pkg/errors"
)

func TestNewAllowList(t *testing.T) {
	al := ParseAllowList("a, q ,d,")
	assert.Equal(t, []string{"0", "a", "d", "q"}, al.Codes())
	assert.True(t, al.Allows("0"), "linking subfield is always allowed")
	assert.False(t, al.Allows("c"))

	empty := NewAllowList()
	assert.Equal(t, []string{"0"}, empty.Codes())
}

func TestParseHeading(t *testing.T) {
	allow := NewAllowList("a", "q")

	tests := []struct {
		name    string
		heading string
		want    Subfields
		wantErr bool
	}{
		{
			name:    "typical heading",
			heading: "$aSmith, John,$qJohn Robert,$0http://id.loc.gov/authorities/names/n82245990",
			want: Subfields{
				"a": {"Smith, John,"},
				"q": {"John Robert,"},
				"0": {"http://id.loc.gov/authorities/names/n82245990"},
			},
		},
		{
			name:    "leading indicators dropped",
			heading: "1 $aSmith, John",
			want:    Subfields{"a": {"Smith, John"}},
		},
		{
			name:    "codes outside allow-list dropped",
			heading: "$aSmith, John,$d1900-1980.$eauthor.",
			want:    Subfields{"a": {"Smith, John,"}},
		},
		{
			name:    "repeated code keeps order",
			heading: "$aFirst$qOne$aSecond",
			want:    Subfields{"a": {"First", "Second"}, "q": {"One"}},
		},
		{
			name:    "empty segment skipped",
			heading: "$$aSmith",
			want:    Subfields{"a": {"Smith"}},
		},
		{
			name:    "code without value",
			heading: "$a",
			want:    Subfields{"a": {""}},
		},
		{
			name:    "no delimiter",
			heading: "Smith, John",
			want:    Subfields{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeading(tt.heading, allow)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrExtraction))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every allowed code present in a well-formed heading comes back, in order,
// and nothing else does.
func TestParseHeading_AllowListProperty(t *testing.T) {
	codes := []string{"a", "b", "c", "d", "q", "0"}
	allow := NewAllowList("a", "d")

	var b strings.Builder
	want := Subfields{}
	for i := 0; i < 30; i++ {
		code := codes[(i*7)%len(codes)]
		value := strings.Repeat(code, i%4+1)
		b.WriteString("$" + code + value)
		if allow.Allows(code) {
			want.Add(code, value)
		}
	}

	got, err := ParseHeading(b.String(), allow)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAuthorityURI(t *testing.T) {
	uri, ok := AuthorityURI(Subfields{"0": {" http://id.loc.gov/authorities/names/n1 ", "other"}})
	assert.True(t, ok)
	assert.Equal(t, "http://id.loc.gov/authorities/names/n1", uri)

	_, ok = AuthorityURI(Subfields{"a": {"x"}})
	assert.False(t, ok)
}

func TestFindDataField(t *testing.T) {
	f, err := os.Open("testdata/n82245990.marcxml.xml")
	require.NoError(t, err)
	defer f.Close()

	df, err := FindDataField(f, "100")
	require.NoError(t, err)
	assert.Equal(t, "100", df.Tag)
	assert.Equal(t, "1", df.Ind1)

	got := ParseDataField(df, NewAllowList("a", "q"))
	assert.Equal(t, Subfields{"a": {"Smith, John"}, "q": {"John R."}}, got)
}

func TestFindDataField_FirstMatchWins(t *testing.T) {
	doc := `<record xmlns="http://www.loc.gov/MARC21/slim">
	<datafield tag="100"><subfield code="a">First</subfield></datafield>
	<datafield tag="100"><subfield code="a">Second</subfield></datafield>
	</record>`

	df, err := FindDataField(strings.NewReader(doc), "100")
	require.NoError(t, err)
	assert.Equal(t, "First", ParseDataField(df, NewAllowList("a")).First("a"))
}

func TestFindDataField_AtomEnvelope(t *testing.T) {
	doc := `<entry xmlns="http://www.w3.org/2005/Atom"><content type="application/xml">
	<response xmlns="http://worldcat.org/rb" mimeType="application/vnd.oclc.marc21+xml">
	<record xmlns="http://www.loc.gov/MARC21/slim">
	<datafield tag="100" ind1="1" ind2=" "><subfield code="a">García-López, Ana,</subfield></datafield>
	</record></response></content></entry>`

	df, err := FindDataField(strings.NewReader(doc), "100")
	require.NoError(t, err)
	assert.Equal(t, "García-López, Ana,", df.Subfields[0].Value)
}

func TestFindDataField_ForeignNamespaceIgnored(t *testing.T) {
	doc := `<x:datafield xmlns:x="urn:other" tag="100"><x:subfield code="a">nope</x:subfield></x:datafield>`

	_, err := FindDataField(strings.NewReader(doc), "100")
	assert.ErrorIs(t, err, ErrNoDataField)
}

func TestFindDataField_NoMatch(t *testing.T) {
	doc := `<record xmlns="http://www.loc.gov/MARC21/slim"><datafield tag="110"/></record>`

	_, err := FindDataField(strings.NewReader(doc), "100")
	assert.ErrorIs(t, err, ErrNoDataField)
}

func TestFindDataField_Malformed(t *testing.T) {
	_, err := FindDataField(strings.NewReader(`<record><datafield tag="100">`), "100")
	require.Error(t, err)

	var pe *errors.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.NotErrorIs(t, err, ErrNoDataField)
}

func TestSubfields(t *testing.T) {
	sf := Subfields{}
	sf.Add("q", "John R.")
	sf.Add("a", "Smith")
	sf.Add("a", "Jones")

	assert.Equal(t, []string{"a", "q"}, sf.Codes())
	assert.Equal(t, "Smith", sf.First("a"))
	assert.Equal(t, "", sf.First("d"))
	assert.True(t, sf.Has("q"))

	clone := sf.Clone()
	clone.Add("a", "Brown")
	assert.Len(t, sf["a"], 2)

	assert.Empty(t, ParseDataField(nil, NewAllowList("a")))
}
