package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
)

func TestValidateQueryTag(t *testing.T) {
	tests := []struct {
		name  string
		kind  authority.Kind
		query string
		tag   string
		ok    bool
	}{
		{"oclc match", authority.KindOCLC, "select * from t where tag in (100)", "100", true},
		{"oclc first tag only", authority.KindOCLC, "SELECT * FROM t WHERE TAG IN (100, 700)", "100", true},
		{"oclc mismatch", authority.KindOCLC, "select * from t where tag in (700)", "100", false},
		{"oclc no clause", authority.KindOCLC, "select * from t where tag = 100", "100", false},
		{"loc family", authority.KindLOC, "select * from t where tag in (100, 600,700)", "100", true},
		{"loc family mismatch", authority.KindLOC, "select * from t where tag in (100, 110)", "100", false},
		{"loc no clause", authority.KindLOC, "select * from t", "100", false},
		{"loc 110 family", authority.KindLOC, "select * from t where tag in (110,710)", "110", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQueryTag(tt.kind, tt.query, tt.tag)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsConfigError(err), "got %v", err)
			}
		})
	}

	assert.True(t, errors.IsValidationError(ValidateQueryTag("viaf", "x", "100")))
}

func TestLimit(t *testing.T) {
	l, err := ParseLimit("ALL")
	require.NoError(t, err)
	assert.Equal(t, NoLimit, l)
	assert.Equal(t, "all", l.String())

	l, err = ParseLimit(" 25 ")
	require.NoError(t, err)
	assert.Equal(t, Limit{N: 25}, l)
	assert.Equal(t, "25", l.String())

	for _, bad := range []string{"", "0", "-3", "ten"} {
		_, err := ParseLimit(bad)
		assert.True(t, errors.IsValidationError(err), bad)
	}

	assert.Equal(t, "select 1", ApplyLimit("select 1", NoLimit))
	assert.Equal(t, "select 1 limit 5", ApplyLimit(" select 1; ", Limit{N: 5}))
}

func TestSettings(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"0", "a"}, s.AllowList().Codes())

	s.Codes = nil
	assert.True(t, errors.IsConfigError(s.Validate()))

	s = DefaultSettings()
	s.Policy = "fuzzy"
	assert.True(t, errors.IsConfigError(s.Validate()))

	s = DefaultSettings()
	s.OCLCQuery, s.LOCQuery = "o", "l"
	assert.Equal(t, "o", s.Query(authority.KindOCLC))
	assert.Equal(t, "l", s.Query(authority.KindLOC))
	assert.Equal(t, s.OCLCDelay, s.Delay(authority.KindOCLC))
}
