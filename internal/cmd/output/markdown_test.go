package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headings(doc string) []string {
	var out []string
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out
}

func TestWriteMarkdownSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdownSummary(&buf, sampleResult()))
	doc := buf.String()

	want := []string{"# Authority reconciliation run1", "## Results", "## Files"}
	if diff := cmp.Diff(want, headings(doc)); diff != "" {
		t.Errorf("headings mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, doc, "**3 records**")
	assert.Contains(t, doc, "`loc`")
	assert.Contains(t, doc, "| Discrepancies")
	assert.Contains(t, doc, "1 records failed and 1 were not processed")
	assert.Contains(t, doc, "`outputs/a_log_1.csv`")
}

func TestWriteMarkdownSummary_Successful(t *testing.T) {
	res := sampleResult()
	res.Stats.Failed, res.Stats.Remaining = 0, 0
	res.XLSXPath = "outputs/a_inconsistent.xlsx"

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdownSummary(&buf, res))
	assert.NotContains(t, buf.String(), "not processed")
	assert.Contains(t, buf.String(), "a_inconsistent.xlsx")
}

func TestSaveMarkdownSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "summary.md")
	require.NoError(t, SaveMarkdownSummary(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Authority reconciliation run1"))
}
