package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agentstation/authmatch/pkg/constants"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestAuditRow_Record(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 123456000, time.UTC)
	row := AuditRow{Timestamp: ts, BibID: "42", Tag: "100", Ord: 2, AuthorityID: "n1", Error: "boom"}
	assert.Equal(t, []string{"2024-03-05 14:07:09.123456", "42", "100", "2", "n1", "boom"}, row.Record())
}

func TestAuditLog_Rotation(t *testing.T) {
	tests := []struct {
		rows, max int
		files     int
	}{
		{rows: 1, max: 3, files: 1},
		{rows: 3, max: 3, files: 1},
		{rows: 4, max: 3, files: 2},
		{rows: 10, max: 3, files: 4},
		{rows: 7, max: 1, files: 7},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.rows)+"/"+strconv.Itoa(tt.max), func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "010224_loc_abc_log")
			log := NewAuditLog(base, tt.max)
			for i := 0; i < tt.rows; i++ {
				require.NoError(t, log.Write(AuditRow{Timestamp: time.Now(), BibID: strconv.Itoa(i), Tag: "100"}))
			}

			paths := log.Paths()
			require.Len(t, paths, tt.files)
			assert.Equal(t, base+".csv", paths[0])
			for i := 1; i < len(paths); i++ {
				assert.Equal(t, base+"_"+strconv.Itoa(i)+".csv", paths[i])
			}

			total := 0
			next := 0
			for _, p := range paths {
				records := readCSV(t, p)
				require.NotEmpty(t, records)
				assert.Equal(t, constants.AuditHeader, records[0])
				assert.LessOrEqual(t, len(records)-1, tt.max)
				for _, rec := range records[1:] {
					assert.Equal(t, strconv.Itoa(next), rec[1], "arrival order")
					next++
				}
				total += len(records) - 1
			}
			assert.Equal(t, tt.rows, total)
			assert.Equal(t, tt.rows, log.Rows())
		})
	}
}

func TestAuditLog_WriteFailureDoesNotAdvance(t *testing.T) {
	base := filepath.Join(t.TempDir(), "missing-dir", "log")
	log := NewAuditLog(base, 2)
	err := log.Write(AuditRow{BibID: "1"})
	require.Error(t, err)
	assert.Equal(t, 0, log.Rows())
	assert.Empty(t, log.Paths())
}

func TestDiscrepancyWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "x_inconsistent.csv")
	w, err := NewDiscrepancyWriter(path)
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())

	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Write([][]string{{"42", "100", "q", "John Robert", "John R", "eng", "JRL"}}))
	require.NoError(t, w.Write([][]string{{"43", "100", "a", "Doe, Jane", "a does not exist in authority", "", ""}}))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, constants.DiscrepancyHeader, records[0])
	assert.Equal(t, "John R", records[1][4])
	assert.Equal(t, 2, w.Rows())

	// Re-creating truncates.
	_, err = NewDiscrepancyWriter(path)
	require.NoError(t, err)
	assert.Len(t, readCSV(t, path), 1)
}

func TestExportXLSX(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "d.csv")
	w, err := NewDiscrepancyWriter(csvPath)
	require.NoError(t, err)
	require.NoError(t, w.Write([][]string{{"42", "100", "q", "John Robert", "John R", "eng", "JRL"}}))

	xlsxPath := filepath.Join(dir, "d.xlsx")
	require.NoError(t, ExportXLSX(csvPath, xlsxPath))

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DiscrepancySheet}, f.GetSheetList())
	rows, err := f.GetRows(DiscrepancySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, constants.DiscrepancyHeader, rows[0])
	assert.Equal(t, "John Robert", rows[1][3])
}

func TestExportXLSX_MissingInput(t *testing.T) {
	err := ExportXLSX(filepath.Join(t.TempDir(), "nope.csv"), filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)
}
