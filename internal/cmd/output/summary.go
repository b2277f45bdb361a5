package output

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/reconcile"
)

// ResultToTableData converts a run result to a key/value table.
func ResultToTableData(res *reconcile.Result) Data {
	rows := [][]string{
		{"Run ID", res.RunID},
		{"API", res.API.String()},
		{"Tag", res.Tag},
		{"Policy", res.Policy},
		{"Records", strconv.Itoa(res.Stats.Records)},
		{"Compared", strconv.Itoa(res.Stats.Compared)},
		{"Failed", strconv.Itoa(res.Stats.Failed)},
		{"Discrepancies", strconv.Itoa(res.Stats.Discrepancies)},
		{"Authorities Cached", strconv.Itoa(res.Cache.Entries)},
		{"Cache Hits", strconv.FormatInt(res.Cache.Hits, 10)},
		{"Remote Fetches", strconv.FormatInt(res.Cache.Fetches, 10)},
		{"Fetch Failures", strconv.FormatInt(res.Cache.Failures, 10)},
	}
	if res.Stats.AuditFailures > 0 {
		rows = append(rows, []string{"Audit Write Failures", strconv.Itoa(res.Stats.AuditFailures)})
	}
	if res.Stats.Remaining > 0 {
		rows = append(rows, []string{"Not Processed", strconv.Itoa(res.Stats.Remaining)})
	}
	rows = append(rows,
		[]string{"Duration", res.Duration.Round(time.Millisecond).String()},
		[]string{"Discrepancy Report", res.DiscrepancyPath},
		[]string{"Audit Logs", strings.Join(res.LogPaths, "\n")},
	)
	if res.XLSXPath != "" {
		rows = append(rows, []string{"Workbook", res.XLSXPath})
	}

	return Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}
}

// SnapshotToTableData lists a saved cache snapshot, one row per subfield
// value. Wide output includes every subfield; otherwise only the first
// value of each code is shown.
func SnapshotToTableData(file *authority.SnapshotFile, wide bool) Data {
	ids := make([]string, 0, len(file.Entries))
	for id := range file.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rows [][]string
	for _, id := range ids {
		sf := file.Entries[id].Subfields()
		codes := sf.Codes()
		if len(codes) == 0 {
			rows = append(rows, []string{id, "", ""})
			continue
		}
		for _, code := range codes {
			values := sf[code]
			if !wide && len(values) > 1 {
				values = values[:1]
			}
			rows = append(rows, []string{id, code, strings.Join(values, "; ")})
		}
	}

	return Data{
		Headers:         []string{"Authority ID", "Code", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignCenter, AlignLeft},
	}
}

// FormatResult writes res in the given format.
func FormatResult(w io.Writer, res *reconcile.Result, format Format) error {
	var data any = res
	if format == FormatTable || format == FormatWide || format == "" {
		data = ResultToTableData(res)
	}
	return NewFormatter(format).Format(w, data)
}

// FormatSnapshot writes a snapshot in the given format.
func FormatSnapshot(w io.Writer, file *authority.SnapshotFile, format Format) error {
	var data any = file
	if format == FormatTable || format == FormatWide || format == "" {
		data = SnapshotToTableData(file, format == FormatWide)
	}
	return NewFormatter(format).Format(w, data)
}
