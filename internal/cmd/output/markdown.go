package output

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/reconcile"
)

// WriteMarkdownSummary renders a run summary for pasting into tickets or
// wikis: headline figures, cache activity, and the files produced.
func WriteMarkdownSummary(w io.Writer, res *reconcile.Result) error {
	doc := md.NewMarkdown(w)

	doc.H1("Authority reconciliation " + res.RunID).LF()
	doc.PlainTextf("%s against %s, tag %s, %s policy. Started %s, took %s.",
		md.Bold(strconv.Itoa(res.Stats.Records)+" records"),
		md.Code(res.API.String()), md.Code(res.Tag), res.Policy,
		res.StartedAt.Format(time.RFC3339), res.Duration.Round(time.Millisecond)).LF().LF()

	if !res.Successful() {
		doc.Blockquote(strconv.Itoa(res.Stats.Failed) + " records failed and " +
			strconv.Itoa(res.Stats.Remaining) + " were not processed. See the audit log.").LF()
	}

	doc.H2("Results").LF()
	doc.Table(md.TableSet{
		Header: []string{"Measure", "Count"},
		Rows: [][]string{
			{"Compared", strconv.Itoa(res.Stats.Compared)},
			{"Failed", strconv.Itoa(res.Stats.Failed)},
			{"Discrepancies", strconv.Itoa(res.Stats.Discrepancies)},
			{"Authorities cached", strconv.Itoa(res.Cache.Entries)},
			{"Cache hits", strconv.FormatInt(res.Cache.Hits, 10)},
			{"Remote fetches", strconv.FormatInt(res.Cache.Fetches, 10)},
			{"Fetch failures", strconv.FormatInt(res.Cache.Failures, 10)},
		},
	}).LF()

	files := []string{md.Code(res.DiscrepancyPath)}
	for _, p := range res.LogPaths {
		files = append(files, md.Code(p))
	}
	if res.XLSXPath != "" {
		files = append(files, md.Code(res.XLSXPath))
	}
	doc.H2("Files").LF()
	doc.BulletList(files...)

	return doc.Build()
}

// SaveMarkdownSummary writes the summary to path, creating its directory.
func SaveMarkdownSummary(path string, res *reconcile.Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.NewIOError("mkdir", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", path, cerr)
		}
	}()
	return WriteMarkdownSummary(f, res)
}
