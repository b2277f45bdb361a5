// Package report writes the run's CSV outputs: the discrepancy report and
// the rotating audit log. Files are opened in append mode for every write
// and closed straight after, so an interrupted run leaves valid CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

// AuditRow is one processed record. Error is empty on success.
type AuditRow struct {
	Timestamp   time.Time
	BibID       string
	Tag         string
	Ord         int
	AuthorityID string
	Error       string
}

// Record returns the row in AuditHeader order.
func (r AuditRow) Record() []string {
	return []string{
		r.Timestamp.Format(constants.TimeFormatAudit),
		r.BibID,
		r.Tag,
		strconv.Itoa(r.Ord),
		r.AuthorityID,
		r.Error,
	}
}

// AuditLog writes audit rows across files of at most maxRows rows each.
// The first file is <base>.csv, later ones <base>_1.csv, <base>_2.csv and
// so on. Every file starts with the audit header.
type AuditLog struct {
	base    string
	maxRows int

	mu    sync.Mutex
	rows  int
	paths []string
}

// NewAuditLog returns an audit log rooted at base (a path without extension).
func NewAuditLog(base string, maxRows int) *AuditLog {
	if maxRows <= 0 {
		maxRows = constants.DefaultMaxRecordsPerLog
	}
	return &AuditLog{base: base, maxRows: maxRows}
}

// FilePath returns the path of the index-th file.
func (l *AuditLog) FilePath(index int) string {
	if index == 0 {
		return l.base + ".csv"
	}
	return fmt.Sprintf("%s_%d.csv", l.base, index)
}

// Write appends row to the current file, starting a new file when the
// current one is full. A failed write does not advance the row count.
func (l *AuditLog) Write(row AuditRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := l.rows / l.maxRows
	path := l.FilePath(index)
	fresh := l.rows%l.maxRows == 0

	records := [][]string{row.Record()}
	if fresh {
		records = append([][]string{constants.AuditHeader}, records...)
	}
	if err := appendRecords(path, records); err != nil {
		return err
	}

	if fresh {
		l.paths = append(l.paths, path)
	}
	l.rows++
	return nil
}

// Rows returns the number of rows written.
func (l *AuditLog) Rows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows
}

// Paths returns the files written so far, in order.
func (l *AuditLog) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

// appendRecords opens path for append, writes records, and closes it.
func appendRecords(path string, records [][]string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.WrapIO("close", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
