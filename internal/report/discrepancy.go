package report

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

// DiscrepancyWriter appends discrepancy rows to a single CSV file.
type DiscrepancyWriter struct {
	path string

	mu   sync.Mutex
	rows int
}

// NewDiscrepancyWriter creates the directory and writes the header row.
// An existing file at path is truncated.
func NewDiscrepancyWriter(path string) (*DiscrepancyWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, nil, constants.FilePermissions); err != nil {
		return nil, errors.WrapIO("create", path, err)
	}
	if err := appendRecords(path, [][]string{constants.DiscrepancyHeader}); err != nil {
		return nil, err
	}
	return &DiscrepancyWriter{path: path}, nil
}

// Write appends rows. Writing no rows does not touch the file.
func (w *DiscrepancyWriter) Write(rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := appendRecords(w.path, rows); err != nil {
		return err
	}
	w.rows += len(rows)
	return nil
}

// Path returns the file path.
func (w *DiscrepancyWriter) Path() string {
	return w.path
}

// Rows returns the number of data rows written.
func (w *DiscrepancyWriter) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}
