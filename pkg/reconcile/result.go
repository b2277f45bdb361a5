package reconcile

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/authmatch/pkg/authority"
)

// Result represents the outcome of a reconciliation run.
type Result struct {
	RunID     string         `json:"run_id" yaml:"run_id"`
	API       authority.Kind `json:"api" yaml:"api"`
	Tag       string         `json:"tag" yaml:"tag"`
	Policy    string         `json:"policy" yaml:"policy"`
	StartedAt utc.Time       `json:"started_at" yaml:"started_at"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`

	// Output files
	LogPaths        []string `json:"log_paths" yaml:"log_paths"`
	DiscrepancyPath string   `json:"discrepancy_path" yaml:"discrepancy_path"`
	XLSXPath        string   `json:"xlsx_path,omitempty" yaml:"xlsx_path,omitempty"`

	// Statistics
	Stats Stats           `json:"stats" yaml:"stats"`
	Cache authority.Stats `json:"cache" yaml:"cache"`

	// Snapshot is the authority cache at the end of the run, kept only
	// when requested with WithSnapshot.
	Snapshot authority.Snapshot `json:"-" yaml:"-"`
}

// Successful reports whether every processed record was compared.
func (r *Result) Successful() bool {
	return r.Stats.Failed == 0 && r.Stats.Remaining == 0
}
