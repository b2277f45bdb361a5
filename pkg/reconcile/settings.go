package reconcile

import (
	"regexp"
	"time"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/marc"
)

// Settings is the run configuration, built once at startup and passed
// down explicitly.
type Settings struct {
	Tag              string
	Codes            []string
	OCLCQuery        string
	LOCQuery         string
	LOCDelay         time.Duration
	OCLCDelay        time.Duration
	Policy           PolicyType
	OutputDir        string
	MaxRecordsPerLog int
}

// DefaultSettings returns settings with the built-in defaults and no
// queries.
func DefaultSettings() Settings {
	return Settings{
		Tag:              constants.DefaultTag,
		Codes:            []string{"a"},
		LOCDelay:         constants.DefaultLOCDelay,
		OCLCDelay:        constants.DefaultOCLCDelay,
		Policy:           PolicyTypeContainment,
		OutputDir:        constants.DefaultOutputDir,
		MaxRecordsPerLog: constants.DefaultMaxRecordsPerLog,
	}
}

var tagPattern = regexp.MustCompile(`^\d{3}$`)

// Validate checks the settings that do not depend on the selected api.
func (s Settings) Validate() error {
	if !tagPattern.MatchString(s.Tag) {
		return errors.NewConfigError("subfields.tag", "must be a three digit MARC tag, got "+s.Tag, nil)
	}
	if len(s.AllowList().Codes()) < 2 {
		return errors.NewConfigError("subfields.codes", "at least one subfield code besides 0 is required", nil)
	}
	if _, err := NewPolicy(s.Policy); err != nil {
		return errors.NewConfigError("compare", "invalid policy", err)
	}
	if s.MaxRecordsPerLog <= 0 {
		return errors.NewConfigError("output.max_records_per_log", "must be positive", nil)
	}
	if s.OutputDir == "" {
		return errors.NewConfigError("output.dir", "must not be empty", nil)
	}
	return nil
}

// AllowList returns the configured codes plus the linking subfield.
func (s Settings) AllowList() marc.AllowList {
	return marc.NewAllowList(s.Codes...)
}

// Query returns the catalog query for kind.
func (s Settings) Query(kind authority.Kind) string {
	if kind == authority.KindOCLC {
		return s.OCLCQuery
	}
	return s.LOCQuery
}

// Delay returns the pause before each remote fetch for kind.
func (s Settings) Delay(kind authority.Kind) time.Duration {
	if kind == authority.KindOCLC {
		return s.OCLCDelay
	}
	return s.LOCDelay
}

// ValidateFor checks that a query is configured for kind and that it
// selects the compared tag.
func (s Settings) ValidateFor(kind authority.Kind) error {
	query := s.Query(kind)
	if query == "" {
		return errors.NewConfigError("sql."+kind.String()+"_query", "no query configured", nil)
	}
	return ValidateQueryTag(kind, query, s.Tag)
}
