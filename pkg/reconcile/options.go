package reconcile

import (
	"time"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
)

// options configures a Reconciler.
type options struct {
	seed         authority.Snapshot
	observer     authority.Observer
	recorder     Recorder
	keepSnapshot bool
	runID        string
	now          func() time.Time
}

func defaultOptions() *options {
	return &options{
		now: time.Now,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithSeed preloads the authority cache from an earlier run's snapshot.
func WithSeed(snap authority.Snapshot) Option {
	return func(o *options) error {
		o.seed = snap
		return nil
	}
}

// WithObserver reports cache hits and fetches to obs.
func WithObserver(obs authority.Observer) Option {
	return func(o *options) error {
		if obs == nil {
			return &errors.ValidationError{Field: "observer", Message: "cannot be nil"}
		}
		o.observer = obs
		return nil
	}
}

// WithRecorder reports processed records and discrepancies to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "recorder", Message: "cannot be nil"}
		}
		o.recorder = r
		return nil
	}
}

// WithSnapshot keeps a copy of the authority cache in the Result.
func WithSnapshot(enabled bool) Option {
	return func(o *options) error {
		o.keepSnapshot = enabled
		return nil
	}
}

// WithRunID fixes the run identifier used in output file names.
// By default a time-based UUID is generated per run.
func WithRunID(id string) Option {
	return func(o *options) error {
		if id == "" {
			return &errors.ValidationError{Field: "run_id", Message: "cannot be empty"}
		}
		o.runID = id
		return nil
	}
}

// WithClock replaces the clock used for file names and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}
