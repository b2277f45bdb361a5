// Package reconcile compares local catalog headings with authority records.
//
// A run reads records from the catalog, looks up each record's authority
// through a per-run cache, compares the allowed subfields after
// normalization, and writes a discrepancy CSV plus a rotating audit log
// with one row per record. Only configuration and connection problems
// abort a run; anything that goes wrong with a single record is written
// to the audit log and the run continues.
package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/authmatch/internal/report"
	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/logging"
	"github.com/agentstation/authmatch/pkg/marc"
)

// RecordSource runs a catalog query and returns its rows as records, in
// result-set order.
type RecordSource interface {
	Records(ctx context.Context, kind authority.Kind, query string, allow marc.AllowList) ([]LocalRecord, error)
}

// FetcherFactory opens the authority fetcher for kind, pausing delay
// (Settings.Delay(kind)) before every remote request. Opening may
// authenticate, so it can fail with a connection error.
type FetcherFactory func(ctx context.Context, kind authority.Kind, delay time.Duration) (authority.Fetcher, error)

// Reconciler runs reconciliations with fixed settings.
type Reconciler struct {
	settings Settings
	source   RecordSource
	fetchers FetcherFactory
	options  *options
}

// New creates a Reconciler. Settings are validated here so a bad
// configuration fails before any I/O.
func New(settings Settings, source RecordSource, fetchers FetcherFactory, opts ...Option) (*Reconciler, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, &errors.ValidationError{Field: "source", Message: "cannot be nil"}
	}
	if fetchers == nil {
		return nil, &errors.ValidationError{Field: "fetchers", Message: "cannot be nil"}
	}
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{settings: settings, source: source, fetchers: fetchers, options: o}, nil
}

// Run reconciles up to limit records against the kind authority service.
//
// Errors returned before processing starts (configuration, connection)
// leave no output files behind. If ctx is canceled mid-batch, Run returns
// the partial Result together with an error matching errors.ErrCanceled.
func (r *Reconciler) Run(ctx context.Context, kind authority.Kind, limit Limit) (*Result, error) {
	ctx = logging.WithSource(ctx, kind.String())
	logger := logging.FromContext(ctx)

	if err := r.settings.ValidateFor(kind); err != nil {
		return nil, err
	}
	query := ApplyLimit(r.settings.Query(kind), limit)
	policy, err := NewPolicy(r.settings.Policy)
	if err != nil {
		return nil, err
	}

	fetcher, err := r.fetchers(ctx, kind, r.settings.Delay(kind))
	if err != nil {
		return nil, err
	}

	allow := r.settings.AllowList()
	logger.Debug().Str("query", query).Msg("Querying catalog")
	records, err := r.source.Records(ctx, kind, query, allow)
	if err != nil {
		return nil, err
	}

	started := r.options.now()
	runID, err := r.runID()
	if err != nil {
		return nil, err
	}
	base := filepath.Join(r.settings.OutputDir,
		fmt.Sprintf("%s_%s_%s", started.Format(constants.TimeFormatFilename), kind, runID))

	discrepancies, err := report.NewDiscrepancyWriter(base + "_inconsistent.csv")
	if err != nil {
		return nil, err
	}
	audit := report.NewAuditLog(base+"_log", r.settings.MaxRecordsPerLog)

	cacheOpts := []authority.CacheOption{authority.WithSeed(r.options.seed)}
	if r.options.observer != nil {
		cacheOpts = append(cacheOpts, authority.WithObserver(r.options.observer))
	}
	cache := authority.NewCache(fetcher, r.settings.Tag, allow, cacheOpts...)

	processor := NewProcessor(kind, NewComparator(cache, policy), audit, discrepancies, r.options.recorder)
	processor.now = r.options.now

	logger.Info().
		Str("run_id", runID).
		Int("records", len(records)).
		Str("limit", limit.String()).
		Str("policy", policy.Name()).
		Msg("Starting reconciliation")

	stats := processor.Process(ctx, records)

	result := &Result{
		RunID:           runID,
		API:             kind,
		Tag:             r.settings.Tag,
		Policy:          policy.Name(),
		StartedAt:       utc.New(started),
		Duration:        r.options.now().Sub(started),
		LogPaths:        audit.Paths(),
		DiscrepancyPath: discrepancies.Path(),
		Stats:           stats,
		Cache:           cache.Stats(),
	}
	if r.options.keepSnapshot {
		result.Snapshot = cache.Snapshot()
	}

	logger.Info().
		Int("compared", stats.Compared).
		Int("failed", stats.Failed).
		Int("discrepancies", stats.Discrepancies).
		Int("cached_authorities", result.Cache.Entries).
		Dur("duration", result.Duration).
		Msg("Reconciliation finished")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}
	return result, nil
}

func (r *Reconciler) runID() (string, error) {
	if r.options.runID != "" {
		return r.options.runID, nil
	}
	id, err := uuid.NewUUID()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}
