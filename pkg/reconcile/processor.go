package reconcile

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/agentstation/authmatch/internal/report"
	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/logging"
)

// AuditSink receives one row per processed record.
type AuditSink interface {
	Write(row report.AuditRow) error
}

// DiscrepancySink receives discrepancy rows as CSV records.
type DiscrepancySink interface {
	Write(rows [][]string) error
}

// Recorder counts processed records and discrepancies. *metrics.Metrics
// implements it.
type Recorder interface {
	RecordProcessed(kind authority.Kind, err error)
	Discrepancies(kind authority.Kind, n int)
}

// Stats summarizes a batch.
type Stats struct {
	Records       int `json:"records" yaml:"records"`
	Compared      int `json:"compared" yaml:"compared"`
	Failed        int `json:"failed" yaml:"failed"`
	Discrepancies int `json:"discrepancies" yaml:"discrepancies"`
	AuditFailures int `json:"audit_failures" yaml:"audit_failures"`
	// Remaining is the number of records left unprocessed after cancellation.
	Remaining int `json:"remaining" yaml:"remaining"`
}

// Processor drives the comparator over a batch in arrival order. Every
// record gets exactly one audit row; a record that fails is logged with
// its error and the batch moves on.
type Processor struct {
	kind          authority.Kind
	comparator    *Comparator
	audit         AuditSink
	discrepancies DiscrepancySink
	recorder      Recorder
	now           func() time.Time
	progressEvery int

	processed atomic.Int64
}

// NewProcessor returns a processor. recorder may be nil.
func NewProcessor(kind authority.Kind, comparator *Comparator, audit AuditSink, discrepancies DiscrepancySink, recorder Recorder) *Processor {
	return &Processor{
		kind:          kind,
		comparator:    comparator,
		audit:         audit,
		discrepancies: discrepancies,
		recorder:      recorder,
		now:           time.Now,
		progressEvery: constants.ProgressInterval,
	}
}

// Processed returns the number of records logged so far. It is safe to
// call from another goroutine while Process runs.
func (p *Processor) Processed() int64 {
	return p.processed.Load()
}

// Process runs every record through the comparator. Cancelling ctx stops
// the loop before the next record; the record in flight is still logged.
func (p *Processor) Process(ctx context.Context, records []LocalRecord) Stats {
	logger := logging.FromContext(ctx)
	stats := Stats{Records: len(records)}
	start := p.now()

	for i, rec := range records {
		if ctx.Err() != nil {
			stats.Remaining = len(records) - i
			logger.Warn().
				Int("processed", i).
				Int("remaining", stats.Remaining).
				Msg("Batch canceled")
			break
		}

		p.processOne(ctx, rec, &stats)

		n := p.processed.Add(1)
		if p.progressEvery > 0 && n%int64(p.progressEvery) == 0 {
			logger.Info().
				Int64("processed", n).
				Int("total", len(records)).
				Int("discrepancies", stats.Discrepancies).
				Int("failed", stats.Failed).
				Dur("elapsed", p.now().Sub(start)).
				Msg("Progress")
		}
	}
	return stats
}

func (p *Processor) processOne(ctx context.Context, rec LocalRecord, stats *Stats) {
	ctx = logging.WithRecord(ctx, rec.BibID, rec.Tag, rec.Ord)
	ctx = logging.WithAuthority(ctx, rec.AuthorityID)
	logger := logging.FromContext(ctx)

	row := report.AuditRow{
		BibID:       rec.BibID,
		Tag:         rec.Tag,
		Ord:         rec.Ord,
		AuthorityID: rec.AuthorityID,
	}

	err := p.compare(ctx, rec, stats)
	if err != nil {
		stats.Failed++
		row.Error = err.Error()
		logger.Warn().Err(err).Msg("Record failed")
	} else {
		stats.Compared++
	}
	if p.recorder != nil {
		p.recorder.RecordProcessed(p.kind, err)
	}

	row.Timestamp = p.now()
	if werr := p.audit.Write(row); werr != nil {
		stats.AuditFailures++
		logger.Error().Err(werr).Msg("Failed to write audit row")
	}
}

// compare runs the comparator and writes its rows. A failure to write the
// rows fails the record, so it shows up in the audit log.
func (p *Processor) compare(ctx context.Context, rec LocalRecord, stats *Stats) error {
	if rec.Problem != nil {
		return rec.Problem
	}
	found, err := p.comparator.Compare(ctx, rec)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return nil
	}

	rows := make([][]string, len(found))
	for i, d := range found {
		rows[i] = d.Record()
	}
	if err := p.discrepancies.Write(rows); err != nil {
		return err
	}
	stats.Discrepancies += len(found)
	if p.recorder != nil {
		p.recorder.Discrepancies(p.kind, len(found))
	}
	return nil
}
