package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agentstation/authmatch/internal/catalog"
	"github.com/agentstation/authmatch/internal/cmd/output"
	"github.com/agentstation/authmatch/internal/metrics"
	"github.com/agentstation/authmatch/internal/report"
	"github.com/agentstation/authmatch/internal/sources"
	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/logging"
	"github.com/agentstation/authmatch/pkg/reconcile"
)

// compareFlags holds the compare command's own flags.
type compareFlags struct {
	OutputDir   string
	CacheIn     string
	CacheOut    string
	XLSX        bool
	MetricsFile string
	Summary     string
	Strict      bool
}

// addCompareFlags registers the compare flags on fs.
func addCompareFlags(fs *pflag.FlagSet, flags *compareFlags) {
	fs.StringVar(&flags.OutputDir, "output-dir", "", "directory for CSV output (overrides output.dir)")
	fs.StringVar(&flags.CacheIn, "cache-in", "", "seed the authority cache from a saved snapshot")
	fs.StringVar(&flags.CacheOut, "cache-out", "", "save the authority cache snapshot after the run")
	fs.BoolVar(&flags.XLSX, "xlsx", false, "also export the discrepancy report as an Excel workbook")
	fs.StringVar(&flags.MetricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	fs.StringVar(&flags.Summary, "summary", "", "write a Markdown run summary to this file")
	fs.BoolVar(&flags.Strict, "strict", false, "require exact single-value equality instead of containment")
}

// NewCompareCommand creates the compare command.
func (a *App) NewCompareCommand() *cobra.Command {
	flags := &compareFlags{}

	cmd := &cobra.Command{
		Use:   "compare <oclc|loc> <N|all>",
		Short: "Compare catalog headings against an authority service",
		Long: `Compare runs the configured catalog query for the chosen authority
service, fetches each linked authority record once, and compares the
configured subfields of every heading against it.

Two kinds of files are written to the output directory:
  <MMDDYY>_<api>_<run>_inconsistent.csv   one row per differing subfield
  <MMDDYY>_<api>_<run>_log.csv            one audit row per record`,
		Example: `  authmatch compare loc 100
  authmatch compare oclc all --xlsx
  authmatch compare loc all --cache-in loc.yaml --cache-out loc.yaml
  authmatch compare loc 500 --summary outputs/summary.md --metrics-file authmatch.prom`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("output-dir") {
				a.config.OutputDir = flags.OutputDir
			}
			if flags.Strict {
				a.config.Strict = true
			}
			return a.runCompare(cmd.Context(), args[0], args[1], flags)
		},
	}

	addCompareFlags(cmd.Flags(), flags)

	return cmd
}

// runCompare validates everything it can before opening the database.
func (a *App) runCompare(ctx context.Context, api, rawLimit string, flags *compareFlags) error {
	kind, err := authority.ParseKind(api)
	if err != nil {
		return err
	}
	limit, err := reconcile.ParseLimit(rawLimit)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(a.config.Format)
	if err != nil {
		return err
	}

	settings := a.config.Settings()
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := settings.ValidateFor(kind); err != nil {
		return err
	}

	var seed authority.Snapshot
	if flags.CacheIn != "" {
		file, err := authority.LoadSnapshotFile(flags.CacheIn)
		if err != nil {
			return err
		}
		if file.API != kind || file.Tag != settings.Tag {
			return errors.NewConfigError("cache",
				fmt.Sprintf("snapshot %s holds %s tag %s, run is %s tag %s", flags.CacheIn, file.API, file.Tag, kind, settings.Tag), nil)
		}
		seed = file.Entries
	}

	ctx = logging.WithLogger(ctx, a.logger)
	m := metrics.New()

	cat, err := catalog.Open(ctx, catalog.Config{
		Driver: a.config.DatabaseDriver,
		DSN:    a.config.DatabaseDSN,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cat.Close(); cerr != nil {
			a.logger.Warn().Err(cerr).Msg("Failed to close catalog")
		}
	}()

	sourcesConfig := a.config.Sources()
	factory := func(ctx context.Context, kind authority.Kind, delay time.Duration) (authority.Fetcher, error) {
		return sources.New(ctx, kind, delay, sourcesConfig)
	}

	rec, err := reconcile.New(settings, cat, factory,
		reconcile.WithSeed(seed),
		reconcile.WithObserver(m),
		reconcile.WithRecorder(m),
		reconcile.WithSnapshot(flags.CacheOut != ""),
	)
	if err != nil {
		return err
	}

	res, runErr := rec.Run(ctx, kind, limit)
	if res == nil {
		return runErr
	}

	if flags.XLSX {
		xlsxPath := strings.TrimSuffix(res.DiscrepancyPath, ".csv") + ".xlsx"
		if err := report.ExportXLSX(res.DiscrepancyPath, xlsxPath); err != nil {
			return errors.Join(runErr, err)
		}
		res.XLSXPath = xlsxPath
	}

	if flags.CacheOut != "" {
		if err := authority.SaveSnapshotFile(flags.CacheOut, kind, settings.Tag, res.Snapshot); err != nil {
			return errors.Join(runErr, err)
		}
		a.logger.Info().Str("path", flags.CacheOut).Int("authorities", len(res.Snapshot)).Msg("Saved authority cache")
	}

	if flags.MetricsFile != "" {
		if err := m.WriteTextfile(flags.MetricsFile); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if flags.Summary != "" {
		if err := output.SaveMarkdownSummary(flags.Summary, res); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if err := output.FormatResult(a.stdout, res, output.DetectFormat(string(format))); err != nil {
		return errors.Join(runErr, err)
	}

	return runErr
}
