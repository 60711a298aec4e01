package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/output"
	"github.com/rohankatakam/devpulse/internal/period"
	"github.com/rohankatakam/devpulse/internal/timeseries"
)

var (
	reportPeriod  periodFlags
	reportFormat  string
	reportOutFile string
	reportExport  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Per-developer summary for a period",
	Long: `Compute one summary row per developer for the selected period.

Named periods anchor on the most recent commit in the dataset, not on today.

Examples:
  # Last 30 days as a terminal table
  devpulse report --period last_30_days

  # Explicit range as CSV
  devpulse report --from 2024-01-01 --to 2024-03-31 --format csv

  # Write summaries for every period plus daily/weekly grids to output/
  devpulse report --export`,
	RunE: runReport,
}

func init() {
	reportPeriod.register(reportCmd, period.Last30Days)
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "output format: table, csv or json")
	reportCmd.Flags().StringVarP(&reportOutFile, "output", "o", "", "write to file instead of stdout")
	reportCmd.Flags().BoolVar(&reportExport, "export", false, "write CSV files for every period to the output directory")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := output.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	spec, err := reportPeriod.spec(engine.Location())
	if err != nil {
		return err
	}

	ds, err := loadDataset(ctx, engine, reportPeriod.repo)
	if err != nil {
		return err
	}

	if reportExport {
		return exportAll(ctx, engine, ds, cmd.OutOrStdout())
	}

	res, err := engine.Summaries(ds, spec)
	if err != nil {
		return err
	}
	return withOutput(cmd.OutOrStdout(), reportOutFile, func(w io.Writer) error {
		return output.NewFormatter(format).Summaries(res, w)
	})
}

// exportAll writes the full CSV bundle: one summary per named period, the
// complete daily and weekly grids, and every scored commit
func exportAll(ctx context.Context, engine *analytics.Engine, ds *analytics.Dataset, out io.Writer) error {
	summaries, err := engine.Overview(ctx, ds, period.Names())
	if err != nil {
		return err
	}
	daily, err := engine.TimeSeries(ds, period.Named(period.All), timeseries.Day)
	if err != nil {
		return err
	}
	weekly, err := engine.TimeSeries(ds, period.Named(period.All), timeseries.Week)
	if err != nil {
		return err
	}

	export := &output.Export{
		Summaries: summaries,
		Daily:     daily,
		Weekly:    weekly,
		Commits:   ds.Commits,
	}
	paths, err := export.WriteFiles(cfg.Output.Directory, logger)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(out, "✅ %s\n", p)
	}
	return nil
}

// withOutput runs fn against path, or against stdout when path is empty
func withOutput(stdout io.Writer, path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.FileSystemErrorf(err, "create %s", path)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.FileSystemErrorf(err, "close %s", path)
	}
	logger.WithField("path", path).Info("report written")
	return nil
}
