package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/devpulse/internal/output"
	"github.com/rohankatakam/devpulse/internal/period"
	"github.com/rohankatakam/devpulse/internal/timeseries"
)

var (
	tsPeriod      periodFlags
	tsGranularity string
	tsFormat      string
	tsOutFile     string
)

var timeseriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "Gap-filled developer x day or week grid",
	Long: `Build a complete time grid: one row for every developer and every day (or
ISO week starting Monday) in the period, including buckets without commits.

Examples:
  devpulse timeseries --period last_90_days --granularity week
  devpulse timeseries --period all --format csv -o daily.csv`,
	RunE: runTimeSeries,
}

func init() {
	tsPeriod.register(timeseriesCmd, period.Last30Days)
	timeseriesCmd.Flags().StringVarP(&tsGranularity, "granularity", "g", "day", "bucket width: day or week")
	timeseriesCmd.Flags().StringVarP(&tsFormat, "format", "f", "table", "output format: table, csv or json")
	timeseriesCmd.Flags().StringVarP(&tsOutFile, "output", "o", "", "write to file instead of stdout")
}

func runTimeSeries(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := output.ParseFormat(tsFormat)
	if err != nil {
		return err
	}
	g, err := timeseries.ParseGranularity(tsGranularity)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	spec, err := tsPeriod.spec(engine.Location())
	if err != nil {
		return err
	}

	ds, err := loadDataset(ctx, engine, tsPeriod.repo)
	if err != nil {
		return err
	}
	res, err := engine.TimeSeries(ds, spec, g)
	if err != nil {
		return err
	}
	return withOutput(cmd.OutOrStdout(), tsOutFile, func(w io.Writer) error {
		return output.NewFormatter(format).TimeSeries(res, w)
	})
}
