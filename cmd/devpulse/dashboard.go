package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/devpulse/internal/dashboard"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/period"
	"github.com/rohankatakam/devpulse/internal/timeseries"
)

var (
	dashPeriod  periodFlags
	dashOutFile string
	dashTitle   string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render an HTML dashboard of developer activity",
	RunE:  runDashboard,
}

func init() {
	dashPeriod.register(dashboardCmd, period.Last90Days)
	dashboardCmd.Flags().StringVarP(&dashOutFile, "output", "o", "", "HTML file to write (default: <output.directory>/dashboard.html)")
	dashboardCmd.Flags().StringVar(&dashTitle, "title", "", "page title")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	spec, err := dashPeriod.spec(engine.Location())
	if err != nil {
		return err
	}
	ds, err := loadDataset(ctx, engine, dashPeriod.repo)
	if err != nil {
		return err
	}

	summaries, err := engine.Summaries(ds, spec)
	if err != nil {
		return err
	}
	daily, err := engine.TimeSeries(ds, spec, timeseries.Day)
	if err != nil {
		return err
	}
	weekly, err := engine.TimeSeries(ds, spec, timeseries.Week)
	if err != nil {
		return err
	}

	path := dashOutFile
	if path == "" {
		path = filepath.Join(cfg.Output.Directory, "dashboard.html")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.FileSystemErrorf(err, "create %s", filepath.Dir(path))
	}

	title := dashTitle
	if title == "" && cfg.GitHub.Org != "" {
		title = cfg.GitHub.Org + " developer activity"
	}
	return withOutput(cmd.OutOrStdout(), path, func(w io.Writer) error {
		return dashboard.Render(w, dashboard.Data{
			Title:     title,
			Summaries: summaries,
			Daily:     daily,
			Weekly:    weekly,
		})
	})
}
