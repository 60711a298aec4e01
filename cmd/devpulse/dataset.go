package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/config"
	"github.com/rohankatakam/devpulse/internal/period"
	"github.com/rohankatakam/devpulse/internal/storage"
)

// periodFlags are shared by every command that selects a window
type periodFlags struct {
	name string
	from string
	to   string
	repo string
}

func (p *periodFlags) register(cmd *cobra.Command, defaultName string) {
	cmd.Flags().StringVarP(&p.name, "period", "p", defaultName, "named period (last_7_days, last_30_days, last_90_days, last_6_months, last_year, current_month, current_quarter, all)")
	cmd.Flags().StringVar(&p.from, "from", "", "explicit range start (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&p.to, "to", "", "explicit range end, inclusive (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&p.repo, "repo", "", "restrict to one repository (owner/name)")
}

func (p *periodFlags) spec(loc *time.Location) (period.Spec, error) {
	return period.Parse(p.name, p.from, p.to, loc)
}

// newEngine builds the analytics engine from the loaded configuration
func newEngine() (*analytics.Engine, error) {
	if err := cfg.Validate(config.ValidationContextReport).Err(); err != nil {
		return nil, err
	}
	settings, err := cfg.Analytics()
	if err != nil {
		return nil, err
	}
	return analytics.NewEngine(settings)
}

// datasetLoader reads raw commits from the store and prepares them
func datasetLoader(engine *analytics.Engine, store storage.Store, repo string) func(ctx context.Context) (*analytics.Dataset, error) {
	return func(ctx context.Context) (*analytics.Dataset, error) {
		raw, err := store.ListCommits(ctx, repo)
		if err != nil {
			return nil, err
		}
		ds := engine.Prepare(raw)
		logDataQuality(ds.Report)
		return ds, nil
	}
}

// loadDataset opens the store, prepares every stored commit and closes it
func loadDataset(ctx context.Context, engine *analytics.Engine, repo string) (*analytics.Dataset, error) {
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return datasetLoader(engine, store, repo)(ctx)
}

func logDataQuality(r analytics.Report) {
	fields := logrus.Fields{
		"total":      r.Total,
		"accepted":   r.Accepted,
		"excluded":   r.Excluded,
		"duplicates": r.Duplicates,
		"rejected":   r.Rejected,
	}
	if r.Rejected == 0 {
		logger.WithFields(fields).Debug("dataset prepared")
		return
	}
	for reason, n := range r.RejectedByReason {
		fields["rejected_"+reason] = n
	}
	logger.WithFields(fields).Warn("malformed commit records were rejected")
	for _, sample := range r.Samples {
		logger.Debug(sample)
	}
}
