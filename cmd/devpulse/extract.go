package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/devpulse/internal/config"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/github"
	"github.com/rohankatakam/devpulse/internal/models"
	"github.com/rohankatakam/devpulse/internal/storage"
)

var (
	extractOrg         string
	extractSince       string
	extractDays        int
	extractRepos       []string
	extractNoStats     bool
	extractIncremental bool
	extractAPIURL      string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch an organization's commit history from GitHub into the commit store",
	Long: `Fetch every commit of every repository in a GitHub organization and store it.

Per-commit line counts come from the commit detail endpoint, one request per
commit; they are cached on disk by repository and sha so re-runs only fetch
new commits.

Token lookup order: GITHUB_TOKEN / GH_TOKEN, OS keychain, config file,
interactive prompt. A token is optional for public organizations.

Examples:
  devpulse extract --org acme
  devpulse extract --org acme --since 2024-01-01 --repo api --repo web
  devpulse extract --org acme --incremental`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractOrg, "org", "", "GitHub organization (default: github.org from config)")
	extractCmd.Flags().StringVar(&extractSince, "since", "", "only commits after this date (YYYY-MM-DD)")
	extractCmd.Flags().IntVar(&extractDays, "days", 0, "only commits from the last N days (default: github.analysis_days)")
	extractCmd.Flags().StringSliceVar(&extractRepos, "repo", nil, "only these repositories (repeatable)")
	extractCmd.Flags().BoolVar(&extractNoStats, "no-stats", false, "skip per-commit line counts")
	extractCmd.Flags().BoolVar(&extractIncremental, "incremental", false, "start from the previous extract of this organization")
	extractCmd.Flags().StringVar(&extractAPIURL, "api-url", "", "GitHub Enterprise API URL (overrides github.api_url)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if extractOrg != "" {
		cfg.GitHub.Org = extractOrg
	}
	if extractDays > 0 {
		cfg.GitHub.AnalysisDays = extractDays
	}
	if extractNoStats {
		cfg.GitHub.IncludeStats = false
	}

	result := cfg.Validate(config.ValidationContextExtract)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if err := result.Err(); err != nil {
		return err
	}

	if extractAPIURL != "" {
		cfg.GitHub.APIURL = extractAPIURL
	}
	token, source, err := config.NewCredentialManager(logger).ForAPI(cfg.GitHub.APIURL).GitHubToken(cfg)
	if err != nil {
		return err
	}
	logger.WithField("source", source).Debug("resolved GitHub token")

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var cache *github.StatsCache
	if cfg.GitHub.IncludeStats {
		cache, err = github.OpenStatsCache(cfg.Cache.Directory)
		if err != nil {
			// the cache only saves API calls
			logger.WithError(err).Warn("commit stats cache unavailable, fetching every commit")
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	client, err := github.NewClient(github.Options{
		Token:      token,
		RateLimit:  cfg.GitHub.RateLimit,
		MaxWorkers: cfg.GitHub.MaxWorkers,
		BaseURL:    cfg.GitHub.APIURL,
		Cache:      cache,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	since, err := extractStart(ctx, store)
	if err != nil {
		return err
	}

	run := &models.ExtractRun{
		ID:        uuid.New().String(),
		Org:       cfg.GitHub.Org,
		StartedAt: time.Now().UTC(),
	}
	logger.WithFields(logrus.Fields{
		"run":   run.ID,
		"org":   run.Org,
		"since": since.Format(time.RFC3339),
		"stats": cfg.GitHub.IncludeStats,
	}).Info("starting extract")

	fetched, err := client.FetchOrg(ctx, github.FetchOptions{
		Org:             cfg.GitHub.Org,
		Since:           since,
		IncludePrivate:  cfg.GitHub.IncludePrivate,
		ExcludeArchived: cfg.GitHub.ExcludeArchived,
		IncludeStats:    cfg.GitHub.IncludeStats,
		Repositories:    extractRepos,
	})
	if err != nil {
		return err
	}

	for i := range fetched.Repositories {
		if _, failed := fetched.Failed[fetched.Repositories[i].FullName]; !failed {
			fetched.Repositories[i].LastExtracted = run.StartedAt
		}
	}
	if err := store.SaveRepositories(ctx, fetched.Repositories); err != nil {
		return err
	}
	saved, err := store.SaveCommits(ctx, fetched.Commits)
	if err != nil {
		return err
	}

	run.FinishedAt = time.Now().UTC()
	run.Repositories = len(fetched.Repositories)
	run.Failed = len(fetched.Failed)
	run.Commits = saved
	if err := store.SaveExtractRun(ctx, run); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✅ Extracted %d commits from %d repositories of %s in %s\n",
		saved, run.Repositories-run.Failed, run.Org, run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	if len(fetched.Failed) > 0 {
		names := make([]string, 0, len(fetched.Failed))
		for name := range fetched.Failed {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(out, "⚠️  %d repositories failed:\n", len(names))
		for _, name := range names {
			fmt.Fprintf(out, "   %s: %v\n", name, fetched.Failed[name])
		}
	}
	return nil
}

// extractStart picks the lower bound of the fetch: --since, then the
// previous run with --incremental, then github.analysis_days
func extractStart(ctx context.Context, store storage.Store) (time.Time, error) {
	if extractSince != "" {
		t, err := time.Parse("2006-01-02", extractSince)
		if err != nil {
			return time.Time{}, errors.WrapConfig(err, "invalid --since %q", extractSince)
		}
		return t, nil
	}
	if extractIncremental {
		last, err := store.LatestExtractRun(ctx, cfg.GitHub.Org)
		switch {
		case err == nil:
			return last.StartedAt, nil
		case stderrors.Is(err, storage.ErrNotFound):
			logger.Info("no previous extract, running a full one")
		default:
			return time.Time{}, err
		}
	}
	return time.Now().UTC().AddDate(0, 0, -cfg.GitHub.AnalysisDays), nil
}
