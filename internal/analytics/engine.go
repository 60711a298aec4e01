// Package analytics wires identity resolution, scoring, period selection,
// aggregation and grid building into one pipeline. Every query recomputes
// from the full prepared dataset; nothing is cached or patched between calls.
package analytics

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/devpulse/internal/aggregate"
	"github.com/rohankatakam/devpulse/internal/identity"
	"github.com/rohankatakam/devpulse/internal/models"
	"github.com/rohankatakam/devpulse/internal/period"
	"github.com/rohankatakam/devpulse/internal/scoring"
	"github.com/rohankatakam/devpulse/internal/timeseries"
)

const maxRejectionSamples = 20

// Settings is the explicit configuration passed into the engine
type Settings struct {
	Identity identity.Config
	Scoring  scoring.Config
	Summary  aggregate.Options
}

// DefaultSettings returns the default rubric, UTC calendar and no identity rules
func DefaultSettings() Settings {
	return Settings{
		Scoring: scoring.DefaultConfig(),
		Summary: aggregate.DefaultOptions(),
	}
}

// Engine is immutable after construction and safe for concurrent use
type Engine struct {
	settings Settings
	resolver *identity.Resolver
	scorer   *scoring.Scorer
}

// NewEngine validates settings and builds the resolver and scorer
func NewEngine(settings Settings) (*Engine, error) {
	scorer, err := scoring.NewScorer(settings.Scoring)
	if err != nil {
		return nil, err
	}
	if settings.Summary.Location == nil {
		settings.Summary.Location = time.UTC
	}
	return &Engine{
		settings: settings,
		resolver: identity.NewResolver(settings.Identity),
		scorer:   scorer,
	}, nil
}

// Location is the calendar used for days, weeks, months and hours
func (e *Engine) Location() *time.Location {
	return e.settings.Summary.Location
}

// Report accounts for every raw record handed to Prepare
type Report struct {
	Total            int            `json:"total"`
	Accepted         int            `json:"accepted"`
	Excluded         int            `json:"excluded"`
	Rejected         int            `json:"rejected"`
	Duplicates       int            `json:"duplicates"`
	RejectedByReason map[string]int `json:"rejected_by_reason"`
	Samples          []string       `json:"samples,omitempty"`
}

// Dataset is the resolved and scored commit set queries run against
type Dataset struct {
	Commits []models.CommitRecord
	Report  Report
}

// Prepare validates, resolves and scores raw commits. Malformed records are
// rejected one by one and counted; excluded identities and repeated shas
// (a commit mirrored into several repositories) are dropped and counted.
// Prepare never fails as a whole.
func (e *Engine) Prepare(raw []models.RawCommit) *Dataset {
	ds := &Dataset{
		Commits: make([]models.CommitRecord, 0, len(raw)),
		Report: Report{
			Total:            len(raw),
			RejectedByReason: make(map[string]int),
		},
	}

	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if err := ValidateRaw(r); err != nil {
			ds.Report.addRejection(reasonOf(err), err.Error())
			continue
		}
		if _, dup := seen[r.SHA]; dup {
			ds.Report.Duplicates++
			continue
		}
		seen[r.SHA] = struct{}{}

		author, ok := e.resolver.Resolve(r.Author)
		if !ok {
			ds.Report.Excluded++
			continue
		}

		ds.Commits = append(ds.Commits, e.Score(r, author))
		ds.Report.Accepted++
	}

	return ds
}

func (r *Report) addRejection(reason, sample string) {
	r.Rejected++
	r.RejectedByReason[reason]++
	if len(r.Samples) < maxRejectionSamples {
		r.Samples = append(r.Samples, sample)
	}
}

// Score builds the immutable CommitRecord for a validated raw commit whose
// author resolved to canonical
func (e *Engine) Score(r models.RawCommit, canonical string) models.CommitRecord {
	flags := e.scorer.Flags(r.Message)
	class := scoring.Classify(r.Message, r.TotalChanges, flags)
	local := r.Timestamp.In(e.Location())

	return models.CommitRecord{
		SHA:          r.SHA,
		RawAuthor:    r.Author,
		Author:       canonical,
		Repository:   r.Repository,
		Timestamp:    r.Timestamp,
		Message:      r.Message,
		Additions:    r.Additions,
		Deletions:    r.Deletions,
		TotalChanges: r.TotalChanges,

		HasIssueRef:       flags.HasIssueRef,
		FollowsConvention: flags.FollowsConvention,
		IsMerge:           flags.IsMerge,
		IsRevert:          flags.IsRevert,
		IsHotfix:          flags.IsHotfix,
		HasBreakingChange: flags.HasBreakingChange,
		QualityScore:      e.scorer.Score(r.Message),

		MessageWords:  scoring.WordCount(r.Message),
		CommitHour:    local.Hour(),
		CommitWeekday: local.Weekday(),

		FeatureType:    class.FeatureType,
		Complexity:     class.Complexity,
		Risk:           class.Risk,
		BusinessImpact: class.BusinessImpact,
	}
}

// SummaryResult is the summary table for one period
type SummaryResult struct {
	Period   string                          `json:"period"`
	Window   period.Window                   `json:"window"`
	Rows     []models.DeveloperPeriodSummary `json:"rows"`
	Commits  int                             `json:"commits"`
	Rejected int                             `json:"rejected"`
}

// TimeSeriesResult is the complete grid for one period and granularity
type TimeSeriesResult struct {
	Period      string                 `json:"period"`
	Granularity timeseries.Granularity `json:"granularity"`
	Window      period.Window          `json:"window"`
	Rows        []models.TimeBucketRow `json:"rows"`
	Rejected    int                    `json:"rejected"`
}

// Summaries computes per-developer summaries for spec
func (e *Engine) Summaries(ds *Dataset, spec period.Spec) (*SummaryResult, error) {
	selected, window, err := period.Select(ds.Commits, spec, e.Location())
	if err != nil {
		return nil, err
	}
	return &SummaryResult{
		Period:   spec.String(),
		Window:   window,
		Rows:     aggregate.Summarize(selected, e.settings.Summary),
		Commits:  len(selected),
		Rejected: ds.Report.Rejected,
	}, nil
}

// TimeSeries computes the gap-filled developer x bucket grid for spec
func (e *Engine) TimeSeries(ds *Dataset, spec period.Spec, g timeseries.Granularity) (*TimeSeriesResult, error) {
	selected, window, err := period.Select(ds.Commits, spec, e.Location())
	if err != nil {
		return nil, err
	}
	rows, err := timeseries.BuildGrid(selected, window, g, e.Location())
	if err != nil {
		return nil, err
	}
	return &TimeSeriesResult{
		Period:      spec.String(),
		Granularity: g,
		Window:      window,
		Rows:        rows,
		Rejected:    ds.Report.Rejected,
	}, nil
}

// Overview computes summaries for several named periods concurrently. Any
// unknown period name fails the whole call.
func (e *Engine) Overview(ctx context.Context, ds *Dataset, names []string) (map[string]*SummaryResult, error) {
	for _, name := range names {
		if err := period.Named(name).Validate(); err != nil {
			return nil, err
		}
	}

	var mu sync.Mutex
	results := make(map[string]*SummaryResult, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Summaries(ds, period.Named(name))
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
