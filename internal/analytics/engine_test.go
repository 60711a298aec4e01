package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/identity"
	"github.com/rohankatakam/devpulse/internal/models"
	"github.com/rohankatakam/devpulse/internal/period"
	"github.com/rohankatakam/devpulse/internal/timeseries"
)

func raw(sha, author string, ts time.Time, msg string, adds, dels int) models.RawCommit {
	return models.RawCommit{
		SHA:          sha,
		Author:       author,
		Repository:   "acme/api",
		Timestamp:    ts,
		Message:      msg,
		Additions:    adds,
		Deletions:    dels,
		TotalChanges: adds + dels,
	}
}

func newEngine(t *testing.T, ident identity.Config) *Engine {
	t.Helper()
	settings := DefaultSettings()
	settings.Identity = ident
	engine, err := NewEngine(settings)
	require.NoError(t, err)
	return engine
}

func TestPrepareMergesAliases(t *testing.T) {
	engine := newEngine(t, identity.Config{
		Aliases: map[string]string{
			"Developer One":    "developer1",
			"dev1@company.com": "developer1",
		},
	})
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	ds := engine.Prepare([]models.RawCommit{
		raw("a1", "Developer One", base, "feat: add login", 10, 2),
		raw("a2", "dev1@company.com", base.Add(time.Hour), "fix: handle nil session", 3, 1),
	})

	require.Len(t, ds.Commits, 2)
	assert.Equal(t, 2, ds.Report.Accepted)

	res, err := engine.Summaries(ds, period.Named(period.All))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "developer1", res.Rows[0].Developer)
	assert.Equal(t, 2, res.Rows[0].TotalCommits)
	assert.Equal(t, 16, res.Rows[0].TotalChanges)
}

func TestPrepareExcludesBots(t *testing.T) {
	engine := newEngine(t, identity.Config{
		Excluded: []string{"dependabot[bot]", "ci-bot"},
		Aliases:  map[string]string{"Release Bot": "ci-bot"},
	})
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	ds := engine.Prepare([]models.RawCommit{
		raw("a1", "alice", base, "feat: add login", 10, 2),
		raw("b1", "dependabot[bot]", base, "chore(deps): bump x", 1, 1),
		raw("b2", "Release Bot", base, "chore: release v1.2.0", 4, 0),
	})

	assert.Equal(t, 3, ds.Report.Total)
	assert.Equal(t, 1, ds.Report.Accepted)
	assert.Equal(t, 2, ds.Report.Excluded)
	assert.Equal(t, 0, ds.Report.Rejected)
	for _, c := range ds.Commits {
		assert.Equal(t, "alice", c.Author)
	}
}

func TestPrepareRejectsMalformedRecords(t *testing.T) {
	engine := newEngine(t, identity.Config{})
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	mismatch := raw("m1", "alice", base, "docs: readme", 3, 3)
	mismatch.TotalChanges = 7

	ds := engine.Prepare([]models.RawCommit{
		raw("ok", "alice", base, "feat: add login", 10, 2),
		raw("", "alice", base, "feat: no sha", 1, 0),
		raw("n1", "", base, "feat: no author", 1, 0),
		raw("t1", "alice", time.Time{}, "feat: no time", 1, 0),
		raw("s1", "alice", base, "fix: negative", -1, 0),
		mismatch,
	})

	assert.Equal(t, 6, ds.Report.Total)
	assert.Equal(t, 1, ds.Report.Accepted)
	assert.Equal(t, 5, ds.Report.Rejected)
	assert.Equal(t, map[string]int{
		ReasonMissingSHA:       1,
		ReasonMissingAuthor:    1,
		ReasonMissingTimestamp: 1,
		ReasonNegativeSize:     1,
		ReasonTotalMismatch:    1,
	}, ds.Report.RejectedByReason)
	assert.Len(t, ds.Report.Samples, 5)
	assert.Equal(t, ds.Report.Total, ds.Report.Accepted+ds.Report.Excluded+ds.Report.Rejected+ds.Report.Duplicates)
}

func TestPrepareScoresEmptyMessage(t *testing.T) {
	engine := newEngine(t, identity.Config{})
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	ds := engine.Prepare([]models.RawCommit{
		raw("f1", "alice", base, "fix", 1, 0),
		raw("e1", "alice", base.Add(time.Hour), "", 1, 0),
	})
	assert.Equal(t, 2, ds.Report.Accepted)
	assert.Zero(t, ds.Report.Rejected)

	res, err := engine.Summaries(ds, period.Named(period.All))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 2, res.Rows[0].TotalCommits)
	assert.Equal(t, 2, res.Commits)
}

func TestPrepareCountsMirroredCommitsAsDuplicates(t *testing.T) {
	engine := newEngine(t, identity.Config{})
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	mirrored := raw("ok", "alice", base, "feat: add login", 10, 2)
	mirrored.Repository = "acme/mirror"

	ds := engine.Prepare([]models.RawCommit{
		raw("ok", "alice", base, "feat: add login", 10, 2),
		mirrored,
		raw("", "alice", base, "feat: no sha", 1, 0),
	})

	assert.Equal(t, 3, ds.Report.Total)
	assert.Equal(t, 1, ds.Report.Accepted)
	assert.Equal(t, 1, ds.Report.Duplicates)
	assert.Equal(t, 1, ds.Report.Rejected)
	assert.Equal(t, map[string]int{ReasonMissingSHA: 1}, ds.Report.RejectedByReason)
	assert.Len(t, ds.Report.Samples, 1)
	assert.Equal(t, ds.Report.Total, ds.Report.Accepted+ds.Report.Excluded+ds.Report.Rejected+ds.Report.Duplicates)
}

func TestScoreDerivesLocalFields(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	settings := DefaultSettings()
	settings.Summary.Location = loc
	engine, err := NewEngine(settings)
	require.NoError(t, err)

	// 03:30 UTC Saturday is 22:30 Friday in New York
	ts := time.Date(2024, 3, 9, 3, 30, 0, 0, time.UTC)
	rec := engine.Score(raw("a1", "alice", ts, "feat(auth): add OAuth login (#123)", 5, 1), "alice")

	assert.Equal(t, 22, rec.CommitHour)
	assert.Equal(t, time.Friday, rec.CommitWeekday)
	assert.Equal(t, 9.0, rec.QualityScore)
	assert.True(t, rec.HasIssueRef)
	assert.True(t, rec.FollowsConvention)
	assert.Equal(t, 5, rec.MessageWords)
	assert.Equal(t, "alice", rec.RawAuthor)
}

func TestNewEngineRejectsBadPattern(t *testing.T) {
	settings := DefaultSettings()
	settings.Scoring.ConventionalPattern = "feat(("
	_, err := NewEngine(settings)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestSummariesUnknownPeriod(t *testing.T) {
	engine := newEngine(t, identity.Config{})
	ds := engine.Prepare(nil)

	_, err := engine.Summaries(ds, period.Named("last_fortnight"))
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))

	_, err = engine.TimeSeries(ds, period.Named("last_fortnight"), timeseries.Day)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestSummariesEmptyDataset(t *testing.T) {
	engine := newEngine(t, identity.Config{})
	ds := engine.Prepare(nil)

	res, err := engine.Summaries(ds, period.Named(period.Last30Days))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.Commits)
}

func TestTimeSeriesZeroFillsAndConserves(t *testing.T) {
	engine := newEngine(t, identity.Config{})
	day1 := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	ds := engine.Prepare([]models.RawCommit{
		raw("a1", "alice", day1, "feat: add login", 10, 2),
		raw("a2", "alice", day1.AddDate(0, 0, 2), "fix: handle nil session", 3, 1),
		raw("b1", "bob", day1.AddDate(0, 0, 1), "docs: describe setup", 4, 0),
	})

	ts, err := engine.TimeSeries(ds, period.Named(period.All), timeseries.Day)
	require.NoError(t, err)
	require.Len(t, ts.Rows, 6)

	summary, err := engine.Summaries(ds, period.Named(period.All))
	require.NoError(t, err)

	commits := map[string]int{}
	changes := map[string]int{}
	for _, row := range ts.Rows {
		commits[row.Developer] += row.Commits
		changes[row.Developer] += row.TotalChanges
		if row.Commits == 0 {
			assert.Nil(t, row.AvgQuality)
		}
	}
	for _, row := range summary.Rows {
		assert.Equal(t, row.TotalCommits, commits[row.Developer], row.Developer)
		assert.Equal(t, row.TotalChanges, changes[row.Developer], row.Developer)
	}
}

func TestOverview(t *testing.T) {
	engine := newEngine(t, identity.Config{})
	latest := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	ds := engine.Prepare([]models.RawCommit{
		raw("a1", "alice", latest, "feat: add login", 10, 2),
		raw("a2", "alice", latest.AddDate(0, 0, -20), "fix: handle nil session", 3, 1),
		raw("a3", "alice", latest.AddDate(0, 0, -200), "chore: tidy", 1, 1),
	})

	res, err := engine.Overview(context.Background(), ds, []string{period.Last7Days, period.Last30Days, period.All})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, 1, res[period.Last7Days].Commits)
	assert.Equal(t, 2, res[period.Last30Days].Commits)
	assert.Equal(t, 3, res[period.All].Commits)

	_, err = engine.Overview(context.Background(), ds, []string{period.All, "bogus"})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}
