package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devpulse/internal/models"
)

func record(author string, ts time.Time, adds, dels int, quality float64) models.CommitRecord {
	return models.CommitRecord{
		SHA:           author + ts.Format(time.RFC3339),
		Author:        author,
		Repository:    "api",
		Timestamp:     ts,
		Additions:     adds,
		Deletions:     dels,
		TotalChanges:  adds + dels,
		QualityScore:  quality,
		MessageWords:  4,
		CommitHour:    ts.Hour(),
		CommitWeekday: ts.Weekday(),
	}
}

func TestSummarizeCountsAndRates(t *testing.T) {
	base := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC) // Monday
	commits := []models.CommitRecord{
		record("alice", base, 10, 2, 9.0),
		record("alice", base.Add(time.Hour), 5, 5, 6.0),
		record("alice", base.AddDate(0, 0, 2), 300, 300, 3.0),
		record("bob", base, 1, 0, 5.0),
	}
	commits[0].HasIssueRef = true
	commits[0].FollowsConvention = true
	commits[1].IsHotfix = true
	commits[2].IsMerge = true
	commits[2].Repository = "web"

	rows := Summarize(commits, DefaultOptions())
	require.Len(t, rows, 2)

	alice := rows[0]
	assert.Equal(t, "alice", alice.Developer)
	assert.Equal(t, 3, alice.TotalCommits)
	assert.Equal(t, 6.0, alice.AvgQualityScore)
	assert.Equal(t, 315, alice.TotalAdditions)
	assert.Equal(t, 307, alice.TotalDeletions)
	assert.Equal(t, 622, alice.TotalChanges)
	assert.Equal(t, 207.3, alice.AvgLinesPerCommit)
	assert.Equal(t, 1, alice.IssueRefs)
	assert.Equal(t, 33.3, alice.IssueRefRate)
	assert.Equal(t, 33.3, alice.ConventionalRate)
	assert.Equal(t, 33.3, alice.HotfixRate)
	assert.Equal(t, 33.3, alice.MergeRate)
	assert.Equal(t, 0.0, alice.RevertRate)
	assert.Equal(t, 1, alice.LargeCommits)
	assert.Equal(t, 2, alice.ActiveDays)
	assert.Equal(t, 1.5, alice.CommitsPerActiveDay)
	// active on Mon and Wed out of a 3-day span
	assert.Equal(t, 66.7, alice.ConsistencyScore)
	assert.Equal(t, 2, alice.RepositoriesCount)
	assert.Equal(t, 100.0, alice.BusinessHoursRate)
	assert.Equal(t, 0.0, alice.WeekendCommitRate)
	assert.Equal(t, base, alice.FirstCommit)
	assert.Equal(t, base.AddDate(0, 0, 2), alice.LastCommit)

	bob := rows[1]
	assert.Equal(t, "bob", bob.Developer)
	assert.Equal(t, 1, bob.TotalCommits)
	assert.Equal(t, 100.0, bob.ConsistencyScore)
}

func TestSummarizeScheduleRates(t *testing.T) {
	sat := time.Date(2024, 5, 4, 23, 30, 0, 0, time.UTC)
	mon := time.Date(2024, 5, 6, 3, 0, 0, 0, time.UTC)
	tue := time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC)
	rows := Summarize([]models.CommitRecord{
		record("carol", sat, 1, 1, 5),
		record("carol", mon, 1, 1, 5),
		record("carol", tue, 1, 1, 5),
		record("carol", tue.Add(time.Hour), 1, 1, 5),
	}, DefaultOptions())

	require.Len(t, rows, 1)
	assert.Equal(t, 25.0, rows[0].WeekendCommitRate)
	assert.Equal(t, 50.0, rows[0].LateNightCommitRate)
	assert.Equal(t, 50.0, rows[0].BusinessHoursRate)
}

func TestSummarizeEmpty(t *testing.T) {
	rows := Summarize(nil, DefaultOptions())
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSummarizeRateBounds(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var commits []models.CommitRecord
	for i := 0; i < 7; i++ {
		c := record("dave", base.Add(time.Duration(i)*time.Hour), i, i, float64(i))
		c.HasIssueRef = i%2 == 0
		c.IsRevert = i%3 == 0
		commits = append(commits, c)
	}

	for _, row := range Summarize(commits, DefaultOptions()) {
		for _, rate := range []float64{
			row.IssueRefRate, row.ConventionalRate, row.HotfixRate, row.MergeRate,
			row.RevertRate, row.BreakingChangeRate, row.LargeCommitRate,
			row.WeekendCommitRate, row.LateNightCommitRate, row.BusinessHoursRate,
		} {
			assert.GreaterOrEqual(t, rate, 0.0)
			assert.LessOrEqual(t, rate, 100.0)
		}
		assert.Equal(t, 57.1, row.IssueRefRate)
		assert.Equal(t, 42.9, row.RevertRate)
	}
}

func TestRateAndRatio(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.0, Rate(3, 0))
	assert.Equal(t, 100.0, Rate(3, 3))
	assert.Equal(t, 66.7, Rate(2, 3))
	assert.Equal(t, 0.0, Ratio(10, 0, 1))
	assert.Equal(t, 3.3, Ratio(10, 3, 1))
	assert.Equal(t, 3.33, Ratio(10, 3, 2))
}

func TestAccumulatorAvgQualityUndefinedWhenEmpty(t *testing.T) {
	var acc Accumulator
	avg, ok := acc.AvgQuality()
	assert.False(t, ok)
	assert.True(t, math.IsNaN(avg))
	assert.Equal(t, 0.0, acc.AvgLinesPerCommit())
}

func TestDayStartUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	ts := time.Date(2024, 5, 7, 2, 0, 0, 0, time.UTC) // May 6th 22:00 in New York
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, ny), DayStart(ts, ny))
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), DayStart(ts, time.UTC))
}
