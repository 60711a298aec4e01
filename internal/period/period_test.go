package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

func commitAt(sha string, ts time.Time) models.CommitRecord {
	return models.CommitRecord{SHA: sha, Author: "developer1", Timestamp: ts}
}

func shas(commits []models.CommitRecord) []string {
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.SHA)
	}
	return out
}

// dataset spans 2024-01-15 .. 2024-05-20 12:00 UTC
func dataset() []models.CommitRecord {
	return []models.CommitRecord{
		commitAt("jan15", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)),
		commitAt("mar31", time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)),
		commitAt("apr01", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
		commitAt("apr25", time.Date(2024, 4, 25, 9, 0, 0, 0, time.UTC)),
		commitAt("may01", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
		commitAt("may13", time.Date(2024, 5, 13, 12, 0, 0, 0, time.UTC)),
		commitAt("may13b", time.Date(2024, 5, 13, 11, 59, 59, 0, time.UTC)),
		commitAt("may20", time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)),
	}
}

func TestSelectNamedPeriods(t *testing.T) {
	tests := []struct {
		period string
		want   []string
	}{
		{All, []string{"jan15", "mar31", "apr01", "apr25", "may01", "may13", "may13b", "may20"}},
		// lower bound 2024-05-13 12:00 is inclusive
		{Last7Days, []string{"may13", "may20"}},
		{Last30Days, []string{"apr25", "may01", "may13", "may13b", "may20"}},
		{Last90Days, []string{"mar31", "apr01", "apr25", "may01", "may13", "may13b", "may20"}},
		{Last6Months, []string{"jan15", "mar31", "apr01", "apr25", "may01", "may13", "may13b", "may20"}},
		{LastYear, []string{"jan15", "mar31", "apr01", "apr25", "may01", "may13", "may13b", "may20"}},
		{CurrentMonth, []string{"may01", "may13", "may13b", "may20"}},
		{CurrentQuarter, []string{"apr01", "apr25", "may01", "may13", "may13b", "may20"}},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, window, err := Select(dataset(), Named(tt.period), time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shas(got))
			assert.Equal(t, time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC), window.End)
		})
	}
}

func TestSelectAnchorsOnDatasetNotWallClock(t *testing.T) {
	old := []models.CommitRecord{
		commitAt("a", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)),
		commitAt("b", time.Date(2019, 6, 5, 0, 0, 0, 0, time.UTC)),
	}
	got, _, err := Select(old, Named(Last7Days), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, shas(got))
}

func TestSelectUnknownPeriod(t *testing.T) {
	_, _, err := Select(dataset(), Named("last_week"), time.UTC)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))

	// empty input must not mask the configuration error
	_, _, err = Select(nil, Named("last_week"), time.UTC)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestSelectEmptyInput(t *testing.T) {
	got, window, err := Select(nil, Named(Last30Days), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, window.IsZero())
}

func TestSelectExplicitRange(t *testing.T) {
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	got, window, err := Select(dataset(), Between(from, to), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"apr01", "apr25", "may01"}, shas(got))
	assert.Equal(t, from, window.Start)
	assert.Equal(t, to, window.End)
}

func TestExplicitRangeValidation(t *testing.T) {
	from := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	err := Between(from, to).Validate()
	assert.True(t, errors.IsConfig(err))

	err = Spec{From: from}.Validate()
	assert.True(t, errors.IsConfig(err))
}

func TestCurrentMonthUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-05-31 20:00 UTC is already June 1st in Tokyo
	commits := []models.CommitRecord{
		commitAt("may31", time.Date(2024, 5, 31, 14, 0, 0, 0, time.UTC)),
		commitAt("jun01", time.Date(2024, 5, 31, 20, 0, 0, 0, time.UTC)),
	}

	got, _, err := Select(commits, Named(CurrentMonth), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"may31", "jun01"}, shas(got))

	got, window, err := Select(commits, Named(CurrentMonth), tokyo)
	require.NoError(t, err)
	assert.Equal(t, []string{"jun01"}, shas(got))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, tokyo), window.Start)
}

func TestCurrentQuarterStart(t *testing.T) {
	for month, want := range map[time.Month]time.Month{
		time.January: time.January, time.March: time.January,
		time.April: time.April, time.June: time.April,
		time.August: time.July, time.December: time.October,
	} {
		maxTS := time.Date(2024, month, 15, 0, 0, 0, 0, time.UTC)
		w, err := Resolve(Named(CurrentQuarter), maxTS, maxTS, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, want, 1, 0, 0, 0, 0, time.UTC), w.Start, "month %s", month)
	}
}

func TestSpecString(t *testing.T) {
	assert.Equal(t, All, Spec{}.String())
	assert.Equal(t, Last7Days, Named(Last7Days).String())
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-04-01T00:00:00Z..2024-04-02T00:00:00Z", Between(from, from.AddDate(0, 0, 1)).String())
}

func TestParse(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	spec, err := Parse(Last30Days, "", "", ny)
	require.NoError(t, err)
	assert.Equal(t, Named(Last30Days), spec)

	spec, err = Parse("ignored", "2024-03-01", "2024-03-31", ny)
	require.NoError(t, err)
	assert.True(t, spec.IsExplicit())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, ny), spec.From)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999999999, ny), spec.To)

	spec, err = Parse("", "2024-03-01T10:00:00Z", "2024-03-02T10:00:00Z", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), spec.From.UTC())

	_, err = Parse("last_week", "", "", nil)
	assert.True(t, errors.IsConfig(err))

	_, err = Parse("", "2024-03-01", "", nil)
	assert.True(t, errors.IsConfig(err))

	_, err = Parse("", "yesterday", "2024-03-01", nil)
	assert.True(t, errors.IsConfig(err))
}

func TestParseDateOnSkippedMidnight(t *testing.T) {
	havana, err := time.LoadLocation("America/Havana")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	// 2024-03-10 starts at 01:00 local
	spec, err := Parse("", "2024-03-10", "2024-03-10", havana)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC), spec.From.UTC())
	assert.Equal(t, 10, spec.From.In(havana).Day())
	assert.Equal(t, time.Date(2024, 3, 11, 3, 59, 59, 999999999, time.UTC), spec.To.UTC())

	commits := []models.CommitRecord{
		commitAt("before", time.Date(2024, 3, 9, 23, 30, 0, 0, havana)),
		commitAt("inside", time.Date(2024, 3, 10, 1, 0, 0, 0, havana)),
	}
	selected, _, err := Select(commits, spec, havana)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "inside", selected[0].SHA)
}
