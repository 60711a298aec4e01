// Package timeseries builds complete developer x time-bucket grids with
// zero-filled gaps, so that a day without commits is an explicit zero row
// rather than a missing one.
package timeseries

import (
	"sort"
	"strings"
	"time"

	"github.com/rohankatakam/devpulse/internal/aggregate"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
	"github.com/rohankatakam/devpulse/internal/period"
)

// Granularity is the bucket width of a grid
type Granularity string

const (
	Day  Granularity = "day"
	Week Granularity = "week"
)

// ParseGranularity accepts "day"/"daily" and "week"/"weekly"
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	default:
		return "", errors.ConfigErrorf("timeseries: unknown granularity %q (want day or week)", s)
	}
}

// BucketStart returns the start of the bucket containing t: midnight for
// days, midnight of the ISO week's Monday for weeks.
func BucketStart(t time.Time, g Granularity, loc *time.Location) time.Time {
	return bucketDate(t, g, loc).Start(loc)
}

// bucketDate returns the calendar day that opens the bucket containing t
func bucketDate(t time.Time, g Granularity, loc *time.Location) aggregate.Date {
	day := aggregate.DateOf(t, loc)
	if g != Week {
		return day
	}
	// Monday = 0 ... Sunday = 6
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDays(-offset)
}

func bucketDates(start, end time.Time, g Granularity, loc *time.Location) []aggregate.Date {
	if end.Before(start) {
		return nil
	}
	step := 1
	if g == Week {
		step = 7
	}

	last := bucketDate(end, g, loc)
	var out []aggregate.Date
	for d := bucketDate(start, g, loc); !last.Before(d); d = d.AddDays(step) {
		out = append(out, d)
	}
	return out
}

// Buckets returns every bucket start from the bucket containing start to
// the bucket containing end, inclusive. Each start is derived from its own
// calendar day, so a DST change never shifts the buckets that follow it.
func Buckets(start, end time.Time, g Granularity, loc *time.Location) []time.Time {
	dates := bucketDates(start, end, g, loc)
	if dates == nil {
		return nil
	}
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = d.Start(loc)
	}
	return out
}

type cellKey struct {
	developer string
	bucket    aggregate.Date
}

// BuildGrid returns one row per (developer, bucket) over the full product
// of developers present in commits and buckets spanning the window start
// to the latest commit. Empty buckets carry zero counts, zero rates and a
// nil AvgQuality. commits must already be filtered to window.
func BuildGrid(commits []models.CommitRecord, window period.Window, g Granularity, loc *time.Location) ([]models.TimeBucketRow, error) {
	if g != Day && g != Week {
		return nil, errors.ConfigErrorf("timeseries: unknown granularity %q", string(g))
	}
	if loc == nil {
		loc = time.UTC
	}
	if len(commits) == 0 {
		return []models.TimeBucketRow{}, nil
	}

	minTS, maxTS := period.Bounds(commits)
	start := minTS
	if !window.IsZero() && window.Start.Before(start) {
		start = window.Start
	}
	buckets := bucketDates(start, maxTS, g, loc)

	cells := make(map[cellKey]*aggregate.Accumulator)
	devSet := make(map[string]struct{})
	for _, c := range commits {
		devSet[c.Author] = struct{}{}
		key := cellKey{developer: c.Author, bucket: bucketDate(c.Timestamp, g, loc)}
		acc, ok := cells[key]
		if !ok {
			acc = &aggregate.Accumulator{}
			cells[key] = acc
		}
		acc.Add(c)
	}

	developers := make([]string, 0, len(devSet))
	for dev := range devSet {
		developers = append(developers, dev)
	}
	sort.Strings(developers)

	rows := make([]models.TimeBucketRow, 0, len(developers)*len(buckets))
	for _, dev := range developers {
		for _, b := range buckets {
			acc := cells[cellKey{developer: dev, bucket: b}]
			if acc == nil {
				acc = &aggregate.Accumulator{}
			}
			rows = append(rows, bucketRow(dev, b.Start(loc), *acc))
		}
	}
	return rows, nil
}

func bucketRow(dev string, bucket time.Time, acc aggregate.Accumulator) models.TimeBucketRow {
	row := models.TimeBucketRow{
		Developer:   dev,
		BucketStart: bucket,

		Commits:      acc.Commits,
		LinesAdded:   acc.Additions,
		LinesDeleted: acc.Deletions,
		TotalChanges: acc.TotalChanges,

		IssueRefs:           acc.IssueRefs,
		ConventionalCommits: acc.ConventionalCommits,
		Hotfixes:            acc.Hotfixes,
		Merges:              acc.Merges,
		Reverts:             acc.Reverts,
		BreakingChanges:     acc.BreakingChanges,

		IssueRefRate:      aggregate.Rate(acc.IssueRefs, acc.Commits),
		ConventionalRate:  aggregate.Rate(acc.ConventionalCommits, acc.Commits),
		HotfixRate:        aggregate.Rate(acc.Hotfixes, acc.Commits),
		MergeRate:         aggregate.Rate(acc.Merges, acc.Commits),
		RevertRate:        aggregate.Rate(acc.Reverts, acc.Commits),
		BreakingRate:      aggregate.Rate(acc.BreakingChanges, acc.Commits),
		AvgLinesPerCommit: acc.AvgLinesPerCommit(),
	}
	if avg, ok := acc.AvgQuality(); ok {
		rounded := aggregate.Round(avg, 2)
		row.AvgQuality = &rounded
	}
	return row
}
