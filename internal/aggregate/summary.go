// Package aggregate reduces already resolved, scored and period-filtered
// commit records into one summary row per developer.
package aggregate

import (
	"sort"
	"time"

	"github.com/rohankatakam/devpulse/internal/models"
)

// Options controls the supplementary, schedule-based summary fields
type Options struct {
	// Location defines calendar days and hours. Defaults to UTC.
	Location             *time.Location
	LargeCommitThreshold int
	WeekendDays          []time.Weekday
	LateNightStart       int // hour >= LateNightStart counts as late night
	LateNightEnd         int // hour <= LateNightEnd counts as late night
	BusinessHoursStart   int
	BusinessHoursEnd     int
}

// DefaultOptions returns UTC days, a 500 line large-commit threshold,
// Saturday/Sunday weekends, 22:00-06:00 late nights and 09:00-17:00 business hours
func DefaultOptions() Options {
	return Options{
		Location:             time.UTC,
		LargeCommitThreshold: 500,
		WeekendDays:          []time.Weekday{time.Saturday, time.Sunday},
		LateNightStart:       22,
		LateNightEnd:         6,
		BusinessHoursStart:   9,
		BusinessHoursEnd:     17,
	}
}

type developerStats struct {
	Accumulator

	largeCommits  int
	weekend       int
	lateNight     int
	businessHours int
	words         int
	days          map[Date]struct{}
	repositories  map[string]struct{}
	first         time.Time
	last          time.Time
}

// Summarize returns one row per canonical author present in commits.
// Developers without commits produce no row. Rows are sorted by developer
// name for stable output; callers re-sort for display.
func Summarize(commits []models.CommitRecord, opts Options) []models.DeveloperPeriodSummary {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	weekend := make(map[time.Weekday]bool, len(opts.WeekendDays))
	for _, d := range opts.WeekendDays {
		weekend[d] = true
	}

	byDev := make(map[string]*developerStats)
	for _, c := range commits {
		s, ok := byDev[c.Author]
		if !ok {
			s = &developerStats{
				days:         make(map[Date]struct{}),
				repositories: make(map[string]struct{}),
				first:        c.Timestamp,
				last:         c.Timestamp,
			}
			byDev[c.Author] = s
		}

		s.Add(c)
		s.words += c.MessageWords
		if c.Additions+c.Deletions > opts.LargeCommitThreshold {
			s.largeCommits++
		}
		if weekend[c.CommitWeekday] {
			s.weekend++
		}
		if c.CommitHour >= opts.LateNightStart || c.CommitHour <= opts.LateNightEnd {
			s.lateNight++
		}
		if c.CommitHour >= opts.BusinessHoursStart && c.CommitHour <= opts.BusinessHoursEnd {
			s.businessHours++
		}
		s.days[DateOf(c.Timestamp, opts.Location)] = struct{}{}
		if c.Repository != "" {
			s.repositories[c.Repository] = struct{}{}
		}
		if c.Timestamp.Before(s.first) {
			s.first = c.Timestamp
		}
		if c.Timestamp.After(s.last) {
			s.last = c.Timestamp
		}
	}

	rows := make([]models.DeveloperPeriodSummary, 0, len(byDev))
	for dev, s := range byDev {
		rows = append(rows, s.row(dev, opts.Location))
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Developer < rows[j].Developer
	})
	return rows
}

func (s *developerStats) row(dev string, loc *time.Location) models.DeveloperPeriodSummary {
	total := s.Commits
	avgQuality, _ := s.AvgQuality()

	// consistency: share of calendar days between first and last commit
	// that saw at least one commit
	span := DateOf(s.first, loc).DaysUntil(DateOf(s.last, loc)) + 1

	return models.DeveloperPeriodSummary{
		Developer:       dev,
		TotalCommits:    total,
		AvgQualityScore: Round(avgQuality, 2),

		TotalAdditions:        s.Additions,
		TotalDeletions:        s.Deletions,
		TotalChanges:          s.TotalChanges,
		AvgLinesPerCommit:     s.AvgLinesPerCommit(),
		AvgAdditionsPerCommit: Ratio(s.Additions, total, 1),
		AvgDeletionsPerCommit: Ratio(s.Deletions, total, 1),

		IssueRefs:            s.IssueRefs,
		ConventionalCommits:  s.ConventionalCommits,
		Hotfixes:             s.Hotfixes,
		Merges:               s.Merges,
		Reverts:              s.Reverts,
		BreakingChanges:      s.BreakingChanges,
		LargeCommits:         s.largeCommits,
		WeekendCommits:       s.weekend,
		LateNightCommits:     s.lateNight,
		BusinessHoursCommits: s.businessHours,

		IssueRefRate:        Rate(s.IssueRefs, total),
		ConventionalRate:    Rate(s.ConventionalCommits, total),
		HotfixRate:          Rate(s.Hotfixes, total),
		MergeRate:           Rate(s.Merges, total),
		RevertRate:          Rate(s.Reverts, total),
		BreakingChangeRate:  Rate(s.BreakingChanges, total),
		LargeCommitRate:     Rate(s.largeCommits, total),
		WeekendCommitRate:   Rate(s.weekend, total),
		LateNightCommitRate: Rate(s.lateNight, total),
		BusinessHoursRate:   Rate(s.businessHours, total),

		ActiveDays:          len(s.days),
		CommitsPerActiveDay: Ratio(total, len(s.days), 2),
		AvgWordsPerMessage:  Ratio(s.words, total, 2),
		ConsistencyScore:    Rate(len(s.days), span),
		RepositoriesCount:   len(s.repositories),

		FirstCommit: s.first,
		LastCommit:  s.last,
	}
}

// DayStart returns the first instant of the calendar day containing t in loc
func DayStart(t time.Time, loc *time.Location) time.Time {
	return DateOf(t, loc).Start(loc)
}
