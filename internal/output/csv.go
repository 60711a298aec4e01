package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/models"
)

const dateLayout = "2006-01-02"

var summaryHeader = []string{
	"developer", "total_commits", "avg_quality_score",
	"total_lines_added", "total_lines_deleted", "total_line_changes",
	"avg_lines_per_commit", "avg_additions_per_commit", "avg_deletions_per_commit",
	"issue_references", "conventional_commits", "hotfixes", "merge_commits", "reverts", "breaking_changes",
	"large_commits", "weekend_commits", "late_night_commits", "business_hours_commits",
	"issue_ref_rate", "conventional_rate", "hotfix_rate", "merge_rate", "revert_rate", "breaking_change_rate",
	"large_commit_rate", "weekend_commit_rate", "late_night_commit_rate", "business_hours_rate",
	"active_days", "commits_per_active_day", "avg_words_per_message", "consistency_score", "repositories_count",
	"first_commit", "last_commit",
}

var bucketHeader = []string{
	"developer", "date", "commits", "lines_added", "lines_deleted", "total_changes", "avg_quality",
	"issue_refs", "conventional_commits", "hotfixes", "merges", "reverts", "breaking_changes",
	"issue_ref_rate", "conventional_rate", "hotfix_rate", "merge_rate", "revert_rate", "breaking_rate",
	"avg_lines_per_commit",
}

var commitHeader = []string{
	"sha", "author", "raw_author", "repository", "timestamp", "message",
	"additions", "deletions", "total_changes",
	"has_issue_ref", "follows_convention", "is_merge", "is_revert", "is_hotfix", "has_breaking_change",
	"quality_score", "message_words", "commit_hour", "commit_weekday",
	"feature_type", "complexity", "risk", "business_impact",
}

// CSVFormatter writes one header row followed by one row per record
type CSVFormatter struct{}

func (f *CSVFormatter) Summaries(res *analytics.SummaryResult, w io.Writer) error {
	rows := make([][]string, 0, len(res.Rows))
	for _, s := range res.Rows {
		rows = append(rows, []string{
			s.Developer, itoa(s.TotalCommits), ftoa(s.AvgQualityScore),
			itoa(s.TotalAdditions), itoa(s.TotalDeletions), itoa(s.TotalChanges),
			ftoa(s.AvgLinesPerCommit), ftoa(s.AvgAdditionsPerCommit), ftoa(s.AvgDeletionsPerCommit),
			itoa(s.IssueRefs), itoa(s.ConventionalCommits), itoa(s.Hotfixes), itoa(s.Merges), itoa(s.Reverts), itoa(s.BreakingChanges),
			itoa(s.LargeCommits), itoa(s.WeekendCommits), itoa(s.LateNightCommits), itoa(s.BusinessHoursCommits),
			ftoa(s.IssueRefRate), ftoa(s.ConventionalRate), ftoa(s.HotfixRate), ftoa(s.MergeRate), ftoa(s.RevertRate), ftoa(s.BreakingChangeRate),
			ftoa(s.LargeCommitRate), ftoa(s.WeekendCommitRate), ftoa(s.LateNightCommitRate), ftoa(s.BusinessHoursRate),
			itoa(s.ActiveDays), ftoa(s.CommitsPerActiveDay), ftoa(s.AvgWordsPerMessage), ftoa(s.ConsistencyScore), itoa(s.RepositoriesCount),
			timestamp(s.FirstCommit), timestamp(s.LastCommit),
		})
	}
	return writeCSV(w, summaryHeader, rows)
}

func (f *CSVFormatter) TimeSeries(res *analytics.TimeSeriesResult, w io.Writer) error {
	rows := make([][]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		quality := ""
		if r.AvgQuality != nil {
			quality = ftoa(*r.AvgQuality)
		}
		rows = append(rows, []string{
			r.Developer, r.BucketStart.Format(dateLayout),
			itoa(r.Commits), itoa(r.LinesAdded), itoa(r.LinesDeleted), itoa(r.TotalChanges), quality,
			itoa(r.IssueRefs), itoa(r.ConventionalCommits), itoa(r.Hotfixes), itoa(r.Merges), itoa(r.Reverts), itoa(r.BreakingChanges),
			ftoa(r.IssueRefRate), ftoa(r.ConventionalRate), ftoa(r.HotfixRate), ftoa(r.MergeRate), ftoa(r.RevertRate), ftoa(r.BreakingRate),
			ftoa(r.AvgLinesPerCommit),
		})
	}
	return writeCSV(w, bucketHeader, rows)
}

func (f *CSVFormatter) Commits(commits []models.CommitRecord, w io.Writer) error {
	rows := make([][]string, 0, len(commits))
	for _, c := range commits {
		rows = append(rows, []string{
			c.SHA, c.Author, c.RawAuthor, c.Repository, timestamp(c.Timestamp), c.Message,
			itoa(c.Additions), itoa(c.Deletions), itoa(c.TotalChanges),
			btoa(c.HasIssueRef), btoa(c.FollowsConvention), btoa(c.IsMerge), btoa(c.IsRevert), btoa(c.IsHotfix), btoa(c.HasBreakingChange),
			ftoa(c.QualityScore), itoa(c.MessageWords), itoa(c.CommitHour), c.CommitWeekday.String(),
			c.FeatureType, c.Complexity, c.Risk, ftoa(c.BusinessImpact),
		})
	}
	return writeCSV(w, commitHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func btoa(b bool) string { return strconv.FormatBool(b) }

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
