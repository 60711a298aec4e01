package models

import (
	"time"
)

// Repository represents a GitHub repository belonging to the analysed organization
type Repository struct {
	ID            string    `json:"id" db:"id"`
	Owner         string    `json:"owner" db:"owner"`
	Name          string    `json:"name" db:"name"`
	FullName      string    `json:"full_name" db:"full_name"`
	URL           string    `json:"url" db:"url"`
	DefaultBranch string    `json:"default_branch" db:"default_branch"`
	Language      string    `json:"language" db:"language"`
	Private       bool      `json:"private" db:"private"`
	Archived      bool      `json:"archived" db:"archived"`
	PushedAt      time.Time `json:"pushed_at" db:"pushed_at"`
	LastExtracted time.Time `json:"last_extracted" db:"last_extracted"`
}

// RawCommit is a commit as produced by the fetch collaborator, before
// identity resolution and scoring
type RawCommit struct {
	SHA          string    `json:"sha" db:"sha"`
	Author       string    `json:"author" db:"author"`
	AuthorEmail  string    `json:"author_email" db:"author_email"`
	Repository   string    `json:"repository" db:"repository"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Message      string    `json:"message" db:"message"`
	Additions    int       `json:"additions" db:"additions"`
	Deletions    int       `json:"deletions" db:"deletions"`
	TotalChanges int       `json:"total_changes" db:"total_changes"`
}

// CommitRecord is a resolved and scored commit. It is never mutated after
// scoring; excluded identities never become a CommitRecord.
type CommitRecord struct {
	SHA          string    `json:"sha"`
	RawAuthor    string    `json:"raw_author"`
	Author       string    `json:"author"` // canonical author
	Repository   string    `json:"repository"`
	Timestamp    time.Time `json:"timestamp"`
	Message      string    `json:"message"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	TotalChanges int       `json:"total_changes"`

	HasIssueRef       bool    `json:"has_issue_ref"`
	FollowsConvention bool    `json:"follows_convention"`
	IsMerge           bool    `json:"is_merge"`
	IsRevert          bool    `json:"is_revert"`
	IsHotfix          bool    `json:"is_hotfix"`
	HasBreakingChange bool    `json:"has_breaking_change"`
	QualityScore      float64 `json:"quality_score"`

	MessageWords  int          `json:"message_words"`
	CommitHour    int          `json:"commit_hour"`
	CommitWeekday time.Weekday `json:"commit_weekday"`

	FeatureType    string  `json:"feature_type"`
	Complexity     string  `json:"complexity"`
	Risk           string  `json:"risk"`
	BusinessImpact float64 `json:"business_impact"`
}

// DeveloperPeriodSummary is one row per developer for one window
type DeveloperPeriodSummary struct {
	Developer       string  `json:"developer"`
	TotalCommits    int     `json:"total_commits"`
	AvgQualityScore float64 `json:"avg_quality_score"`

	TotalAdditions        int     `json:"total_lines_added"`
	TotalDeletions        int     `json:"total_lines_deleted"`
	TotalChanges          int     `json:"total_line_changes"`
	AvgLinesPerCommit     float64 `json:"avg_lines_per_commit"`
	AvgAdditionsPerCommit float64 `json:"avg_additions_per_commit"`
	AvgDeletionsPerCommit float64 `json:"avg_deletions_per_commit"`

	IssueRefs            int `json:"issue_references"`
	ConventionalCommits  int `json:"conventional_commits"`
	Hotfixes             int `json:"hotfixes"`
	Merges               int `json:"merge_commits"`
	Reverts              int `json:"reverts"`
	BreakingChanges      int `json:"breaking_changes"`
	LargeCommits         int `json:"large_commits"`
	WeekendCommits       int `json:"weekend_commits"`
	LateNightCommits     int `json:"late_night_commits"`
	BusinessHoursCommits int `json:"business_hours_commits"`

	IssueRefRate        float64 `json:"issue_ref_rate"`
	ConventionalRate    float64 `json:"conventional_rate"`
	HotfixRate          float64 `json:"hotfix_rate"`
	MergeRate           float64 `json:"merge_rate"`
	RevertRate          float64 `json:"revert_rate"`
	BreakingChangeRate  float64 `json:"breaking_change_rate"`
	LargeCommitRate     float64 `json:"large_commit_rate"`
	WeekendCommitRate   float64 `json:"weekend_commit_rate"`
	LateNightCommitRate float64 `json:"late_night_commit_rate"`
	BusinessHoursRate   float64 `json:"business_hours_rate"`

	ActiveDays          int     `json:"active_days"`
	CommitsPerActiveDay float64 `json:"commits_per_active_day"`
	AvgWordsPerMessage  float64 `json:"avg_words_per_message"`
	ConsistencyScore    float64 `json:"consistency_score"`
	RepositoriesCount   int     `json:"repositories_count"`

	FirstCommit time.Time `json:"first_commit"`
	LastCommit  time.Time `json:"last_commit"`
}

// TimeBucketRow is one (developer, bucket) cell of a complete time grid.
// AvgQuality is nil for buckets without commits.
type TimeBucketRow struct {
	Developer   string    `json:"developer"`
	BucketStart time.Time `json:"bucket_start"`

	Commits      int      `json:"commits"`
	LinesAdded   int      `json:"lines_added"`
	LinesDeleted int      `json:"lines_deleted"`
	TotalChanges int      `json:"total_changes"`
	AvgQuality   *float64 `json:"avg_quality"`

	IssueRefs           int `json:"issue_refs"`
	ConventionalCommits int `json:"conventional_commits"`
	Hotfixes            int `json:"hotfixes"`
	Merges              int `json:"merges"`
	Reverts             int `json:"reverts"`
	BreakingChanges     int `json:"breaking_changes"`

	IssueRefRate      float64 `json:"issue_ref_rate"`
	ConventionalRate  float64 `json:"conventional_rate"`
	HotfixRate        float64 `json:"hotfix_rate"`
	MergeRate         float64 `json:"merge_rate"`
	RevertRate        float64 `json:"revert_rate"`
	BreakingRate      float64 `json:"breaking_rate"`
	AvgLinesPerCommit float64 `json:"avg_lines_per_commit"`
}

// ExtractRun records one fetch of an organization's commit history
type ExtractRun struct {
	ID           string    `json:"id" db:"id"`
	Org          string    `json:"org" db:"org"`
	StartedAt    time.Time `json:"started_at" db:"started_at"`
	FinishedAt   time.Time `json:"finished_at" db:"finished_at"`
	Repositories int       `json:"repositories" db:"repositories"`
	Failed       int       `json:"failed_repositories" db:"failed_repositories"`
	Commits      int       `json:"commits" db:"commits"`
}
