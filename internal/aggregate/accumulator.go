package aggregate

import (
	"math"

	"github.com/rohankatakam/devpulse/internal/models"
)

// Accumulator sums the per-commit counters shared by whole-window summaries
// and time buckets. Both views fold commits through the same Add so their
// totals reconcile.
type Accumulator struct {
	Commits      int
	Additions    int
	Deletions    int
	TotalChanges int
	QualitySum   float64

	IssueRefs           int
	ConventionalCommits int
	Hotfixes            int
	Merges              int
	Reverts             int
	BreakingChanges     int
}

// Add folds one commit into the accumulator
func (a *Accumulator) Add(c models.CommitRecord) {
	a.Commits++
	a.Additions += c.Additions
	a.Deletions += c.Deletions
	a.TotalChanges += c.TotalChanges
	a.QualitySum += c.QualityScore

	a.IssueRefs += boolToInt(c.HasIssueRef)
	a.ConventionalCommits += boolToInt(c.FollowsConvention)
	a.Hotfixes += boolToInt(c.IsHotfix)
	a.Merges += boolToInt(c.IsMerge)
	a.Reverts += boolToInt(c.IsRevert)
	a.BreakingChanges += boolToInt(c.HasBreakingChange)
}

// AvgQuality returns the mean quality score; ok is false for an empty
// accumulator, where the mean is undefined.
func (a Accumulator) AvgQuality() (avg float64, ok bool) {
	if a.Commits == 0 {
		return math.NaN(), false
	}
	return a.QualitySum / float64(a.Commits), true
}

// AvgLinesPerCommit is total_changes / commits to one decimal, 0 when empty
func (a Accumulator) AvgLinesPerCommit() float64 {
	return Ratio(a.TotalChanges, a.Commits, 1)
}

// Rate returns round(100*count/total, 1), or 0 when total is 0
func Rate(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round(100*float64(count)/float64(total), 1)
}

// Ratio returns round(num/den, places), or 0 when den is 0
func Ratio(num, den int, places int) float64 {
	if den <= 0 {
		return 0
	}
	return Round(float64(num)/float64(den), places)
}

// Round rounds x half away from zero to the given number of decimals
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
