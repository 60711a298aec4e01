package scoring

import (
	"math"
	"strings"
)

// Feature types
const (
	FeatureTypeFeature       = "feature"
	FeatureTypeBugfix        = "bugfix"
	FeatureTypeRefactoring   = "refactoring"
	FeatureTypeTesting       = "testing"
	FeatureTypeDocumentation = "documentation"
	FeatureTypeMaintenance   = "maintenance"
)

// Complexity and risk levels
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelVeryHigh = "very_high"
)

// Classification is a keyword/size heuristic for what a commit is about
type Classification struct {
	FeatureType    string
	Complexity     string
	Risk           string
	BusinessImpact float64
}

// keyword groups are checked in order; the first hit wins
var featureKeywords = []struct {
	featureType string
	words       []string
}{
	{FeatureTypeFeature, []string{"feat", "feature", "add", "implement", "create"}},
	{FeatureTypeBugfix, []string{"fix", "bug", "issue", "error", "resolve"}},
	{FeatureTypeRefactoring, []string{"refactor", "cleanup", "reorganize", "restructure"}},
	{FeatureTypeTesting, []string{"test", "spec", "tests"}},
	{FeatureTypeDocumentation, []string{"doc", "readme", "comment", "documentation"}},
}

// Classify derives feature type, complexity, risk and a 0-10 business impact
// score from a message, its size and its flags.
func Classify(message string, totalChanges int, flags Flags) Classification {
	lower := strings.ToLower(message)
	c := Classification{
		FeatureType: classifyFeatureType(lower),
		Complexity:  classifyComplexity(lower, totalChanges),
		Risk:        classifyRisk(lower, totalChanges, flags.IsHotfix),
	}
	c.BusinessImpact = businessImpact(c.FeatureType, totalChanges, flags)
	return c
}

func classifyFeatureType(lower string) string {
	for _, group := range featureKeywords {
		if containsAny(lower, group.words...) {
			return group.featureType
		}
	}
	return FeatureTypeMaintenance
}

func classifyComplexity(lower string, totalChanges int) string {
	switch {
	case totalChanges > 1000 || containsAny(lower, "major", "significant", "overhaul", "rewrite"):
		return LevelVeryHigh
	case totalChanges > 500 || containsAny(lower, "complex", "extensive", "comprehensive"):
		return LevelHigh
	case totalChanges > 100 || containsAny(lower, "enhance", "improve", "extend"):
		return LevelMedium
	default:
		return LevelLow
	}
}

func classifyRisk(lower string, totalChanges int, isHotfix bool) string {
	switch {
	case isHotfix || containsAny(lower, "critical", "urgent", "emergency"):
		return LevelHigh
	case totalChanges > 500 || containsAny(lower, "breaking", "migration", "major"):
		return LevelMedium
	default:
		return LevelLow
	}
}

func businessImpact(featureType string, totalChanges int, flags Flags) float64 {
	score := 5.0

	switch featureType {
	case FeatureTypeFeature:
		score += 2.0
	case FeatureTypeBugfix:
		score += 1.5
	case FeatureTypeRefactoring:
		score += 1.0
	}

	switch {
	case totalChanges > 1000:
		score += 1.5
	case totalChanges > 500:
		score += 1.0
	case totalChanges > 100:
		score += 0.5
	}

	if flags.HasIssueRef {
		score += 0.5
	}
	if flags.FollowsConvention {
		score += 0.5
	}
	if flags.IsHotfix {
		score -= 1.0
	}
	if flags.IsRevert {
		score -= 2.0
	}

	return math.Min(maxScore, math.Max(minScore, score))
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
