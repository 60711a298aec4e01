// Package scoring computes a deterministic quality score and boolean
// feature flags for a single commit message.
package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rohankatakam/devpulse/internal/errors"
)

const (
	minScore = 0.0
	maxScore = 10.0

	shortPenalty       = 2.0
	goodLengthBonus    = 1.0
	vaguePenalty       = 1.0
	issueRefBonus      = 1.0
	conventionalBonus  = 2.0
	capitalLetterBonus = 0.5
)

// DefaultConventionalPattern matches a `type(scope)!: subject` header
const DefaultConventionalPattern = `^(feat|fix|docs|style|refactor|perf|test|build|ci|chore|revert)(\([^)]+\))?!?: .+`

var (
	issueRefPattern = regexp.MustCompile(`#\d+`)
	// breakingHeaderPattern is the text before the first ':' of a
	// `type(scope)!:` header.
	breakingHeaderPattern = regexp.MustCompile(`^[A-Za-z]+(\([^()\r\n]*\))?!$`)
)

// Config holds the scoring rubric
type Config struct {
	BaseScore           float64
	MinLength           int
	GoodLength          int
	VagueWords          []string
	ConventionalPattern string
}

// DefaultConfig returns the default rubric
func DefaultConfig() Config {
	return Config{
		BaseScore:  5.0,
		MinLength:  10,
		GoodLength: 30,
		VagueWords: []string{
			"wip", "misc", "stuff", "tweak", "oops", "asdf",
			"minor changes", "small changes", "some changes", "update code",
		},
		ConventionalPattern: DefaultConventionalPattern,
	}
}

// Flags are the boolean features extracted from a commit message
type Flags struct {
	HasIssueRef       bool
	FollowsConvention bool
	IsMerge           bool
	IsRevert          bool
	IsHotfix          bool
	HasBreakingChange bool
}

// Scorer applies a compiled rubric. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	cfg          Config
	conventional *regexp.Regexp
	vague        []string
}

// NewScorer compiles cfg. A missing or malformed conventional pattern is a
// configuration error.
func NewScorer(cfg Config) (*Scorer, error) {
	if strings.TrimSpace(cfg.ConventionalPattern) == "" {
		return nil, errors.ConfigError("scoring: conventional commit pattern is required")
	}
	if cfg.MinLength < 0 || cfg.GoodLength < 0 {
		return nil, errors.ConfigErrorf("scoring: length thresholds must be non-negative (min=%d, good=%d)",
			cfg.MinLength, cfg.GoodLength)
	}

	pattern := cfg.ConventionalPattern
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^(?:" + pattern + ")"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.WrapConfig(err, "scoring: invalid conventional commit pattern %q", cfg.ConventionalPattern)
	}

	vague := make([]string, 0, len(cfg.VagueWords))
	for _, w := range cfg.VagueWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			vague = append(vague, w)
		}
	}

	return &Scorer{cfg: cfg, conventional: re, vague: vague}, nil
}

// Score returns the quality score of message, in [0, 10]
func (s *Scorer) Score(message string) float64 {
	score := s.cfg.BaseScore
	length := utf8.RuneCountInString(message)

	if length < s.cfg.MinLength {
		score -= shortPenalty
	} else if length > s.cfg.GoodLength {
		score += goodLengthBonus
	}

	if s.isVague(message) {
		score -= vaguePenalty
	}

	if HasIssueRef(message) {
		score += issueRefBonus
	}

	if s.FollowsConvention(message) {
		score += conventionalBonus
	}

	if startsUpper(message) {
		score += capitalLetterBonus
	}

	return math.Min(maxScore, math.Max(minScore, score))
}

// Flags extracts every boolean feature of message
func (s *Scorer) Flags(message string) Flags {
	return Flags{
		HasIssueRef:       HasIssueRef(message),
		FollowsConvention: s.FollowsConvention(message),
		IsMerge:           IsMerge(message),
		IsRevert:          IsRevert(message),
		IsHotfix:          IsHotfix(message),
		HasBreakingChange: HasBreakingChange(message),
	}
}

// FollowsConvention reports whether message starts with a conventional header
func (s *Scorer) FollowsConvention(message string) bool {
	return s.conventional.MatchString(message)
}

func (s *Scorer) isVague(message string) bool {
	lower := strings.ToLower(message)
	for _, w := range s.vague {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// HasIssueRef reports whether message references an issue as #<digits>
func HasIssueRef(message string) bool {
	return issueRefPattern.MatchString(message)
}

// IsMerge reports whether message begins with "Merge"
func IsMerge(message string) bool {
	return strings.HasPrefix(message, "Merge")
}

// IsRevert reports whether message begins with "Revert"
func IsRevert(message string) bool {
	return strings.HasPrefix(message, "Revert")
}

// IsHotfix reports whether message mentions "hotfix" or "urgent"
func IsHotfix(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "hotfix") || strings.Contains(lower, "urgent")
}

// HasBreakingChange reports a "BREAKING CHANGE" token, or a `type(scope)!:`
// header. A '!' elsewhere before the first ':' does not count.
func HasBreakingChange(message string) bool {
	if strings.Contains(message, "BREAKING CHANGE") {
		return true
	}
	header, _, found := strings.Cut(message, ":")
	if !found {
		return false
	}
	return breakingHeaderPattern.MatchString(header)
}

// WordCount returns the number of whitespace separated words in message
func WordCount(message string) int {
	return len(strings.Fields(message))
}

func startsUpper(message string) bool {
	r, size := utf8.DecodeRuneInString(message)
	if size == 0 {
		return false
	}
	return unicode.IsUpper(r)
}
