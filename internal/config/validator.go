package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohankatakam/devpulse/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextExtract - extract requires a GitHub org and a writable store
	ValidationContextExtract ValidationContext = "extract"
	// ValidationContextReport - report, timeseries and dashboard require a readable store and a valid rubric
	ValidationContextReport ValidationContext = "report"
	// ValidationContextServe - serve requires everything report does plus a listen address
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ✗ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ! %s\n", warn))
		}
	}

	return sb.String()
}

// Err returns the result as a configuration error, or nil when valid
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(vr.Error())
}

// Validate validates configuration for the given command context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextExtract:
		c.validateGitHub(result, true)
		c.validateStorage(result)
		c.validateCache(result)
	case ValidationContextReport:
		c.validateStorage(result)
		c.validateAnalytics(result)
	case ValidationContextServe:
		c.validateStorage(result)
		c.validateAnalytics(result)
		c.validateServer(result)
	case ValidationContextAll:
		c.validateGitHub(result, false)
		c.validateStorage(result)
		c.validateCache(result)
		c.validateAnalytics(result)
		c.validateServer(result)
	default:
		result.AddError("unknown validation context %q", ctx)
	}

	return result
}

func (c *Config) validateGitHub(result *ValidationResult, required bool) {
	if c.GitHub.Org == "" {
		if required {
			result.AddError("GITHUB_ORG is required but not set (github.org)")
		} else {
			result.AddWarning("GITHUB_ORG not set (extract will not run)")
		}
	}
	if c.GitHub.Token == "" {
		result.AddWarning("GITHUB_TOKEN not set (private repositories are invisible and the rate limit is 60 requests/hour)")
	}
	if c.GitHub.RateLimit <= 0 {
		result.AddError("github.rate_limit must be positive, got %d", c.GitHub.RateLimit)
	}
	if c.GitHub.MaxWorkers <= 0 {
		result.AddError("github.max_workers must be positive, got %d", c.GitHub.MaxWorkers)
	}
	if c.GitHub.AnalysisDays <= 0 {
		result.AddError("github.analysis_days must be positive, got %d", c.GitHub.AnalysisDays)
	}
}

func (c *Config) validateStorage(result *ValidationResult) {
	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.LocalPath == "" {
			result.AddError("storage.local_path is required for sqlite storage")
			return
		}
		dir := filepath.Dir(c.Storage.LocalPath)
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			result.AddError("storage.local_path parent %s is not a directory", dir)
		}
	case "postgres":
		c.validatePostgres(result)
	default:
		result.AddError("storage.type must be sqlite or postgres, got %q", c.Storage.Type)
	}
}

func (c *Config) validatePostgres(result *ValidationResult) {
	if c.Storage.PostgresDSN == "" {
		result.AddError("POSTGRES_DSN is required for postgres storage")
		return
	}
	u, err := url.Parse(c.Storage.PostgresDSN)
	if err != nil {
		result.AddError("POSTGRES_DSN is not a valid URL: %v", err)
		return
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		result.AddError("POSTGRES_DSN must use postgres:// scheme, got %s://", u.Scheme)
	}
	if u.Host == "" {
		result.AddError("POSTGRES_DSN must include a host")
	}
	if u.User == nil {
		result.AddWarning("POSTGRES_DSN has no user")
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.Directory == "" {
		result.AddWarning("cache.directory not set (commit stats will be refetched on every extract)")
	}
}

func (c *Config) validateAnalytics(result *ValidationResult) {
	if _, err := c.Analytics(); err != nil {
		result.AddError("%v", err)
	}

	s := c.Scoring
	if s.MinLength > s.GoodLength {
		result.AddWarning("scoring.min_length (%d) exceeds scoring.good_length (%d)", s.MinLength, s.GoodLength)
	}
	if s.BaseScore < 0 || s.BaseScore > 10 {
		result.AddWarning("scoring.base_score %.1f is outside [0, 10]", s.BaseScore)
	}
	if s.LargeCommitThreshold <= 0 {
		result.AddError("scoring.large_commit_threshold must be positive, got %d", s.LargeCommitThreshold)
	}

	for name, hour := range map[string]int{
		"late_night_start":     c.Schedule.LateNightStart,
		"late_night_end":       c.Schedule.LateNightEnd,
		"business_hours_start": c.Schedule.BusinessHoursStart,
		"business_hours_end":   c.Schedule.BusinessHoursEnd,
	} {
		if hour < 0 || hour > 23 {
			result.AddError("schedule.%s must be an hour in [0, 23], got %d", name, hour)
		}
	}
	if c.Schedule.BusinessHoursStart > c.Schedule.BusinessHoursEnd {
		result.AddError("schedule.business_hours_start (%d) is after business_hours_end (%d)",
			c.Schedule.BusinessHoursStart, c.Schedule.BusinessHoursEnd)
	}

	for _, excluded := range c.Team.ExcludedAuthors {
		for _, member := range c.Team.CoreTeam {
			if excluded == member {
				result.AddWarning("team: %q is both excluded and on the core team (it will be excluded)", member)
			}
		}
	}
}

func (c *Config) validateServer(result *ValidationResult) {
	if c.Server.Addr == "" {
		result.AddError("server.addr is required")
		return
	}
	if !strings.Contains(c.Server.Addr, ":") {
		result.AddError("server.addr must be host:port or :port, got %q", c.Server.Addr)
	}
}
