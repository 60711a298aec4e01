package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/devpulse/internal/aggregate"
	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/identity"
	"github.com/rohankatakam/devpulse/internal/scoring"
)

// Config holds all configuration settings
type Config struct {
	// Team identity rules
	Team TeamConfig `mapstructure:"team" yaml:"team"`

	// Commit message quality rubric
	Scoring ScoringConfig `mapstructure:"scoring" yaml:"scoring"`

	// Calendar used for days, weeks and working hours
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// GitHub configuration
	GitHub GitHubConfig `mapstructure:"github" yaml:"github"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// HTTP API configuration
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Report output
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

type TeamConfig struct {
	ExcludedAuthors []string      `mapstructure:"excluded_authors" yaml:"excluded_authors"`
	Aliases         []AuthorAlias `mapstructure:"aliases" yaml:"aliases"`
	CoreTeam        []string      `mapstructure:"core_team" yaml:"core_team"`
}

// AuthorAlias maps several raw author strings onto one canonical developer.
// Aliases are a list rather than a map because viper lower-cases map keys.
type AuthorAlias struct {
	Canonical string   `mapstructure:"canonical" yaml:"canonical"`
	Names     []string `mapstructure:"names" yaml:"names"`
}

type ScoringConfig struct {
	BaseScore            float64  `mapstructure:"base_score" yaml:"base_score"`
	MinLength            int      `mapstructure:"min_length" yaml:"min_length"`
	GoodLength           int      `mapstructure:"good_length" yaml:"good_length"`
	VagueWords           []string `mapstructure:"vague_words" yaml:"vague_words"`
	ConventionalPattern  string   `mapstructure:"conventional_pattern" yaml:"conventional_pattern"`
	LargeCommitThreshold int      `mapstructure:"large_commit_threshold" yaml:"large_commit_threshold"`
}

type ScheduleConfig struct {
	Timezone           string   `mapstructure:"timezone" yaml:"timezone"`
	WeekendDays        []string `mapstructure:"weekend_days" yaml:"weekend_days"`
	LateNightStart     int      `mapstructure:"late_night_start" yaml:"late_night_start"`
	LateNightEnd       int      `mapstructure:"late_night_end" yaml:"late_night_end"`
	BusinessHoursStart int      `mapstructure:"business_hours_start" yaml:"business_hours_start"`
	BusinessHoursEnd   int      `mapstructure:"business_hours_end" yaml:"business_hours_end"`
}

type StorageConfig struct {
	Type        string `mapstructure:"type" yaml:"type"` // "sqlite", "postgres"
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	LocalPath   string `mapstructure:"local_path" yaml:"local_path"`
}

type GitHubConfig struct {
	Token           string `mapstructure:"token" yaml:"token"`
	Org             string `mapstructure:"org" yaml:"org"`
	APIURL          string `mapstructure:"api_url" yaml:"api_url"` // GitHub Enterprise; empty = api.github.com
	RateLimit       int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	IncludePrivate  bool   `mapstructure:"include_private" yaml:"include_private"`
	ExcludeArchived bool   `mapstructure:"exclude_archived" yaml:"exclude_archived"`
	IncludeStats    bool   `mapstructure:"include_stats" yaml:"include_stats"`
	AnalysisDays    int    `mapstructure:"analysis_days" yaml:"analysis_days"`
	MaxWorkers      int    `mapstructure:"max_workers" yaml:"max_workers"`
}

type CacheConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	rubric := scoring.DefaultConfig()
	return &Config{
		Scoring: ScoringConfig{
			BaseScore:            rubric.BaseScore,
			MinLength:            rubric.MinLength,
			GoodLength:           rubric.GoodLength,
			VagueWords:           rubric.VagueWords,
			ConventionalPattern:  rubric.ConventionalPattern,
			LargeCommitThreshold: 500,
		},
		Schedule: ScheduleConfig{
			Timezone:           "UTC",
			WeekendDays:        []string{"saturday", "sunday"},
			LateNightStart:     22,
			LateNightEnd:       6,
			BusinessHoursStart: 9,
			BusinessHoursEnd:   17,
		},
		Storage: StorageConfig{
			Type:      "sqlite",
			LocalPath: filepath.Join(homeDir, ".devpulse", "commits.db"),
		},
		GitHub: GitHubConfig{
			RateLimit:       10, // 10 requests per second
			IncludePrivate:  true,
			ExcludeArchived: true,
			IncludeStats:    true,
			AnalysisDays:    365,
			MaxWorkers:      8,
		},
		Cache: CacheConfig{
			Directory: filepath.Join(homeDir, ".devpulse", "cache"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Output: OutputConfig{
			Directory: "output",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Load from environment variables
	v.SetEnvPrefix("DEVPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".devpulse")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".devpulse"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.WrapConfig(err, "failed to read config")
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal onto the defaults so absent keys keep their default value
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapConfig(err, "failed to unmarshal config")
	}

	// mapstructure decodes into existing slices element by element, so a
	// shorter list in the file would keep trailing defaults
	if v.IsSet("scoring.vague_words") {
		cfg.Scoring.VagueWords = v.GetStringSlice("scoring.vague_words")
	}
	if v.IsSet("schedule.weekend_days") {
		cfg.Schedule.WeekendDays = v.GetStringSlice("schedule.weekend_days")
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// GitHub configuration
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(envVar); token != "" {
			cfg.GitHub.Token = token
			break
		}
	}
	if org := os.Getenv("GITHUB_ORG"); org != "" {
		cfg.GitHub.Org = org
	}
	cfg.GitHub.APIURL = GetString("GITHUB_API_URL", cfg.GitHub.APIURL)
	cfg.GitHub.RateLimit = GetInt("GITHUB_RATE_LIMIT", cfg.GitHub.RateLimit)
	cfg.GitHub.AnalysisDays = GetInt("ANALYSIS_DAYS", cfg.GitHub.AnalysisDays)
	cfg.GitHub.MaxWorkers = GetInt("GITHUB_MAX_WORKERS", cfg.GitHub.MaxWorkers)
	cfg.GitHub.IncludeStats = GetBool("GITHUB_INCLUDE_STATS", cfg.GitHub.IncludeStats)

	// Storage configuration
	cfg.Storage.Type = GetString("STORAGE_TYPE", cfg.Storage.Type)
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if path := os.Getenv("LOCAL_DB_PATH"); path != "" {
		cfg.Storage.LocalPath = expandPath(path)
	}

	// Cache configuration
	if dir := os.Getenv("CACHE_DIRECTORY"); dir != "" {
		cfg.Cache.Directory = expandPath(dir)
	}

	// Schedule configuration
	cfg.Schedule.Timezone = GetString("DEVPULSE_TIMEZONE", cfg.Schedule.Timezone)

	cfg.Server.Addr = GetString("DEVPULSE_SERVER_ADDR", cfg.Server.Addr)
	if dir := os.Getenv("OUTPUT_DIRECTORY"); dir != "" {
		cfg.Output.Directory = expandPath(dir)
	}

	cfg.Storage.LocalPath = expandPath(cfg.Storage.LocalPath)
	cfg.Cache.Directory = expandPath(cfg.Cache.Directory)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	// Convert struct to map for Viper
	v.Set("team", c.Team)
	v.Set("scoring", c.Scoring)
	v.Set("schedule", c.Schedule)
	v.Set("storage", c.Storage)
	v.Set("github", redactedGitHub(c.GitHub))
	v.Set("cache", c.Cache)
	v.Set("server", c.Server)
	v.Set("output", c.Output)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.FileSystemError(err, "failed to create config directory")
	}

	// Write config file
	if err := v.WriteConfigAs(path); err != nil {
		return errors.FileSystemErrorf(err, "failed to write config to %s", path)
	}

	return nil
}

// tokens belong in the environment or the keychain, never in a saved file
func redactedGitHub(g GitHubConfig) GitHubConfig {
	g.Token = ""
	return g
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	tz := c.Schedule.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.WrapConfig(err, "unknown timezone %q", tz)
	}
	return loc, nil
}

// Analytics compiles the analytics part of the configuration into explicit
// engine settings. Malformed values surface as configuration errors here
// rather than at query time.
func (c *Config) Analytics() (analytics.Settings, error) {
	loc, err := c.Location()
	if err != nil {
		return analytics.Settings{}, err
	}

	weekend, err := parseWeekdays(c.Schedule.WeekendDays)
	if err != nil {
		return analytics.Settings{}, err
	}

	aliases := make(map[string]string)
	for _, a := range c.Team.Aliases {
		if a.Canonical == "" {
			return analytics.Settings{}, errors.ConfigErrorf("team.aliases: entry %v has no canonical name", a.Names)
		}
		for _, name := range a.Names {
			if prev, dup := aliases[name]; dup && prev != a.Canonical {
				return analytics.Settings{}, errors.ConfigErrorf(
					"team.aliases: %q maps to both %q and %q", name, prev, a.Canonical)
			}
			aliases[name] = a.Canonical
		}
	}

	settings := analytics.Settings{
		Identity: identity.Config{
			Excluded: c.Team.ExcludedAuthors,
			Aliases:  aliases,
			CoreTeam: c.Team.CoreTeam,
		},
		Scoring: scoring.Config{
			BaseScore:           c.Scoring.BaseScore,
			MinLength:           c.Scoring.MinLength,
			GoodLength:          c.Scoring.GoodLength,
			VagueWords:          c.Scoring.VagueWords,
			ConventionalPattern: c.Scoring.ConventionalPattern,
		},
		Summary: aggregate.Options{
			Location:             loc,
			LargeCommitThreshold: c.Scoring.LargeCommitThreshold,
			WeekendDays:          weekend,
			LateNightStart:       c.Schedule.LateNightStart,
			LateNightEnd:         c.Schedule.LateNightEnd,
			BusinessHoursStart:   c.Schedule.BusinessHoursStart,
			BusinessHoursEnd:     c.Schedule.BusinessHoursEnd,
		},
	}

	// compile the pattern now so a bad regex fails config loading
	if _, err := scoring.NewScorer(settings.Scoring); err != nil {
		return analytics.Settings{}, err
	}
	return settings, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		day, ok := weekdayNames[key]
		if !ok {
			if len(key) >= 3 {
				for full, d := range weekdayNames {
					if strings.HasPrefix(full, key) {
						day, ok = d, true
						break
					}
				}
			}
		}
		if !ok {
			return nil, errors.ConfigErrorf("schedule.weekend_days: unknown weekday %q", name)
		}
		out = append(out, day)
	}
	return out, nil
}

// YAML renders the config for display with the GitHub token masked
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	masked.GitHub.Token = MaskToken(c.GitHub.Token)
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return out, nil
}
