package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devpulse/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingExplicitFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	// an explicit path that does not exist is a read error, not a silent default
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadMergesFileOntoDefaults(t *testing.T) {
	path := writeConfig(t, `
team:
  excluded_authors: ["dependabot[bot]"]
  core_team: ["developer1", "alice"]
  aliases:
    - canonical: developer1
      names: ["Developer One", "dev1@company.com"]
scoring:
  vague_words: ["wip"]
schedule:
  timezone: Europe/Berlin
  weekend_days: ["friday"]
github:
  org: acme
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"dependabot[bot]"}, cfg.Team.ExcludedAuthors)
	require.Len(t, cfg.Team.Aliases, 1)
	assert.Equal(t, "developer1", cfg.Team.Aliases[0].Canonical)
	assert.Equal(t, []string{"Developer One", "dev1@company.com"}, cfg.Team.Aliases[0].Names)
	assert.Equal(t, []string{"wip"}, cfg.Scoring.VagueWords)
	assert.Equal(t, []string{"friday"}, cfg.Schedule.WeekendDays)
	assert.Equal(t, "Europe/Berlin", cfg.Schedule.Timezone)

	// untouched keys keep their defaults
	assert.Equal(t, 5.0, cfg.Scoring.BaseScore)
	assert.Equal(t, 500, cfg.Scoring.LargeCommitThreshold)
	assert.Equal(t, 22, cfg.Schedule.LateNightStart)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_from_env_123456")
	t.Setenv("GITHUB_ORG", "env-org")
	t.Setenv("GITHUB_RATE_LIMIT", "3")
	t.Setenv("GITHUB_API_URL", "https://github.acme.internal/api/v3/")
	t.Setenv("STORAGE_TYPE", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost:5432/devpulse")
	t.Setenv("DEVPULSE_TIMEZONE", "America/New_York")

	cfg, err := Load(writeConfig(t, "github:\n  org: file-org\n"))
	require.NoError(t, err)

	assert.Equal(t, "ghp_from_env_123456", cfg.GitHub.Token)
	assert.Equal(t, "env-org", cfg.GitHub.Org)
	assert.Equal(t, "https://github.acme.internal/api/v3/", cfg.GitHub.APIURL)
	assert.Equal(t, 3, cfg.GitHub.RateLimit)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "America/New_York", cfg.Schedule.Timezone)
}

func TestAnalyticsSettings(t *testing.T) {
	cfg := Default()
	cfg.Team.Aliases = []AuthorAlias{
		{Canonical: "developer1", Names: []string{"Developer One", "dev1@company.com"}},
	}
	cfg.Team.ExcludedAuthors = []string{"ci-bot"}
	cfg.Schedule.Timezone = "Asia/Tokyo"
	cfg.Schedule.WeekendDays = []string{"Fri", "saturday"}

	settings, err := cfg.Analytics()
	require.NoError(t, err)

	assert.Equal(t, "developer1", settings.Identity.Aliases["Developer One"])
	assert.Equal(t, "developer1", settings.Identity.Aliases["dev1@company.com"])
	assert.Equal(t, []string{"ci-bot"}, settings.Identity.Excluded)
	assert.Equal(t, "Asia/Tokyo", settings.Summary.Location.String())
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, settings.Summary.WeekendDays)
	assert.Equal(t, 500, settings.Summary.LargeCommitThreshold)
	assert.Equal(t, 5.0, settings.Scoring.BaseScore)
}

func TestAnalyticsConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
		{"bad pattern", func(c *Config) { c.Scoring.ConventionalPattern = "feat((" }},
		{"empty pattern", func(c *Config) { c.Scoring.ConventionalPattern = "" }},
		{"unknown weekday", func(c *Config) { c.Schedule.WeekendDays = []string{"caturday"} }},
		{"alias without canonical", func(c *Config) {
			c.Team.Aliases = []AuthorAlias{{Names: []string{"x"}}}
		}},
		{"conflicting alias", func(c *Config) {
			c.Team.Aliases = []AuthorAlias{
				{Canonical: "a", Names: []string{"x"}},
				{Canonical: "b", Names: []string{"x"}},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			_, err := cfg.Analytics()
			require.Error(t, err)
			assert.True(t, errors.IsConfig(err))
		})
	}
}

func TestSaveRoundTripsWithoutToken(t *testing.T) {
	cfg := Default()
	cfg.GitHub.Org = "acme"
	cfg.GitHub.Token = "ghp_secret_should_not_persist"
	cfg.Team.CoreTeam = []string{"alice"}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ghp_secret")

	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", loaded.GitHub.Org)
	assert.Equal(t, []string{"alice"}, loaded.Team.CoreTeam)
	assert.Empty(t, loaded.GitHub.Token)
}

func TestYAMLMasksToken(t *testing.T) {
	cfg := Default()
	cfg.GitHub.Token = "ghp_abcdefghijklmnop"

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "ghp_...mnop")
	assert.NotContains(t, string(out), "abcdefghijkl")
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", MaskToken(""))
	assert.Equal(t, "***", MaskToken("short"))
	assert.Equal(t, "ghp_...7890", MaskToken("ghp_1234567890"))
}

func TestLoadSearchPathFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("GITHUB_ORG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Scoring, cfg.Scoring)
	assert.Equal(t, "UTC", cfg.Schedule.Timezone)
}
