package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
	"github.com/rohankatakam/devpulse/internal/storage"
)

// writeConfig creates a config file pointing the store at a temp database
func writeConfig(t *testing.T, extra string) (cfgPath, dbPath string) {
	t.Helper()
	for _, env := range []string{"GITHUB_TOKEN", "GH_TOKEN", "GITHUB_ORG", "LOCAL_DB_PATH", "STORAGE_TYPE", "OUTPUT_DIRECTORY"} {
		t.Setenv(env, "")
	}
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "commits.db")
	cfgPath = filepath.Join(dir, "config.yaml")
	content := "storage:\n  type: sqlite\n  local_path: " + dbPath + "\n" +
		"output:\n  directory: " + filepath.Join(dir, "out") + "\n" + extra
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath, dbPath
}

func seed(t *testing.T, dbPath string) {
	t.Helper()
	store, err := storage.NewSQLiteStore(dbPath, nil)
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	_, err = store.SaveCommits(context.Background(), []models.RawCommit{
		{SHA: "a", Author: "Developer One", Repository: "acme/api", Timestamp: base, Message: "feat: add login (#12)", Additions: 10, Deletions: 2, TotalChanges: 12},
		{SHA: "b", Author: "dev1@company.com", Repository: "acme/api", Timestamp: base.Add(time.Hour), Message: "fix: nil session", Additions: 3, Deletions: 1, TotalChanges: 4},
		{SHA: "c", Author: "dependabot[bot]", Repository: "acme/api", Timestamp: base, Message: "chore: bump deps", Additions: 1, Deletions: 1, TotalChanges: 2},
		{SHA: "d", Author: "bob", Repository: "acme/web", Timestamp: base.AddDate(0, 0, -60), Message: "wip", Additions: 1, TotalChanges: 1},
	})
	require.NoError(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const teamConfig = `team:
  excluded_authors: ["dependabot[bot]"]
  aliases:
    - canonical: developer1
      names: ["Developer One", "dev1@company.com"]
`

func TestReportCSV(t *testing.T) {
	cfgPath, dbPath := writeConfig(t, teamConfig)
	seed(t, dbPath)

	out, err := execute(t, "--config", cfgPath, "report", "--period", "last_30_days", "--from", "", "--to", "", "--repo", "", "--format", "csv", "--export=false")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "developer1", records[1][0])
	assert.Equal(t, "2", records[1][1])
}

func TestReportUnknownPeriod(t *testing.T) {
	cfgPath, dbPath := writeConfig(t, "")
	seed(t, dbPath)

	_, err := execute(t, "--config", cfgPath, "report", "--period", "last_week", "--format", "table", "--export=false")
	assert.True(t, errors.IsConfig(err))
}

func TestReportExport(t *testing.T) {
	cfgPath, dbPath := writeConfig(t, teamConfig)
	seed(t, dbPath)

	out, err := execute(t, "--config", cfgPath, "report", "--period", "all", "--export")
	require.NoError(t, err)
	assert.Contains(t, out, "daily_stats.csv")
	assert.Contains(t, out, "weekly_stats.csv")
	assert.Contains(t, out, "developer_summary_last_7_days.csv")
	assert.Contains(t, out, "commits.csv")
}

func TestTimeSeriesJSON(t *testing.T) {
	cfgPath, dbPath := writeConfig(t, teamConfig)
	seed(t, dbPath)

	out, err := execute(t, "--config", cfgPath, "timeseries", "--period", "all", "--granularity", "week", "--format", "json", "--repo", "acme/api")
	require.NoError(t, err)
	assert.Contains(t, out, `"granularity": "week"`)
	assert.Contains(t, out, `"developer": "developer1"`)
	assert.NotContains(t, out, "bob")
}

func TestConfigShowMasksToken(t *testing.T) {
	cfgPath, _ := writeConfig(t, "github:\n  org: acme\n  token: ghp_abcdefghijklmnop\n")

	out, err := execute(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "org: acme")
	assert.Contains(t, out, "ghp_...mnop")
	assert.NotContains(t, out, "ghp_abcdefghijklmnop")
}

func TestConfigValidate(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")

	_, err := execute(t, "--config", cfgPath, "config", "validate", "--context", "extract")
	assert.True(t, errors.IsConfig(err), "extract needs github.org")

	out, err := execute(t, "--config", cfgPath, "config", "validate", "--context", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "valid for report")
}

func TestConfigInit(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")
	target := filepath.Join(t.TempDir(), "nested", "config.yaml")

	_, err := execute(t, "--config", cfgPath, "config", "init", "--path", target, "--force=false")
	require.NoError(t, err)
	assert.FileExists(t, target)

	_, err = execute(t, "--config", cfgPath, "config", "init", "--path", target, "--force=false")
	assert.True(t, errors.IsConfig(err))
}

func TestDashboardWritesHTML(t *testing.T) {
	cfgPath, dbPath := writeConfig(t, teamConfig)
	seed(t, dbPath)
	target := filepath.Join(t.TempDir(), "dash.html")

	_, err := execute(t, "--config", cfgPath, "dashboard", "--period", "all", "--output", target, "--title", "Acme")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Acme</title>")
}

func TestLogFileReceivesEntries(t *testing.T) {
	cfgPath, dbPath := writeConfig(t, teamConfig)
	seed(t, dbPath)
	logPath := filepath.Join(t.TempDir(), "logs", "devpulse.log")
	t.Cleanup(func() {
		closeLog()
		logFile = ""
		verbose = false
	})

	_, err := execute(t, "--config", cfgPath, "--log-file", logPath, "--verbose",
		"report", "--period", "all", "--from", "", "--to", "", "--repo", "", "--format", "json", "--export=false")
	require.NoError(t, err)
	closeLog()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dataset prepared")
	assert.Contains(t, string(data), "accepted=3")
}
