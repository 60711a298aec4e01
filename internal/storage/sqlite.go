package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

// SQLiteStore implements storage using SQLite (for local/development)
type SQLiteStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewSQLiteStore creates a new SQLite storage. ":memory:" opens a private
// in-memory database.
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	inMemory := path == ":memory:"
	if !inMemory {
		// Ensure directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.FileSystemErrorf(err, "create database directory %s", dir)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.DatabaseErrorf(err, "connect to sqlite %s", path)
	}

	if inMemory {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else {
		// WAL mode for better concurrency
		db.Exec("PRAGMA journal_mode = WAL")
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}
	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, errors.DatabaseError(err, "init sqlite schema")
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		full_name TEXT NOT NULL,
		url TEXT,
		default_branch TEXT,
		language TEXT,
		private INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		pushed_at DATETIME,
		last_extracted DATETIME
	);

	CREATE TABLE IF NOT EXISTS commits (
		repository TEXT NOT NULL,
		sha TEXT NOT NULL,
		author TEXT NOT NULL,
		author_email TEXT,
		timestamp DATETIME NOT NULL,
		message TEXT NOT NULL,
		additions INTEGER NOT NULL DEFAULT 0,
		deletions INTEGER NOT NULL DEFAULT 0,
		total_changes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (repository, sha)
	);

	CREATE TABLE IF NOT EXISTS extract_runs (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		repositories INTEGER NOT NULL,
		failed_repositories INTEGER NOT NULL,
		commits INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_commits_timestamp ON commits(timestamp);
	CREATE INDEX IF NOT EXISTS idx_extract_runs_org ON extract_runs(org, finished_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Repository operations
func (s *SQLiteStore) SaveRepositories(ctx context.Context, repos []models.Repository) error {
	if len(repos) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT OR REPLACE INTO repositories
		(id, owner, name, full_name, url, default_branch,
		 language, private, archived, pushed_at, last_extracted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, repo := range repos {
		_, err := tx.ExecContext(ctx, query,
			repo.ID, repo.Owner, repo.Name, repo.FullName, repo.URL,
			repo.DefaultBranch, repo.Language, repo.Private, repo.Archived,
			repo.PushedAt.UTC(), repo.LastExtracted.UTC())
		if err != nil {
			return fmt.Errorf("save repository %s: %w", repo.FullName, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	var repos []models.Repository
	query := `SELECT * FROM repositories ORDER BY full_name`

	if err := s.db.SelectContext(ctx, &repos, query); err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	return repos, nil
}

// Commit operations
func (s *SQLiteStore) SaveCommits(ctx context.Context, commits []models.RawCommit) (int, error) {
	if len(commits) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO commits
		(repository, sha, author, author_email, timestamp, message,
		 additions, deletions, total_changes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repository, sha) DO UPDATE SET
			additions = excluded.additions,
			deletions = excluded.deletions,
			total_changes = excluded.total_changes
	`

	for _, c := range commits {
		_, err := tx.ExecContext(ctx, query,
			c.Repository, c.SHA, c.Author, c.AuthorEmail, c.Timestamp.UTC(), c.Message,
			c.Additions, c.Deletions, c.TotalChanges)
		if err != nil {
			return 0, fmt.Errorf("save commit %s: %w", c.SHA, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.WithField("commits", len(commits)).Debug("saved commits to sqlite")
	return len(commits), nil
}

func (s *SQLiteStore) ListCommits(ctx context.Context, repository string) ([]models.RawCommit, error) {
	var commits []models.RawCommit
	query := `
		SELECT sha, author, author_email, repository, timestamp, message,
		       additions, deletions, total_changes
		FROM commits
		WHERE ? = '' OR repository = ?
		ORDER BY timestamp, repository, sha
	`

	if err := s.db.SelectContext(ctx, &commits, query, repository, repository); err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	for i := range commits {
		commits[i].Timestamp = commits[i].Timestamp.UTC()
	}
	return commits, nil
}

// Extract run operations
func (s *SQLiteStore) SaveExtractRun(ctx context.Context, run *models.ExtractRun) error {
	query := `
		INSERT OR REPLACE INTO extract_runs
		(id, org, started_at, finished_at, repositories, failed_repositories, commits)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Org, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Repositories, run.Failed, run.Commits)
	if err != nil {
		return fmt.Errorf("save extract run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestExtractRun(ctx context.Context, org string) (*models.ExtractRun, error) {
	var run models.ExtractRun
	query := `SELECT * FROM extract_runs WHERE org = ? ORDER BY finished_at DESC LIMIT 1`

	err := s.db.GetContext(ctx, &run, query, org)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest extract run: %w", err)
	}
	return &run, nil
}
