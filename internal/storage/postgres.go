package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

// PostgresStore implements storage using PostgreSQL
type PostgresStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPostgresStore creates a new PostgreSQL storage
func NewPostgresStore(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, errors.DatabaseError(err, "connect to postgres")
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if logger == nil {
		logger = logrus.StandardLogger()
	}
	store := &PostgresStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, errors.DatabaseError(err, "init postgres schema")
	}

	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		full_name TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		default_branch TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		private BOOLEAN NOT NULL DEFAULT FALSE,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		pushed_at TIMESTAMPTZ,
		last_extracted TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS commits (
		repository TEXT NOT NULL,
		sha TEXT NOT NULL,
		author TEXT NOT NULL,
		author_email TEXT NOT NULL DEFAULT '',
		timestamp TIMESTAMPTZ NOT NULL,
		message TEXT NOT NULL,
		additions INTEGER NOT NULL DEFAULT 0,
		deletions INTEGER NOT NULL DEFAULT 0,
		total_changes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (repository, sha)
	);

	CREATE TABLE IF NOT EXISTS extract_runs (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Repository operations

func (s *PostgresStore) SaveRepositories(ctx context.Context, repos []models.Repository) error {
	if len(repos) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO repositories (id, owner, name, full_name, url, default_branch,
			language, private, archived, pushed_at, last_extracted)
		VALUES (:id, :owner, :name, :full_name, :url, :default_branch,
			:language, :private, :archived, :pushed_at, :last_extracted)
		ON CONFLICT (id) DO UPDATE SET
			default_branch = EXCLUDED.default_branch,
			language = EXCLUDED.language,
			private = EXCLUDED.private,
			archived = EXCLUDED.archived,
			pushed_at = EXCLUDED.pushed_at,
			last_extracted = EXCLUDED.last_extracted
	`

	for _, repo := range repos {
		if _, err := tx.NamedExecContext(ctx, query, repo); err != nil {
			return fmt.Errorf("save repository %s: %w", repo.FullName, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	var repos []models.Repository
	query := `SELECT * FROM repositories ORDER BY full_name`

	if err := s.db.SelectContext(ctx, &repos, query); err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	return repos, nil
}

// Commit operations

func (s *PostgresStore) SaveCommits(ctx context.Context, commits []models.RawCommit) (int, error) {
	if len(commits) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO commits (repository, sha, author, author_email, timestamp, message,
			additions, deletions, total_changes)
		VALUES (:repository, :sha, :author, :author_email, :timestamp, :message,
			:additions, :deletions, :total_changes)
		ON CONFLICT (repository, sha) DO UPDATE SET
			additions = EXCLUDED.additions,
			deletions = EXCLUDED.deletions,
			total_changes = EXCLUDED.total_changes
	`

	for _, commit := range commits {
		if _, err := tx.NamedExecContext(ctx, query, commit); err != nil {
			return 0, fmt.Errorf("save commit %s: %w", commit.SHA, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.WithField("commits", len(commits)).Debug("saved commits to postgres")
	return len(commits), nil
}

func (s *PostgresStore) ListCommits(ctx context.Context, repository string) ([]models.RawCommit, error) {
	var commits []models.RawCommit
	query := `
		SELECT sha, author, author_email, repository, timestamp, message,
		       additions, deletions, total_changes
		FROM commits
		WHERE $1 = '' OR repository = $1
		ORDER BY timestamp, repository, sha
	`

	if err := s.db.SelectContext(ctx, &commits, query, repository); err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	for i := range commits {
		commits[i].Timestamp = commits[i].Timestamp.UTC()
	}
	return commits, nil
}

// Extract run operations

func (s *PostgresStore) SaveExtractRun(ctx context.Context, run *models.ExtractRun) error {
	query := `
		INSERT INTO extract_runs (id, org, started_at, finished_at, repositories, failed_repositories, commits)
		VALUES (:id, :org, :started_at, :finished_at, :repositories, :failed_repositories, :commits)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			repositories = EXCLUDED.repositories,
			failed_repositories = EXCLUDED.failed_repositories,
			commits = EXCLUDED.commits
	`

	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("save extract run: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestExtractRun(ctx context.Context, org string) (*models.ExtractRun, error) {
	var run models.ExtractRun
	query := `SELECT * FROM extract_runs WHERE org = $1 ORDER BY finished_at DESC LIMIT 1`

	err := s.db.GetContext(ctx, &run, query, org)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest extract run: %w", err)
	}
	return &run, nil
}
