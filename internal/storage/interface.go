package storage

import (
	"context"
	"errors"

	"github.com/rohankatakam/devpulse/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Store persists extracted repositories and raw commits. Scored records
// and aggregates are never stored; every report recomputes them.
type Store interface {
	// Repository operations
	SaveRepositories(ctx context.Context, repos []models.Repository) error
	ListRepositories(ctx context.Context) ([]models.Repository, error)

	// Commit operations. SaveCommits upserts by (repository, sha) and
	// returns the number of rows written.
	SaveCommits(ctx context.Context, commits []models.RawCommit) (int, error)
	// ListCommits returns commits ordered by timestamp; an empty
	// repository means every repository.
	ListCommits(ctx context.Context, repository string) ([]models.RawCommit, error)

	// Extract run bookkeeping
	SaveExtractRun(ctx context.Context, run *models.ExtractRun) error
	LatestExtractRun(ctx context.Context, org string) (*models.ExtractRun, error)

	// Close connection
	Close() error
}
