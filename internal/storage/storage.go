package storage

import (
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devpulse/internal/config"
	"github.com/rohankatakam/devpulse/internal/errors"
)

// New opens the store selected by cfg.Type
func New(cfg config.StorageConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Type {
	case "", "sqlite":
		return NewSQLiteStore(cfg.LocalPath, logger)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.ConfigError("storage.postgres_dsn is required for postgres storage")
		}
		return NewPostgresStore(cfg.PostgresDSN, logger)
	default:
		return nil, errors.ConfigErrorf("unknown storage type %q (want sqlite or postgres)", cfg.Type)
	}
}
