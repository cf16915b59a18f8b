package storage

import (
	"fmt"

	"github.com/gotrim/gotrim/internal/config"
)

// NewBackend creates the storage backend the configuration asks for.
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	case "postgres":
		return OpenPostgres(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
