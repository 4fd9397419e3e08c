package storage

import (
	"fmt"

	"github.com/spec-kit/drive-service/internal/config"
)

// New selects and initializes the object store backend from
// configuration. Called once at startup; business logic never
// branches on backend identity after this point.
func New(cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case config.StorageBackendFilesystem:
		return NewFilesystemStore(cfg.LocalRoot)
	case config.StorageBackendMinio:
		return NewMinioStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}
