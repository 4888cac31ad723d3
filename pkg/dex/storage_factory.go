package dex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/dex/internal/constants"
)

// StorageType represents the type of storage backend.
type StorageType string

const (
	// StorageTypeFile stores one file per key under a directory.
	StorageTypeFile StorageType = "file"

	// StorageTypeMemory keeps values in process memory.
	StorageTypeMemory StorageType = "memory"

	// StorageTypeNATS uses a NATS JetStream key-value bucket.
	StorageTypeNATS StorageType = "nats"

	// StorageTypeSQLite uses a SQLite database file.
	StorageTypeSQLite StorageType = "sqlite"

	// StorageTypeNone persists nothing.
	StorageTypeNone StorageType = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired     = errors.New("NATS configuration required for NATS storage")
	ErrUnsupportedStorageType = errors.New("unsupported storage type")
)

// StorageConfig configures the storage backend.
type StorageConfig struct {
	// Type is the storage backend type
	Type StorageType

	// Path is the directory for file storage or the database file for SQLite.
	Path string

	// NATS key-value configuration
	NATS *NATSKVConfig
}

// DefaultStoragePath returns the per-user data directory.
func DefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.DefaultStorageDir
	}

	return filepath.Join(home, constants.DefaultStorageDir)
}

// DefaultStorageConfig returns file storage in the per-user data directory.
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		Type: StorageTypeFile,
		Path: DefaultStoragePath(),
	}
}

// NewStorageFromConfig creates a storage backend from configuration.
func NewStorageFromConfig(ctx context.Context, config *StorageConfig) (Storage, error) {
	if config == nil {
		config = DefaultStorageConfig()
	}

	switch config.Type {
	case StorageTypeFile, "":
		path := config.Path
		if path == "" {
			path = DefaultStoragePath()
		}

		return NewFileStorage(path)

	case StorageTypeMemory:
		return NewMemoryStorage(), nil

	case StorageTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVStorage(ctx, config.NATS)

	case StorageTypeSQLite:
		path := config.Path
		if path == "" {
			path = filepath.Join(DefaultStoragePath(), constants.DefaultSQLiteFile)
		}

		return NewSQLiteStorage(ctx, path)

	case StorageTypeNone:
		return NewNoOpStorage(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStorageType, config.Type)
	}
}

// StorageBuilder helps build storage configurations.
type StorageBuilder struct {
	config *StorageConfig
}

// NewStorageBuilder creates a new storage builder.
func NewStorageBuilder() *StorageBuilder {
	return &StorageBuilder{config: DefaultStorageConfig()}
}

// WithType sets the storage type.
func (b *StorageBuilder) WithType(storageType StorageType) *StorageBuilder {
	b.config.Type = storageType

	return b
}

// WithPath sets the file directory or database path.
func (b *StorageBuilder) WithPath(path string) *StorageBuilder {
	b.config.Path = path

	return b
}

// WithNATSConfig sets NATS storage configuration.
func (b *StorageBuilder) WithNATSConfig(config *NATSKVConfig) *StorageBuilder {
	b.config.NATS = config

	return b
}

// Build creates the storage from the configuration.
func (b *StorageBuilder) Build(ctx context.Context) (Storage, error) {
	return NewStorageFromConfig(ctx, b.config)
}
