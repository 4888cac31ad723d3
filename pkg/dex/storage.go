package dex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fivetwenty-io/dex/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrStorageKeyNotFound = errors.New("storage key not found")
	ErrInvalidStorageKey  = errors.New("invalid storage key")
	ErrStorageDisabled    = errors.New("storage disabled")
)

// Storage is a durable key-value capability. Values are opaque bytes.
type Storage interface {
	// Get returns ErrStorageKeyNotFound when key has never been set.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
}

// CloseStorage releases backend resources when the storage holds any.
func CloseStorage(storage Storage) error {
	closer, ok := storage.(interface{ Close() error })
	if !ok {
		return nil
	}

	return closer.Close()
}

// MemoryStorage keeps values for the life of the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage creates an empty memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStorageKeyNotFound, key)
	}

	return append([]byte(nil), value...), nil
}

func (s *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)

	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}

// FileStorage stores each key as a file inside a directory.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileStorage creates the directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	err := os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &FileStorage{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidStorageKey, key)
	}

	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path) // #nosec G304 -- path is confined to the storage directory
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrStorageKeyNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	return data, nil
}

// Set writes through a temp file and rename so readers never see a partial value.
func (s *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(value)
	if err == nil {
		err = tmp.Chmod(constants.ConfigFilePerm)
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("writing %s: %w", key, err)
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replacing %s: %w", key, err)
	}

	return nil
}

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}

	return nil
}

// NoOpStorage persists nothing.
type NoOpStorage struct{}

// NewNoOpStorage creates a new no-op storage.
func NewNoOpStorage() *NoOpStorage {
	return &NoOpStorage{}
}

// Get always reports a missing key.
func (s *NoOpStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("%w: %w", ErrStorageKeyNotFound, ErrStorageDisabled)
}

// Set does nothing.
func (s *NoOpStorage) Set(ctx context.Context, key string, value []byte) error {
	return nil
}

// Delete does nothing.
func (s *NoOpStorage) Delete(ctx context.Context, key string) error {
	return nil
}
