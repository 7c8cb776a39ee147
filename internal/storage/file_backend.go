// Package storage provides the durable file-backed tier.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"softcode/internal/logger"
)

// FileBackend persists each key as a JSON file under a base directory,
// typically the user config dir. It implements softtypes.StorageBackend.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a durable backend rooted at dir. The directory is
// created lazily on first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// DefaultStorageDir returns the standard durable storage location under the
// user config directory.
func DefaultStorageDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "softcode"), nil
}

// Dir returns the backing directory.
func (f *FileBackend) Dir() string {
	return f.dir
}

// Get reads the value stored under key. A missing or unreadable file is
// reported as absent, never as an error.
func (f *FileBackend) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("durable store read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set writes value under key, creating the base directory if needed.
func (f *FileBackend) Set(key string, value []byte) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(f.path(key), value, 0644); err != nil {
		return fmt.Errorf("failed to write storage key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Removing a missing key is a no-op.
func (f *FileBackend) Delete(key string) {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		logger.Debug("durable store delete failed", "key", key, "error", err)
	}
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}
