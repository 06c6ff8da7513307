// Package storage persists key-value entries as files in a local directory,
// one file per key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"go.uber.org/zap"
)

// ErrInvalidKey is returned for keys that are not plain identifiers
var ErrInvalidKey = errors.New("invalid storage key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileStore implements port.KVStore under baseDir. Writes go through a
// temporary file and a rename so readers never see a partial value.
type FileStore struct {
	baseDir string
	logger  *zap.Logger
}

var _ port.KVStore = (*FileStore)(nil)

// NewFileStore creates baseDir if needed
func NewFileStore(baseDir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{baseDir: baseDir, logger: logger}, nil
}

// Load reads the value stored under key
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("Failed to read file", zap.String("path", path), zap.Error(err))
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}
	return content, true, nil
}

// Save replaces the value stored under key
func (s *FileStore) Save(ctx context.Context, key string, value []byte) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.baseDir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		s.logger.Error("Failed to replace file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to replace file: %w", err)
	}

	s.logger.Debug("File saved successfully", zap.String("path", path), zap.Int("size", len(value)))
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("Failed to delete file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *FileStore) pathFor(key string) (string, error) {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, key+".json"), nil
}
