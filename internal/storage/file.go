package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/button-commands/pkg/button"
)

// DefaultName is the document name used when none is configured.
const DefaultName = "ButtonCommands"

// FileStorage keeps the registry in <dataDir>/<name>.json.
type FileStorage struct {
	path   string
	logger *slog.Logger
}

// Ensure FileStorage implements Storage interface
var _ Storage = (*FileStorage)(nil)

// NewFileStorage creates a file-backed store
func NewFileStorage(dataDir, name string, logger *slog.Logger) *FileStorage {
	if dataDir == "" {
		dataDir = "./data"
	}
	if name == "" {
		name = DefaultName
	}
	return &FileStorage{
		path:   filepath.Join(dataDir, name+".json"),
		logger: logger,
	}
}

// Path returns the location of the data file.
func (f *FileStorage) Path() string {
	return f.path
}

// Ping checks that the data directory exists and is a directory.
func (f *FileStorage) Ping(ctx context.Context) error {
	dir := filepath.Dir(f.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", dir)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) Load(ctx context.Context) (*button.StoredData, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Info("Data file not found, starting empty", "path", f.path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var data button.StoredData
	if err := json.Unmarshal(raw, &data); err != nil {
		f.logger.Error("Failed to unmarshal data file", "path", f.path, "error", err)
		return nil, fmt.Errorf("failed to unmarshal data file %s: %w", f.path, err)
	}
	return &data, nil
}

// Save writes the document to a temporary file in the same directory and
// renames it over the data file, so readers never see a partial write.
func (f *FileStorage) Save(ctx context.Context, data *button.StoredData) error {
	if data == nil {
		return errors.New("stored data cannot be nil")
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	f.logger.Debug("Data file saved", "path", f.path, "buttons", len(data.PressButtons))
	return nil
}
