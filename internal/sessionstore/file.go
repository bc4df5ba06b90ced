package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory used by DefaultFilePath.
const HomeEnv = "HRMS_HOME"

// FileStore persists the entry as JSON in a single file, for the CLI.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath resolves $HRMS_HOME/.hrms/session, falling back to the
// user's home directory.
func DefaultFilePath() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("sessionstore: resolve home: %w", err)
		}
	}
	return filepath.Join(home, ".hrms", "session"), nil
}

// Load reads the entry from disk.
func (s *FileStore) Load(ctx context.Context) (Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, ErrEmpty
		}
		return Entry{}, fmt.Errorf("sessionstore: read %s: %w", s.path, err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("sessionstore: decode %s: %w", s.path, err)
	}
	if entry.Token == "" {
		return Entry{}, ErrEmpty
	}
	return entry, nil
}

// Save writes the entry with owner-only permissions.
func (s *FileStore) Save(ctx context.Context, entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("sessionstore: create dir: %w", err)
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("sessionstore: encode: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("sessionstore: write %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the file. A missing file is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("sessionstore: remove %s: %w", s.path, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
