package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists credentials as a JSON document with secure permissions.
// Writes use temp file + rename for crash safety.
type FileStore struct {
	filePath string
}

// Compile-time check to ensure FileStore implements Store
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("%w: file path cannot be empty", ErrStoreInit)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreInit, err)
	}

	return &FileStore{
		filePath: filePath,
	}, nil
}

// Load returns the stored credentials. Returns ErrNotConfigured if the file
// does not exist yet.
func (f *FileStore) Load(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNotConfigured
		}
		return Credentials{}, fmt.Errorf("reading %s: %w", f.filePath, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decoding %s: %w", f.filePath, err)
	}

	return creds, nil
}

// Save merges update into the stored credentials and writes the result
// atomically using temp file + rename. Sets file permissions to 0600.
func (f *FileStore) Save(ctx context.Context, update Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := f.Load(ctx)
	if err != nil && err != ErrNotConfigured {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	merged := current.Merge(update)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	// Create secure temp file in same directory for atomic rename
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := os.Chmod(tempName, 0600); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	// Atomic rename to final location
	if err := os.Rename(tempName, f.filePath); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	return nil
}
