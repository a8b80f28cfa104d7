package accesstoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoCachedToken is returned by a Cache when no usable token is stored.
var ErrNoCachedToken = errors.New("no cached token")

// Cache stores the last-known token durably so subsequent process invocations
// can reuse it.
type Cache interface {
	// Load returns the cached token for the given AppID.
	// Returns ErrNoCachedToken if absent or recorded for a different app.
	Load(ctx context.Context, appID string) (Token, error)

	// Save persists the token for the given AppID, replacing any previous entry.
	Save(ctx context.Context, appID string, token Token) error
}

// cachedToken is the on-disk representation. The AppID is recorded so a token
// obtained for one app is never served for another.
type cachedToken struct {
	AppID       string    `json:"app_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// FileCache persists the token as a JSON file with secure permissions.
// Writes use temp file + rename for crash safety.
type FileCache struct {
	filePath string
}

// Compile-time check to ensure FileCache implements Cache
var _ Cache = (*FileCache)(nil)

// NewFileCache creates a FileCache for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func NewFileCache(filePath string) (*FileCache, error) {
	if filePath == "" {
		return nil, fmt.Errorf("cache file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return nil, err
	}

	return &FileCache{
		filePath: filePath,
	}, nil
}

// Load returns the cached token for appID.
func (f *FileCache) Load(ctx context.Context, appID string) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Token{}, ErrNoCachedToken
		}
		return Token{}, fmt.Errorf("reading %s: %w", f.filePath, err)
	}

	var entry cachedToken
	if err := json.Unmarshal(data, &entry); err != nil {
		return Token{}, fmt.Errorf("decoding %s: %w", f.filePath, err)
	}

	if entry.AppID != appID || entry.AccessToken == "" {
		return Token{}, ErrNoCachedToken
	}

	return Token{AccessToken: entry.AccessToken, ExpiresAt: entry.ExpiresAt}, nil
}

// Save atomically replaces the cached token for appID.
func (f *FileCache) Save(ctx context.Context, appID string, token Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(cachedToken{
		AppID:       appID,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	})
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(append(data, '\n')); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tempName, 0600); err != nil {
		return err
	}

	return os.Rename(tempName, f.filePath)
}
