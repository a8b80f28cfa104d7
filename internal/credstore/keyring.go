package credstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore persists credentials as a JSON blob in the OS-native credential
// storage. Uses macOS Keychain, Windows Credential Manager, or Linux Secret
// Service.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore using the given service and user
// identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("%w: service cannot be empty", ErrStoreInit)
	}
	if user == "" {
		return nil, fmt.Errorf("%w: user cannot be empty", ErrStoreInit)
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Load returns the stored credentials. Returns ErrNotConfigured when no entry
// exists in the keyring.
func (k *KeyringStore) Load(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	blob, err := keyring.Get(k.service, k.user)
	if err != nil {
		if err == keyring.ErrNotFound {
			return Credentials{}, ErrNotConfigured
		}
		return Credentials{}, fmt.Errorf("reading keyring entry %s/%s: %w", k.service, k.user, err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(blob), &creds); err != nil {
		return Credentials{}, fmt.Errorf("decoding keyring entry %s/%s: %w", k.service, k.user, err)
	}

	return creds, nil
}

// Save merges update into the stored credentials and overwrites the keyring
// entry.
func (k *KeyringStore) Save(ctx context.Context, update Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := k.Load(ctx)
	if err != nil && err != ErrNotConfigured {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	merged := current.Merge(update)

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if err := keyring.Set(k.service, k.user, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	return nil
}
