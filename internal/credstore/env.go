package credstore

import (
	"context"
	"os"
)

// Environment variables recognized as credential overrides.
const (
	EnvAppID     = "WECHAT_APP_ID"
	EnvAppSecret = "WECHAT_APP_SECRET"
)

// FromEnv returns the credentials supplied via environment variables.
// Unset variables leave the corresponding field empty.
func FromEnv() Credentials {
	return Credentials{
		AppID:     os.Getenv(EnvAppID),
		AppSecret: os.Getenv(EnvAppSecret),
	}
}

// Overlay applies env over stored, env winning field by field where set.
// Pure function so precedence is testable without I/O.
func Overlay(stored, env Credentials) Credentials {
	return stored.Merge(env)
}

// Resolve loads stored credentials, overlays environment-supplied values and
// writes the result back only when the overlay changed what is stored.
// An unconfigured store with environment credentials present is treated as an
// initial configuration and persisted.
func Resolve(ctx context.Context, store Store) (Credentials, error) {
	stored, err := store.Load(ctx)
	if err != nil && err != ErrNotConfigured {
		return Credentials{}, err
	}

	merged := Overlay(stored, FromEnv())
	if merged == stored {
		if err == ErrNotConfigured {
			return Credentials{}, ErrNotConfigured
		}
		return merged, nil
	}

	if saveErr := store.Save(ctx, merged); saveErr != nil {
		return Credentials{}, saveErr
	}
	return merged, nil
}
