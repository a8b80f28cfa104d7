package credstore

import (
	"context"
	"errors"
)

// Sentinel errors distinguishing storage failures for the command layer.
var (
	// ErrNotConfigured is returned by Load when no credentials have been saved.
	ErrNotConfigured = errors.New("credentials not configured")

	// ErrStoreInit indicates the backing storage could not be created or opened.
	ErrStoreInit = errors.New("credential store init failed")

	// ErrPersist indicates a write to the backing storage failed.
	ErrPersist = errors.New("credential store write failed")
)

// Credentials holds the long-lived application credentials issued by the
// WeChat platform. AppID and AppSecret are required before any access token
// can be requested; Token and EncodingAESKey belong to the message-push
// surface and are stored for completeness only.
type Credentials struct {
	AppID          string `json:"app_id"`
	AppSecret      string `json:"app_secret"`
	Token          string `json:"token,omitempty"`
	EncodingAESKey string `json:"encoding_aes_key,omitempty"`
}

// Complete reports whether both fields required for token acquisition are set.
func (c Credentials) Complete() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// Merge returns c with every non-empty field of update applied over it.
func (c Credentials) Merge(update Credentials) Credentials {
	out := c
	if update.AppID != "" {
		out.AppID = update.AppID
	}
	if update.AppSecret != "" {
		out.AppSecret = update.AppSecret
	}
	if update.Token != "" {
		out.Token = update.Token
	}
	if update.EncodingAESKey != "" {
		out.EncodingAESKey = update.EncodingAESKey
	}
	return out
}

// Store reads and writes credentials to durable storage.
type Store interface {
	// Load returns the stored credentials. Returns ErrNotConfigured if
	// nothing has been saved yet.
	Load(ctx context.Context) (Credentials, error)

	// Save merges the non-empty fields of update into the stored credentials
	// and persists the result synchronously before returning.
	Save(ctx context.Context, update Credentials) error
}
