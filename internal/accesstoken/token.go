package accesstoken

import (
	"errors"
	"time"
)

var (
	// ErrMissingCredentials is returned before any network attempt when no
	// AppID/AppSecret pair is available.
	ErrMissingCredentials = errors.New("missing app credentials")

	// ErrNetwork wraps transport-level failures reaching the platform.
	ErrNetwork = errors.New("network error")
)

// Token is a short-lived bearer credential with its absolute expiry.
// Tokens are replaced on refresh, never mutated in place.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the token can still be handed to a caller at the
// given instant, keeping margin of headroom before the literal expiry so a
// token does not expire mid-request.
func (t Token) Valid(now time.Time, margin time.Duration) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-margin))
}
