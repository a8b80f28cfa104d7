package accesstoken

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"wechat-cli/internal/credstore"
)

// DefaultSafetyMargin is how long before the literal expiry a token is
// treated as expiring. WeChat tokens live for two hours; five minutes of
// headroom keeps a token from expiring mid-request without refreshing
// noticeably early.
const DefaultSafetyMargin = 5 * time.Minute

// FetchFunc requests a fresh token from the platform's authorization
// endpoint.
type FetchFunc func(ctx context.Context, appID, appSecret string) (Token, error)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCache sets the durable token cache shared across process invocations.
func WithCache(cache Cache) ManagerOption {
	return func(m *Manager) {
		m.cache = cache
	}
}

// WithSafetyMargin overrides the safety margin applied before the literal
// token expiry.
func WithSafetyMargin(margin time.Duration) ManagerOption {
	return func(m *Manager) {
		m.margin = margin
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the cached access token and is its only writer. It serves the
// cached token while valid, re-acquires it when it is within the safety
// margin of expiry, and guarantees at most one in-flight fetch at a time:
// callers arriving during a fetch receive that fetch's result (or failure).
type Manager struct {
	creds  credstore.Credentials
	fetch  FetchFunc
	cache  Cache
	margin time.Duration
	now    func() time.Time

	mu      sync.Mutex
	current Token

	group singleflight.Group
}

// NewManager creates a Manager for the given credentials. No I/O is performed
// until the first Token or Refresh call.
func NewManager(creds credstore.Credentials, fetch FetchFunc, opts ...ManagerOption) *Manager {
	m := &Manager{
		creds:  creds,
		fetch:  fetch,
		margin: DefaultSafetyMargin,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns a valid access token, fetching a fresh one only when neither
// the in-memory copy nor the durable cache holds a token comfortably inside
// its validity window. Fails fast with ErrMissingCredentials before any I/O
// when no AppID/AppSecret pair is configured.
func (m *Manager) Token(ctx context.Context) (Token, error) {
	if !m.creds.Complete() {
		return Token{}, ErrMissingCredentials
	}

	if token, ok := m.cachedToken(); ok {
		return token, nil
	}

	if m.cache != nil {
		token, err := m.cache.Load(ctx, m.creds.AppID)
		if err == nil && token.Valid(m.now(), m.margin) {
			m.storeToken(token)
			return token, nil
		}
		if err != nil && err != ErrNoCachedToken {
			slog.WarnContext(ctx, "failed to read cached access token", "error", err)
		}
	}

	return m.acquire(ctx, false)
}

// Refresh unconditionally invalidates the cached token and fetches a fresh
// one, bypassing validity checks. Callers arriving while the forced fetch is
// in flight share its result.
func (m *Manager) Refresh(ctx context.Context) (Token, error) {
	if !m.creds.Complete() {
		return Token{}, ErrMissingCredentials
	}

	m.mu.Lock()
	m.current = Token{}
	m.mu.Unlock()

	return m.acquire(ctx, true)
}

// acquire performs the coalesced fetch. A non-forced acquisition re-checks
// the in-memory token first so a caller that queued behind a completed fetch
// does not trigger another one.
func (m *Manager) acquire(ctx context.Context, force bool) (Token, error) {
	v, err, _ := m.group.Do("token", func() (any, error) {
		if !force {
			if token, ok := m.cachedToken(); ok {
				return token, nil
			}
		}

		token, err := m.fetch(ctx, m.creds.AppID, m.creds.AppSecret)
		if err != nil {
			return Token{}, err
		}

		m.storeToken(token)

		if m.cache != nil {
			// Cache write failure is not fatal: the token is valid, only the
			// next process will pay an extra fetch.
			if err := m.cache.Save(ctx, m.creds.AppID, token); err != nil {
				slog.WarnContext(ctx, "failed to persist access token", "error", err)
			}
		}

		return token, nil
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

func (m *Manager) cachedToken() (Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Valid(m.now(), m.margin) {
		return m.current, true
	}
	return Token{}, false
}

func (m *Manager) storeToken(token Token) {
	m.mu.Lock()
	m.current = token
	m.mu.Unlock()
}
