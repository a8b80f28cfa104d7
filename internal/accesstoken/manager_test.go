package accesstoken

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wechat-cli/internal/credstore"
)

var testCreds = credstore.Credentials{AppID: "wx123", AppSecret: "secret"}

// countingFetch returns a FetchFunc handing out sequenced tokens and a
// counter of how many fetches actually happened.
func countingFetch(clock func() time.Time, lifetime time.Duration) (FetchFunc, *atomic.Int32) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, appID, appSecret string) (Token, error) {
		n := calls.Add(1)
		return Token{
			AccessToken: fmt.Sprintf("T%d", n),
			ExpiresAt:   clock().Add(lifetime),
		}, nil
	}
	return fetch, &calls
}

func TestTokenCachedWithinMargin(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	fetch, calls := countingFetch(clock, 7200*time.Second)
	m := NewManager(testCreds, fetch, WithClock(clock), WithSafetyMargin(60*time.Second))

	first, err := m.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T1", first.AccessToken)
	assert.Equal(t, now.Add(7200*time.Second), first.ExpiresAt)

	// Deep inside the validity window: still the same token, no new fetch.
	now = now.Add(7100 * time.Second)
	again, err := m.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T1", again.AccessToken)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenRefetchedAtMarginBoundary(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	now := start
	clock := func() time.Time { return now }

	fetch, calls := countingFetch(clock, 7200*time.Second)
	m := NewManager(testCreds, fetch, WithClock(clock), WithSafetyMargin(60*time.Second))

	_, err := m.Token(t.Context())
	require.NoError(t, err)

	// One instant before the margin: cache hit.
	now = start.Add(7200*time.Second - 60*time.Second - time.Millisecond)
	token, err := m.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T1", token.AccessToken)
	assert.Equal(t, int32(1), calls.Load())

	// At the margin: exactly one new fetch.
	now = start.Add(7200*time.Second - 60*time.Second)
	token, err = m.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T2", token.AccessToken)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenCoalescesConcurrentFetches(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context, appID, appSecret string) (Token, error) {
		calls.Add(1)
		<-release
		return Token{AccessToken: "T1", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}

	m := NewManager(testCreds, fetch)

	const callers = 8
	results := make([]Token, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = m.Token(context.Background())
		}()
	}

	// Let the goroutines queue up behind the in-flight fetch, then settle it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "T1", results[i].AccessToken)
	}
}

func TestRefreshBypassesCache(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	fetch, calls := countingFetch(clock, 7200*time.Second)
	m := NewManager(testCreds, fetch, WithClock(clock))

	first, err := m.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T1", first.AccessToken)

	refreshed, err := m.Refresh(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T2", refreshed.AccessToken)
	assert.Equal(t, int32(2), calls.Load())

	// The refreshed token is served from cache afterwards.
	token, err := m.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T2", token.AccessToken)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMissingCredentialsFailsBeforeFetch(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, appID, appSecret string) (Token, error) {
		calls.Add(1)
		return Token{}, nil
	}

	for _, creds := range []credstore.Credentials{
		{},
		{AppID: "wx123"},
		{AppSecret: "secret"},
	} {
		m := NewManager(creds, fetch)

		_, err := m.Token(t.Context())
		assert.ErrorIs(t, err, ErrMissingCredentials)

		_, err = m.Refresh(t.Context())
		assert.ErrorIs(t, err, ErrMissingCredentials)
	}

	assert.Equal(t, int32(0), calls.Load())
}

func TestFetchErrorsPropagateUnmodified(t *testing.T) {
	fetchErr := errors.New("boom")
	fetch := func(ctx context.Context, appID, appSecret string) (Token, error) {
		return Token{}, fetchErr
	}

	m := NewManager(testCreds, fetch)

	_, err := m.Token(t.Context())
	assert.ErrorIs(t, err, fetchErr)
}

func TestPersistedTokenReusedAcrossManagers(t *testing.T) {
	cache, err := NewFileCache(t.TempDir() + "/token.json")
	require.NoError(t, err)

	fetch1, calls1 := countingFetch(time.Now, 7200*time.Second)
	first := NewManager(testCreds, fetch1, WithCache(cache))

	token, err := first.Token(t.Context())
	require.NoError(t, err)
	require.Equal(t, "T1", token.AccessToken)
	require.Equal(t, int32(1), calls1.Load())

	// A second manager over the same cache file, as a fresh process would
	// build, reuses the persisted token without fetching.
	fetch2, calls2 := countingFetch(time.Now, 7200*time.Second)
	second := NewManager(testCreds, fetch2, WithCache(cache))

	token, err = second.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T1", token.AccessToken)
	assert.Equal(t, int32(0), calls2.Load())
}

func TestCacheWriteFailureIsNotFatal(t *testing.T) {
	fetch, _ := countingFetch(time.Now, 7200*time.Second)
	m := NewManager(testCreds, fetch, WithCache(failingCache{}))

	token, err := m.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "T1", token.AccessToken)
}

type failingCache struct{}

func (failingCache) Load(ctx context.Context, appID string) (Token, error) {
	return Token{}, ErrNoCachedToken
}

func (failingCache) Save(ctx context.Context, appID string, token Token) error {
	return errors.New("disk full")
}
