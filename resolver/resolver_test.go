package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncortes/newsenrich/cache"
)

// stubStrategy is a scriptable strategy for chain tests.
type stubStrategy struct {
	name  string
	url   string
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Attempt(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.url, s.err
}

func createTestStore(t *testing.T) *cache.Store {
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err, "should open cache")
	t.Cleanup(func() { store.Close() })
	return store
}

// TestResolve_FirstStrategyWins verifies chain order and method recording
func TestResolve_FirstStrategyWins(t *testing.T) {
	first := &stubStrategy{name: "gnewsdecoder", url: "https://diario.example/nota"}
	second := &stubStrategy{name: "decode_token", url: "https://otro.example/nota"}
	r := NewWithStrategies(nil, time.Second, first, second)

	res, err := r.Resolve(context.Background(), "https://news.example/articles/abc")
	require.NoError(t, err)
	assert.Equal(t, "https://diario.example/nota", res.URL)
	assert.Equal(t, "gnewsdecoder", res.Method)
	assert.False(t, res.FromCache)
	assert.Zero(t, second.calls, "later strategies should not run after a success")
}

// TestResolve_FailureAdvancesChain verifies a strategy error falls through to
// the next strategy and its method gets recorded
func TestResolve_FailureAdvancesChain(t *testing.T) {
	failing := &stubStrategy{name: "gnewsdecoder", err: errors.New("endpoint unreachable")}
	redirect := &stubStrategy{name: "follow_redirects", url: "https://diario.example/nota"}
	r := NewWithStrategies(nil, time.Second, failing, redirect)

	res, err := r.Resolve(context.Background(), "https://news.example/articles/abc")
	require.NoError(t, err)
	assert.Equal(t, "follow_redirects", res.Method)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, redirect.calls)
}

// TestResolve_BlockedResultAdvancesChain verifies aggregator-internal URLs
// are rejected even when a strategy returns one
func TestResolve_BlockedResultAdvancesChain(t *testing.T) {
	internal := &stubStrategy{name: "decode_token", url: "https://news.google.com/articles/other"}
	external := &stubStrategy{name: "resolve_via_rss", url: "https://diario.example/nota"}
	r := NewWithStrategies(nil, time.Second, internal, external)

	res, err := r.Resolve(context.Background(), "https://news.google.com/articles/abc")
	require.NoError(t, err)
	assert.Equal(t, "resolve_via_rss", res.Method)
}

// TestResolve_AllStrategiesFail verifies exhaustion yields ErrUnresolved and
// records the failure
func TestResolve_AllStrategiesFail(t *testing.T) {
	store := createTestStore(t)
	a := &stubStrategy{name: "gnewsdecoder", err: errors.New("boom")}
	b := &stubStrategy{name: "decode_token"}
	r := NewWithStrategies(store, time.Second, a, b)

	_, err := r.Resolve(context.Background(), "https://news.example/articles/abc")
	assert.ErrorIs(t, err, ErrUnresolved)

	// Failure is recorded but doesn't become a cache hit.
	_, ok := store.Lookup("https://news.example/articles/abc")
	assert.False(t, ok)
	_, failed, _, statErr := store.Stats()
	require.NoError(t, statErr)
	assert.Equal(t, 1, failed)
}

// TestResolve_CacheShortCircuit verifies a cached link skips every strategy
func TestResolve_CacheShortCircuit(t *testing.T) {
	store := createTestStore(t)
	strategy := &stubStrategy{name: "gnewsdecoder", url: "https://diario.example/nota"}
	r := NewWithStrategies(store, time.Second, strategy)

	link := "https://news.example/articles/abc"
	first, err := r.Resolve(context.Background(), link)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := r.Resolve(context.Background(), link)
	require.NoError(t, err)
	assert.True(t, second.FromCache, "second resolve should come from cache")
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, first.Method, second.Method)
	assert.Equal(t, 1, strategy.calls, "strategy must not run on a cache hit")
}

// TestResolve_CacheWriteFailureKeepsResolution verifies a broken cache never
// costs a resolution the chain already won
func TestResolve_CacheWriteFailureKeepsResolution(t *testing.T) {
	store := createTestStore(t)
	require.NoError(t, store.Close(), "close the store so writes fail")

	strategy := &stubStrategy{name: "gnewsdecoder", url: "https://diario.example/nota"}
	r := NewWithStrategies(store, time.Second, strategy)

	res, err := r.Resolve(context.Background(), "https://news.example/articles/abc")
	require.NoError(t, err, "resolution must survive the failed cache write")
	assert.Equal(t, "https://diario.example/nota", res.URL)
	assert.Equal(t, "gnewsdecoder", res.Method)
}

// TestResolve_CacheWriteFailureOnExhaustion verifies exhaustion still
// reports ErrUnresolved when the failure marker cannot be written
func TestResolve_CacheWriteFailureOnExhaustion(t *testing.T) {
	store := createTestStore(t)
	require.NoError(t, store.Close())

	failing := &stubStrategy{name: "decode_token"}
	r := NewWithStrategies(store, time.Second, failing)

	_, err := r.Resolve(context.Background(), "https://news.example/articles/abc")
	assert.ErrorIs(t, err, ErrUnresolved, "cache errors must not replace the unresolved outcome")
}

// TestResolve_EmptyLink verifies blank input short-circuits to unresolved
func TestResolve_EmptyLink(t *testing.T) {
	strategy := &stubStrategy{name: "gnewsdecoder", url: "https://diario.example/nota"}
	r := NewWithStrategies(nil, time.Second, strategy)

	_, err := r.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.Zero(t, strategy.calls)
}

// TestIsExternalURL covers the validation rules
func TestIsExternalURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"publisher site", "https://diario.example/nota", true},
		{"http scheme", "http://diario.example/nota", true},
		{"aggregator host", "https://news.google.com/articles/abc", false},
		{"static host", "https://www.gstatic.com/x.png", false},
		{"user content host", "https://lh3.googleusercontent.com/img", false},
		{"video host", "https://www.youtube.com/watch?v=x", false},
		{"short video host", "https://youtu.be/x", false},
		{"relative path", "/articles/abc", false},
		{"other scheme", "ftp://diario.example/nota", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExternalURL(tt.url))
		})
	}
}

// TestExtractToken covers the token patterns
func TestExtractToken(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"articles path", "https://news.example/articles/CBMiToken123?oc=5", "CBMiToken123"},
		{"read path", "https://news.example/read/CBMiToken123", "CBMiToken123"},
		{"escaped articles path", "https://news.example/rss?u=articles%2FCBMiToken123&x=1", "CBMiToken123"},
		{"no token", "https://news.example/home", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractToken(tt.link))
		})
	}
}
