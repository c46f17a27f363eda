package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a store backed by a temp file
func createTestStore(t *testing.T) *Store {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := Open(dbPath)
	require.NoError(t, err, "should open cache")
	t.Cleanup(func() { store.Close() })
	return store
}

// TestOpen_CreatesDatabase verifies the schema comes up on a fresh file
func TestOpen_CreatesDatabase(t *testing.T) {
	store := createTestStore(t)

	resolved, failed, contents, err := store.Stats()
	require.NoError(t, err, "should be able to query new database")
	assert.Zero(t, resolved)
	assert.Zero(t, failed)
	assert.Zero(t, contents)
}

// TestLookup_SuccessfulResolution verifies the round trip for a success
func TestLookup_SuccessfulResolution(t *testing.T) {
	store := createTestStore(t)

	err := store.Put("https://news.example/articles/abc", "https://diario.example/nota", "gnewsdecoder", true)
	require.NoError(t, err)

	res, ok := store.Lookup("https://news.example/articles/abc")
	require.True(t, ok, "successful resolution should hit")
	assert.Equal(t, "https://diario.example/nota", res.DirectURL)
	assert.Equal(t, "gnewsdecoder", res.Method)
	assert.True(t, res.OK)
	assert.False(t, res.ResolvedAt.IsZero(), "resolved_at should be set")
}

// TestLookup_FailedResolutionIsNotAHit verifies negative entries don't hit
func TestLookup_FailedResolutionIsNotAHit(t *testing.T) {
	store := createTestStore(t)

	err := store.Put("https://news.example/articles/bad", "", "no_resolution", false)
	require.NoError(t, err)

	_, ok := store.Lookup("https://news.example/articles/bad")
	assert.False(t, ok, "failed resolution must be retried, not served")

	_, failed, _, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, failed, "failure should still be recorded")
}

// TestLookup_UnknownLink verifies a miss on an unseen link
func TestLookup_UnknownLink(t *testing.T) {
	store := createTestStore(t)

	_, ok := store.Lookup("https://news.example/articles/unknown")
	assert.False(t, ok)
}

// TestPut_ReplacesExistingEntry verifies the primary key upsert
func TestPut_ReplacesExistingEntry(t *testing.T) {
	store := createTestStore(t)

	require.NoError(t, store.Put("link", "https://first.example/a", "decode_token", true))
	require.NoError(t, store.Put("link", "https://second.example/b", "follow_redirects", true))

	res, ok := store.Lookup("link")
	require.True(t, ok)
	assert.Equal(t, "https://second.example/b", res.DirectURL)
	assert.Equal(t, "follow_redirects", res.Method)
}

// TestContentCache_RoundTrip verifies content storage and retrieval
func TestContentCache_RoundTrip(t *testing.T) {
	store := createTestStore(t)

	content := Content{
		Title:       "Titular de prueba",
		Body:        "Cuerpo de la noticia con suficiente texto.",
		DateISO:     "2026-03-14T10:30:00",
		Author:      "Redacción",
		Description: "Resumen",
		Words:       7,
		HTTPStatus:  200,
		Method:      "goquery",
		ContentHash: "abc123",
	}
	require.NoError(t, store.PutContent("https://diario.example/nota", content))

	got, ok := store.LookupContent("https://diario.example/nota")
	require.True(t, ok, "cached content should hit")
	assert.Equal(t, content.Title, got.Title)
	assert.Equal(t, content.Body, got.Body)
	assert.Equal(t, content.Words, got.Words)
	assert.Equal(t, content.ContentHash, got.ContentHash)
	assert.False(t, got.CachedAt.IsZero())
}

// TestResolutions_OnlySuccesses verifies the recovery dump excludes failures
func TestResolutions_OnlySuccesses(t *testing.T) {
	store := createTestStore(t)

	require.NoError(t, store.Put("link-ok", "https://diario.example/a", "resolve_via_rss", true))
	require.NoError(t, store.Put("link-bad", "", "no_resolution", false))

	all, err := store.Resolutions()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, "https://diario.example/a", all["link-ok"].DirectURL)
}

// TestClear_RemovesEverything verifies both tables are emptied
func TestClear_RemovesEverything(t *testing.T) {
	store := createTestStore(t)

	require.NoError(t, store.Put("link", "https://diario.example/a", "decode_token", true))
	require.NoError(t, store.PutContent("https://diario.example/a", Content{Title: "t"}))

	require.NoError(t, store.Clear())

	resolved, failed, contents, err := store.Stats()
	require.NoError(t, err)
	assert.Zero(t, resolved)
	assert.Zero(t, failed)
	assert.Zero(t, contents)
}

// TestNilStore_DegradedMode verifies every method is safe on a nil store
func TestNilStore_DegradedMode(t *testing.T) {
	var store *Store

	_, ok := store.Lookup("link")
	assert.False(t, ok)
	assert.NoError(t, store.Put("link", "url", "m", true))

	_, ok = store.LookupContent("url")
	assert.False(t, ok)
	assert.NoError(t, store.PutContent("url", Content{}))

	all, err := store.Resolutions()
	assert.NoError(t, err)
	assert.Empty(t, all)

	assert.NoError(t, store.Clear())
	assert.NoError(t, store.Close())
}
