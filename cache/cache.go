// Package cache provides the persistent SQLite store that remembers URL
// resolutions and extracted content across runs. A link that resolved once is
// never re-resolved; repeated runs over overlapping row ranges therefore make
// no duplicate network requests.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// maxEntryAge is how long entries are kept before being pruned at open.
const maxEntryAge = 30 * 24 * time.Hour

// Resolution is a cached URL resolution outcome.
type Resolution struct {
	DirectURL  string
	Method     string
	ResolvedAt time.Time
	OK         bool
}

// Content is a cached extraction result for a resolved URL.
type Content struct {
	Title       string
	Body        string
	DateISO     string
	Author      string
	Description string
	Words       int
	HTTPStatus  int
	Method      string
	ContentHash string
	CachedAt    time.Time
}

// Store is the SQLite-backed cache. A nil *Store is valid and behaves as an
// always-empty cache, which is how the pipeline degrades when the cache file
// cannot be opened.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at the given path and prunes
// entries older than 30 days.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	if err := store.pruneOld(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prune cache: %w", err)
	}

	return store, nil
}

// initSchema creates the cache tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS url_resolution (
		google_url TEXT PRIMARY KEY,
		direct_url TEXT,
		method TEXT,
		resolved_at TEXT NOT NULL,
		attempts INTEGER DEFAULT 1,
		success INTEGER DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS content_cache (
		url TEXT PRIMARY KEY,
		title TEXT,
		content TEXT,
		date_iso TEXT,
		author TEXT,
		description TEXT,
		word_count INTEGER,
		http_status INTEGER,
		extraction_method TEXT,
		cached_at TEXT NOT NULL,
		content_hash TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_resolved_at ON url_resolution(resolved_at);
	CREATE INDEX IF NOT EXISTS idx_cached_at ON content_cache(cached_at);
	CREATE INDEX IF NOT EXISTS idx_content_hash ON content_cache(content_hash);
	`

	_, err := s.db.Exec(schema)
	return err
}

// pruneOld removes entries past the retention window.
func (s *Store) pruneOld() error {
	cutoff := time.Now().Add(-maxEntryAge).Format(time.RFC3339)
	if _, err := s.db.Exec("DELETE FROM url_resolution WHERE resolved_at < ?", cutoff); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM content_cache WHERE cached_at < ?", cutoff)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the cached resolution for an obfuscated link. Only
// successful resolutions produce a hit: failed attempts are recorded for
// diagnostics but retried on later runs.
func (s *Store) Lookup(link string) (Resolution, bool) {
	if s == nil {
		return Resolution{}, false
	}

	query := `
		SELECT direct_url, method, resolved_at
		FROM url_resolution
		WHERE google_url = ? AND success = 1
	`

	var res Resolution
	var resolvedAt string
	err := s.db.QueryRow(query, link).Scan(&res.DirectURL, &res.Method, &resolvedAt)
	if err != nil {
		return Resolution{}, false
	}

	res.OK = true
	res.ResolvedAt, _ = time.Parse(time.RFC3339, resolvedAt)
	return res, true
}

// Put records a resolution outcome for an obfuscated link. ok=false stores a
// failure marker without overriding the negative-caching policy in Lookup.
func (s *Store) Put(link, directURL, method string, ok bool) error {
	if s == nil {
		return nil
	}

	success := 0
	if ok {
		success = 1
	}

	query := `
		INSERT OR REPLACE INTO url_resolution
		(google_url, direct_url, method, resolved_at, attempts, success)
		VALUES (?, ?, ?, ?, 1, ?)
	`
	if _, err := s.db.Exec(query, link, directURL, method, time.Now().Format(time.RFC3339), success); err != nil {
		return fmt.Errorf("failed to save resolution: %w", err)
	}
	return nil
}

// LookupContent returns the cached extraction for a resolved URL.
func (s *Store) LookupContent(url string) (Content, bool) {
	if s == nil {
		return Content{}, false
	}

	query := `
		SELECT title, content, date_iso, author, description,
		       word_count, http_status, extraction_method, cached_at, content_hash
		FROM content_cache
		WHERE url = ?
	`

	var c Content
	var cachedAt string
	err := s.db.QueryRow(query, url).Scan(
		&c.Title, &c.Body, &c.DateISO, &c.Author, &c.Description,
		&c.Words, &c.HTTPStatus, &c.Method, &cachedAt, &c.ContentHash,
	)
	if err != nil {
		return Content{}, false
	}

	c.CachedAt, _ = time.Parse(time.RFC3339, cachedAt)
	return c, true
}

// PutContent records an extraction result for a resolved URL.
func (s *Store) PutContent(url string, c Content) error {
	if s == nil {
		return nil
	}

	query := `
		INSERT OR REPLACE INTO content_cache
		(url, title, content, date_iso, author, description,
		 word_count, http_status, extraction_method, cached_at, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		url, c.Title, c.Body, c.DateISO, c.Author, c.Description,
		c.Words, c.HTTPStatus, c.Method, time.Now().Format(time.RFC3339), c.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	return nil
}

// Resolutions returns every successful resolution in the store, newest
// first. Used by the recover command to fill missing workbook rows.
func (s *Store) Resolutions() (map[string]Resolution, error) {
	if s == nil {
		return map[string]Resolution{}, nil
	}

	query := `
		SELECT google_url, direct_url, method, resolved_at
		FROM url_resolution
		WHERE success = 1
		ORDER BY resolved_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := make(map[string]Resolution)
	for rows.Next() {
		var link, resolvedAt string
		var res Resolution
		if err := rows.Scan(&link, &res.DirectURL, &res.Method, &resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		res.OK = true
		res.ResolvedAt, _ = time.Parse(time.RFC3339, resolvedAt)
		// Newest-first ordering: keep the first entry seen per link.
		if _, seen := resolutions[link]; !seen {
			resolutions[link] = res
		}
	}
	return resolutions, rows.Err()
}

// Stats reports entry counts for the cache info command.
func (s *Store) Stats() (resolved, failed, contents int, err error) {
	if s == nil {
		return 0, 0, 0, nil
	}

	if err = s.db.QueryRow("SELECT COUNT(*) FROM url_resolution WHERE success = 1").Scan(&resolved); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count resolutions: %w", err)
	}
	if err = s.db.QueryRow("SELECT COUNT(*) FROM url_resolution WHERE success = 0").Scan(&failed); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count failures: %w", err)
	}
	if err = s.db.QueryRow("SELECT COUNT(*) FROM content_cache").Scan(&contents); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count contents: %w", err)
	}
	return resolved, failed, contents, nil
}

// Clear removes every entry from both tables.
func (s *Store) Clear() error {
	if s == nil {
		return nil
	}

	if _, err := s.db.Exec("DELETE FROM url_resolution"); err != nil {
		return fmt.Errorf("failed to clear resolutions: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM content_cache"); err != nil {
		return fmt.Errorf("failed to clear contents: %w", err)
	}
	return nil
}
