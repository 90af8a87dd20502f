// Package cache provides a SQLite-backed response cache so that resumed
// or repeated assembly runs skip URLs that were already fetched.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// DefaultTTL is the default time-to-live for cached responses (7 days).
	// Catalog pages and archive metadata change rarely within one build.
	DefaultTTL = 168 * time.Hour
	// NegativeTTL is the TTL for "not found" responses (24 hours); gaps
	// in the identifier space occasionally fill in.
	NegativeTTL = 24 * time.Hour
)

// Entry is a cached fetch outcome. NotFound records a negative result
// so that repeated harvests do not re-poll known-empty identifiers
// within the negative TTL.
type Entry struct {
	Body     string `json:"body"`
	NotFound bool   `json:"not_found"`
}

// DB manages the SQLite database holding cached responses.
type DB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open creates a DB instance, opens the database and ensures the schema
// exists.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	c := &DB{db: db, path: dbPath}
	if _, err := db.Exec(responseCacheSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), closeErr)
	}
	return c, nil
}

// Close closes the database connection.
func (c *DB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (c *DB) Path() string {
	return c.path
}

// Get retrieves a cached response for the given URL. Returns the entry
// and true on a fresh hit; entries older than their TTL are treated as
// misses. Negative entries expire on the shorter NegativeTTL.
func (c *DB) Get(url string, ttl time.Duration) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var entry Entry
	var cachedAt time.Time
	err := c.db.QueryRow(
		"SELECT body, not_found, cached_at FROM response_cache WHERE url = ?", url,
	).Scan(&entry.Body, &entry.NotFound, &cachedAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to query cache: %w", err)
	}

	maxAge := ttl
	if entry.NotFound && NegativeTTL < maxAge {
		maxAge = NegativeTTL
	}
	if time.Since(cachedAt) > maxAge {
		slog.Debug("Cache entry expired", "url", url, "cached_at", cachedAt)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores a response for the given URL, replacing any prior entry.
func (c *DB) Set(url string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO response_cache (url, body, not_found, cached_at) VALUES (?, ?, ?, ?)",
		url, entry.Body, entry.NotFound, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Invalidate deletes every cached response and returns the number of
// rows removed.
func (c *DB) Invalidate() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.Exec("DELETE FROM response_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Response cache cleared", "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

const responseCacheSchema = `
CREATE TABLE IF NOT EXISTS response_cache (
	url TEXT PRIMARY KEY NOT NULL,
	body TEXT NOT NULL,
	not_found INTEGER NOT NULL DEFAULT 0,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_response_cached_at ON response_cache(cached_at);
`
