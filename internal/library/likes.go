// Package library caches the user's liked songs in SQLite so the queue view
// can mark them without a round trip.
package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const dbFileName = "likes.db"

const schema = `
CREATE TABLE IF NOT EXISTS liked_tracks (
	uri      TEXT PRIMARY KEY,
	added_at INTEGER NOT NULL
);
`

// Liked is one liked song.
type Liked struct {
	URI     string
	AddedAt time.Time
}

// Likes is the liked-songs cache. Reads are served from memory; writes go
// to both memory and the database.
type Likes struct {
	db *sql.DB

	mu  sync.RWMutex
	set map[string]time.Time
}

// DefaultPath returns $XDG_CACHE_HOME/cadence/likes.db.
func DefaultPath() (string, error) {
	return xdg.CacheFile(filepath.Join("cadence", dbFileName))
}

// Open opens the cache at path, creating it if needed, and loads it. An
// empty path selects DefaultPath.
func Open(path string) (*Likes, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cache path: %w", err)
		}
		path = p
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open likes cache: %w", err)
	}
	// one connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	l := &Likes{db: db, set: make(map[string]time.Time)}
	if err := l.load(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Likes) load() error {
	rows, err := l.db.Query(`SELECT uri, added_at FROM liked_tracks`)
	if err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}
	defer rows.Close()

	set := make(map[string]time.Time)
	for rows.Next() {
		var uri string
		var added int64
		if err := rows.Scan(&uri, &added); err != nil {
			return fmt.Errorf("failed to load likes: %w", err)
		}
		set[uri] = time.Unix(added, 0)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}

	l.mu.Lock()
	l.set = set
	l.mu.Unlock()
	return nil
}

// Close closes the database.
func (l *Likes) Close() error {
	return l.db.Close()
}

// Contains reports whether uri is liked.
func (l *Likes) Contains(uri string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.set[uri]
	return ok
}

// Len returns the number of liked songs.
func (l *Likes) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.set)
}

// Replace swaps the whole cache for tracks in one transaction.
func (l *Likes) Replace(tracks []Liked) error {
	err := withTx(l.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM liked_tracks`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO liked_tracks (uri, added_at) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, t := range tracks {
			if _, err := stmt.Exec(t.URI, t.AddedAt.Unix()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save likes: %w", err)
	}

	set := make(map[string]time.Time, len(tracks))
	for _, t := range tracks {
		set[t.URI] = t.AddedAt
	}
	l.mu.Lock()
	l.set = set
	l.mu.Unlock()
	return nil
}

// Set marks uri liked or not liked.
func (l *Likes) Set(uri string, liked bool) error {
	now := time.Now()
	var err error
	if liked {
		_, err = l.db.Exec(`INSERT OR REPLACE INTO liked_tracks (uri, added_at) VALUES (?, ?)`, uri, now.Unix())
	} else {
		_, err = l.db.Exec(`DELETE FROM liked_tracks WHERE uri = ?`, uri)
	}
	if err != nil {
		return fmt.Errorf("failed to update likes: %w", err)
	}

	l.mu.Lock()
	if liked {
		l.set[uri] = now
	} else {
		delete(l.set, uri)
	}
	l.mu.Unlock()
	return nil
}

// withTx runs fn in a transaction, rolling back when it fails.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
