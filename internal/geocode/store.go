package geocode

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openmat/matdir/internal/domain"
)

// Store is the durable tier of the geocode cache: a local SQLite file that
// survives restarts. Only successful resolutions are written; entries are
// never overwritten or expired.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	key        TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// OpenStore opens (creating if needed) the cache database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init geocode cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached coordinate for a normalized key, if present.
func (s *Store) Get(key string) (domain.Coordinate, bool, error) {
	var c domain.Coordinate
	err := s.db.QueryRow(
		"SELECT lat, lon FROM geocode_cache WHERE key = ?", key,
	).Scan(&c.Lat, &c.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinate{}, false, nil
	}
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("read geocode cache: %w", err)
	}
	return c, true, nil
}

// Put records a successful resolution. Existing entries win: keys are
// content-addressed by query, so a second write for the same key is a
// no-op rather than an update.
func (s *Store) Put(key string, c domain.Coordinate) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO geocode_cache (key, lat, lon) VALUES (?, ?, ?)",
		key, c.Lat, c.Lon,
	)
	if err != nil {
		return fmt.Errorf("write geocode cache: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
