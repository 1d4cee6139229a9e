// Package db persists movement keys across runs so already-notified
// movements are recognized on later traversals.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type SeenStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the seen-movement database at path.
func Open(path string) (*SeenStore, error) {
	sqlite, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return New(sqlite)
}

// New wraps an existing handle, applying the schema.
func New(sqlite *sql.DB) (*SeenStore, error) {
	if _, err := sqlite.Exec(Schema); err != nil {
		return nil, err
	}
	return &SeenStore{db: sqlite}, nil
}

func (s *SeenStore) Close() error {
	return s.db.Close()
}

func (s *SeenStore) Contains(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM seen_movements WHERE key = ?", key,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Add records a movement key. artifactPath may be empty for movements
// without documents; when set it enables PruneMissing.
func (s *SeenStore) Add(ctx context.Context, key, section, artifactPath string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_movements (key, section, artifact_path, seen_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (key) DO NOTHING`,
		key, section, artifactPath, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// PruneMissing drops keys whose recorded artifact file no longer exists on
// disk, so a manually deleted document gets re-collected on the next run.
// Returns the number of pruned keys.
func (s *SeenStore) PruneMissing(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, artifact_path FROM seen_movements WHERE artifact_path != ''")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var key, path string
		if err := rows.Scan(&key, &path); err != nil {
			return 0, err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			stale = append(stale, key)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, key := range stale {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM seen_movements WHERE key = ?", key); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
