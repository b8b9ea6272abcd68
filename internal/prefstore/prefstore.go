// Package prefstore persists viewer preferences in SQLite.
package prefstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/boelens/internal/viewer"
)

type Store struct {
	db *sql.DB
}

var _ viewer.PreferenceStore = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS viewer_preferences (
			user_id TEXT PRIMARY KEY,
			zoom_percent INTEGER NOT NULL DEFAULT 100,
			last_tab TEXT NOT NULL DEFAULT '',
			updated_utc TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Load returns the stored preferences of a user, or the defaults when none
// were saved.
func (s *Store) Load(ctx context.Context, userID string) (viewer.Preferences, error) {
	var p viewer.Preferences
	row := s.db.QueryRowContext(ctx,
		`SELECT zoom_percent, last_tab FROM viewer_preferences WHERE user_id = ?`, userID)
	if err := row.Scan(&p.ZoomPercent, &p.LastTab); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return viewer.DefaultPreferences(), nil
		}
		return viewer.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return p.Normalize(), nil
}

// Save upserts the preferences of a user.
func (s *Store) Save(ctx context.Context, userID string, p viewer.Preferences) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO viewer_preferences (user_id, zoom_percent, last_tab, updated_utc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			zoom_percent=excluded.zoom_percent,
			last_tab=excluded.last_tab,
			updated_utc=excluded.updated_utc
	`, userID, p.ZoomPercent, p.LastTab, now); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
