package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Store backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS view_state (
			browser_id   TEXT PRIMARY KEY,
			query        TEXT NOT NULL DEFAULT '',
			player_open  INTEGER NOT NULL DEFAULT 0,
			player_src   TEXT NOT NULL DEFAULT '',
			player_title TEXT NOT NULL DEFAULT '',
			updated_at   INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, id string) (ViewState, bool, error) {
	var (
		st      ViewState
		open    int
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT query, player_open, player_src, player_title, updated_at
		   FROM view_state WHERE browser_id = ?`, id,
	).Scan(&st.Query, &open, &st.PlayerSrc, &st.PlayerTitle, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return ViewState{}, false, nil
	}
	if err != nil {
		return ViewState{}, false, fmt.Errorf("load view state: %w", err)
	}
	st.PlayerOpen = open != 0
	st.UpdatedAt = time.UnixMilli(updated)
	return st, true, nil
}

func (s *SQLite) Save(ctx context.Context, id string, st ViewState) error {
	open := 0
	if st.PlayerOpen {
		open = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO view_state (browser_id, query, player_open, player_src, player_title, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(browser_id) DO UPDATE SET
		   query = excluded.query,
		   player_open = excluded.player_open,
		   player_src = excluded.player_src,
		   player_title = excluded.player_title,
		   updated_at = excluded.updated_at`,
		id, st.Query, open, st.PlayerSrc, st.PlayerTitle, st.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM view_state WHERE browser_id = ?`, id); err != nil {
		return fmt.Errorf("delete view state: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
