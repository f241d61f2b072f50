package tokenstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
	apperrors "github.com/dipanjanswapna/ongonbd/pkg/errors"
)

// SQLite persists tokens in a small key/value table so a session survives
// restarts of the CLI.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, apperrors.Wrap(err, "failed to create token directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open token database")
	}
	// a single connection keeps :memory: databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "failed to configure token database")
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);`
	if _, err := db.Exec(schema); err != nil {
		return apperrors.Wrap(err, "failed to migrate token database")
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) (token.Pair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE key IN (?, ?)`,
		token.AccessTokenKey, token.RefreshTokenKey)
	if err != nil {
		return token.Pair{}, apperrors.Wrap(err, "failed to load tokens")
	}
	defer rows.Close()

	var pair token.Pair
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return token.Pair{}, apperrors.Wrap(err, "failed to scan token")
		}
		switch key {
		case token.AccessTokenKey:
			pair.AccessToken = value
		case token.RefreshTokenKey:
			pair.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return token.Pair{}, apperrors.Wrap(err, "failed to load tokens")
	}
	return pair, nil
}

func (s *SQLite) SaveAccess(ctx context.Context, value string) error {
	return s.put(ctx, token.AccessTokenKey, value)
}

func (s *SQLite) SaveRefresh(ctx context.Context, value string) error {
	return s.put(ctx, token.RefreshTokenKey, value)
}

// put upserts key, or deletes it when value is empty.
func (s *SQLite) put(ctx context.Context, key, value string) error {
	var err error
	if value == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = strftime('%s', 'now')`,
			key, value)
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to save "+key)
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (?, ?)`,
		token.AccessTokenKey, token.RefreshTokenKey)
	if err != nil {
		return apperrors.Wrap(err, "failed to clear tokens")
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
