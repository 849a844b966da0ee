package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	_ "github.com/mattn/go-sqlite3"
)

var _ Storage = (*SQLiteStorage)(nil)

type SQLiteStorage struct {
	conn *sql.DB
}

func OpenSQLiteStorage(ctx context.Context, dbFile string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(dbFile), 0o700); err != nil {
		return nil, fmt.Errorf("[SQLiteStorage] create folder: %w", err)
	}
	conn, err := sql.Open("sqlite3", dbFile)
	if err != nil {
		return nil, fmt.Errorf("[SQLiteStorage] open %s: %w", dbFile, err)
	}

	query := `
    CREATE TABLE IF NOT EXISTS credentials (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL
    )`
	if _, err := conn.ExecContext(ctx, query); err != nil {
		conn.Close()
		return nil, fmt.Errorf("[SQLiteStorage] initialise schema: %w", err)
	}
	return &SQLiteStorage{conn: conn}, nil
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, "SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrapf(apperrors.ErrStorage, "select %s: %v", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO credentials (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "upsert %s: %v", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM credentials WHERE key IN ("+placeholders+")", args...); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "delete: %v", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.conn.Close()
}
