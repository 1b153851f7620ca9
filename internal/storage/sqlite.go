package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore хранит данные пользователей в локальном файле SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore открывает файл базы и применяет миграции.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite допускает одного писателя.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := runMigrations(ctx, db, "sqlite3", "migrations/sqlite"); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load возвращает значение по ключу и признак его наличия.
func (s *SQLiteStore) Load(ctx context.Context, user, key string) ([]byte, bool, error) {
	if err := checkUser(user); err != nil {
		return nil, false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM user_data WHERE username = ? AND key = ?`,
		user, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load %s: %w", StorageKey(user, key), err)
	}

	return []byte(value), true, nil
}

// Save сохраняет значение по ключу, перезаписывая предыдущее.
func (s *SQLiteStore) Save(ctx context.Context, user, key string, value []byte) error {
	if err := checkUser(user); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_data (username, key, value, updated_at)
		 VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT (username, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		user, key, string(value),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", StorageKey(user, key), err)
	}

	return nil
}

// SaveMany сохраняет несколько ключей в одной транзакции.
func (s *SQLiteStore) SaveMany(ctx context.Context, user string, values map[string][]byte) error {
	if err := checkUser(user); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, key := range sortedKeys(values) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_data (username, key, value, updated_at)
			 VALUES (?, ?, ?, datetime('now'))
			 ON CONFLICT (username, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			user, key, string(values[key]),
		); err != nil {
			return fmt.Errorf("save %s: %w", StorageKey(user, key), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Delete удаляет перечисленные ключи пользователя.
func (s *SQLiteStore) Delete(ctx context.Context, user string, keys ...string) error {
	if err := checkUser(user); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM user_data WHERE username = ? AND key = ?`,
			user, key,
		); err != nil {
			return fmt.Errorf("delete %s: %w", StorageKey(user, key), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
