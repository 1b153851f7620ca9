package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore хранит данные пользователей в PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	delays []time.Duration
}

// NewPostgresStore создаёт хранилище и инициализирует схему БД через миграции.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := runMigrations(ctx, db, "postgres", "migrations/postgres"); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(s.delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(s.delays) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delays[i]):
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Load возвращает значение по ключу и признак его наличия.
func (s *PostgresStore) Load(ctx context.Context, user, key string) ([]byte, bool, error) {
	if err := checkUser(user); err != nil {
		return nil, false, err
	}

	var value []byte
	err := s.withRetry(ctx, func() error {
		return s.pool.QueryRow(ctx,
			`SELECT value FROM user_data WHERE username = $1 AND key = $2`,
			user, key,
		).Scan(&value)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load %s: %w", StorageKey(user, key), err)
	}

	return value, true, nil
}

// Save сохраняет значение по ключу, перезаписывая предыдущее.
func (s *PostgresStore) Save(ctx context.Context, user, key string, value []byte) error {
	if err := checkUser(user); err != nil {
		return err
	}

	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO user_data (username, key, value, updated_at)
			 VALUES ($1, $2, $3, now())
			 ON CONFLICT (username, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			user, key, string(value),
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation {
			return fmt.Errorf("%w: %s", ErrCorrupted, StorageKey(user, key))
		}
		return fmt.Errorf("save %s: %w", StorageKey(user, key), err)
	}

	return nil
}

// SaveMany сохраняет несколько ключей в одной транзакции.
func (s *PostgresStore) SaveMany(ctx context.Context, user string, values map[string][]byte) error {
	if err := checkUser(user); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	err := s.withRetry(ctx, func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		for _, key := range sortedKeys(values) {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_data (username, key, value, updated_at)
				 VALUES ($1, $2, $3, now())
				 ON CONFLICT (username, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
				user, key, string(values[key]),
			); err != nil {
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation {
			return fmt.Errorf("%w: user %s", ErrCorrupted, user)
		}
		return fmt.Errorf("save user data: %w", err)
	}

	return nil
}

// Delete удаляет перечисленные ключи пользователя.
func (s *PostgresStore) Delete(ctx context.Context, user string, keys ...string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	err := s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx,
			`DELETE FROM user_data WHERE username = $1 AND key = ANY($2)`,
			user, keys,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete user data: %w", err)
	}

	return nil
}
