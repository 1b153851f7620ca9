// Package storage содержит хранилища пользовательских данных по ключам.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Ключи пользовательских данных.
const (
	KeyProfile            = "user_profile"
	KeyActivities         = "activities"
	KeyAchievements       = "achievements"
	KeySleepMode          = "sleep_mode"
	KeyOnboardingComplete = "onboarding_complete"
	KeyRedeemedCoupons    = "redeemed_coupons"
	KeyRewards            = "rewards_data"
)

// AllKeys возвращает все ключи, под которыми хранятся данные пользователя.
func AllKeys() []string {
	return []string{
		KeyProfile,
		KeyActivities,
		KeyAchievements,
		KeySleepMode,
		KeyOnboardingComplete,
		KeyRedeemedCoupons,
		KeyRewards,
	}
}

var (
	// ErrCorrupted возвращается, если сохранённое значение не удаётся разобрать.
	ErrCorrupted = errors.New("stored value is corrupted")
	// ErrEmptyUser возвращается при обращении без идентификатора пользователя.
	ErrEmptyUser = errors.New("empty user")
)

// Store хранит JSON-значения пользователя по ключам.
type Store interface {
	Load(ctx context.Context, user, key string) ([]byte, bool, error)
	Save(ctx context.Context, user, key string, value []byte) error
	// SaveMany сохраняет несколько ключей атомарно: либо все, либо ни одного.
	SaveMany(ctx context.Context, user string, values map[string][]byte) error
	Delete(ctx context.Context, user string, keys ...string) error
	Close() error
}

// StorageKey возвращает полное имя ключа с префиксом приложения.
func StorageKey(user, key string) string {
	return "carbonos_" + user + "_" + key
}

// goose хранит диалект и файловую систему в глобальном состоянии.
var gooseMu sync.Mutex

func runMigrations(ctx context.Context, db *sql.DB, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// sortedKeys возвращает ключи в фиксированном порядке записи.
func sortedKeys(values map[string][]byte) []string {
	return slices.Sorted(maps.Keys(values))
}

func checkUser(user string) error {
	if user == "" {
		return ErrEmptyUser
	}
	return nil
}
