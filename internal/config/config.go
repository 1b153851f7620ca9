// Package config содержит логику чтения конфигурации сервиса.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Backend описывает выбранное хранилище данных.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendMemory   Backend = "memory"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	SQLitePath  string `env:"SQLITE_PATH"`
	CatalogFile string `env:"CATALOG_FILE"`
	AuthSecret  string `env:"AUTH_SECRET"`
}

// Backend возвращает хранилище: PostgreSQL, если задан DATABASE_URI, иначе SQLite, иначе память.
func (c *Config) Backend() Backend {
	switch {
	case c.DatabaseURI != "":
		return BackendPostgres
	case c.SQLitePath != "":
		return BackendSQLite
	default:
		return BackendMemory
	}
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "PostgreSQL database URI")
	flag.StringVar(&cfg.SQLitePath, "s", "", "SQLite database file")
	flag.StringVar(&cfg.CatalogFile, "c", "", "YAML file with partner businesses")
	flag.StringVar(&cfg.AuthSecret, "k", "", "secret for signing identity cookies")

	flag.Parse()

	override(&cfg.RunAddress, fromEnv.RunAddress)
	override(&cfg.DatabaseURI, fromEnv.DatabaseURI)
	override(&cfg.SQLitePath, fromEnv.SQLitePath)
	override(&cfg.CatalogFile, fromEnv.CatalogFile)
	override(&cfg.AuthSecret, fromEnv.AuthSecret)

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

func override(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}
