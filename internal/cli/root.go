// Package cli содержит команды локальной утилиты carbonctl.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/carbonos/internal/catalog"
	"github.com/mmeshcher/carbonos/internal/service"
	"github.com/mmeshcher/carbonos/internal/storage"
)

type app struct {
	dbPath      string
	user        string
	catalogFile string
	verbose     bool
	asJSON      bool

	logger *zap.Logger
	svc    *service.Service
}

// NewRootCmd собирает дерево команд carbonctl.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "carbonctl",
		Short: "Track your carbon footprint from the terminal",
		Long: `carbonctl logs activities, shows emissions against the national average
and manages streak points and partner coupons. Data is kept in a local
SQLite file, separately for every user.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dbPath, "db", defaultDBPath(), "SQLite database file")
	flags.StringVarP(&a.user, "user", "u", os.Getenv("USER"), "user whose data is used")
	flags.StringVar(&a.catalogFile, "catalog", "", "YAML file with partner businesses")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		a.logCmd(),
		a.activitiesCmd(),
		a.summaryCmd(),
		a.seriesCmd(),
		a.rewardsCmd(),
		a.businessesCmd(),
		a.redeemCmd(),
		a.couponsCmd(),
		a.useCmd(),
		a.insightsCmd(),
		a.sleepCmd(),
		a.clearCmd(),
	)

	return root
}

// Execute запускает carbonctl с аргументами командной строки.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "carbonos.db"
	}
	return filepath.Join(home, ".carbonos", "carbonos.db")
}

func (a *app) open(cmd *cobra.Command, args []string) error {
	if a.user == "" {
		return fmt.Errorf("user is not set: pass --user or set $USER")
	}

	a.logger = zap.NewNop()
	if a.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		a.logger = logger
	}

	if err := os.MkdirAll(filepath.Dir(a.dbPath), 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(cmd.Context(), a.dbPath)
	if err != nil {
		return err
	}
	a.logger.Debug("store opened", zap.String("path", a.dbPath), zap.String("user", a.user))

	var opts []service.Option
	if a.catalogFile != "" {
		businesses, err := catalog.LoadFile(a.catalogFile)
		if err != nil {
			store.Close()
			return err
		}
		opts = append(opts, service.WithCatalog(businesses))
	}

	a.svc = service.NewService(store, opts...)
	return nil
}

func (a *app) close() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.svc == nil {
		return nil
	}
	return a.svc.Close()
}

// print выводит v как JSON при --json, иначе вызывает text.
func (a *app) print(w io.Writer, v any, text func(w io.Writer)) error {
	if a.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
