package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"todo-planner/internal/config"
	"todo-planner/internal/logging"
	"todo-planner/internal/repository"
	"todo-planner/internal/service"
	"todo-planner/internal/storage"
	"todo-planner/internal/store"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	origin     string
	driver     string

	cfg      config.Config
	logger   *log.Logger
	db       *gorm.DB
	backend  storage.Backend
	registry *service.Registry
	closers  []func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "todoplanner",
		Short:         "Task list with categories and due dates",
		Long:          `todoplanner keeps a task list and its categories per origin, persisted after every change. Run "serve" for the Telegram bot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "TOML config file (default $TODO_CONFIG)")
	root.PersistentFlags().StringVarP(&a.origin, "origin", "o", "", "Origin whose list to use (default $TODO_ORIGIN or \"cli\")")
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "Storage driver: sqlite, mysql, file, memory")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newToggleCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newCategoryCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.driver != "" {
		cfg.Storage.Driver = a.driver
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if a.origin != "" {
		cfg.Origin = a.origin
	}
	a.cfg = cfg
	a.logger = logging.New(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := a.openDB()
		if err != nil {
			return err
		}
		a.backend = repository.NewEntryRepository(db)
	case config.DriverMySQL:
		m, err := storage.NewMySQL(ctx, cfg.Storage.MySQLDSN)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		a.closers = append(a.closers, m.Close)
		a.backend = m
	case config.DriverFile:
		f, err := storage.NewFile(cfg.Storage.File)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		a.backend = f
	case config.DriverMemory:
		a.backend = storage.NewMemory()
	}

	a.logger.Debug("storage opened", "driver", cfg.Storage.Driver, "origin", cfg.Origin)
	a.registry = service.NewRegistry(a.backend, a.logger)
	return nil
}

// openDB opens the SQLite database once; it holds entries and bot users.
func (a *app) openDB() (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := repository.NewDB(a.cfg.Storage.DatabaseURL, a.logger)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	a.db = db
	return db, nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// store returns the store of the selected origin.
func (a *app) store(ctx context.Context) (*store.Store, error) {
	return a.registry.Store(ctx, a.cfg.Origin)
}
