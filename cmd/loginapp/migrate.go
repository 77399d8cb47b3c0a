package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panyam/loginapp/config"
	gormstore "github.com/panyam/loginapp/stores/gorm"
)

// migrateCmd creates or updates the users table for the sql drivers
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users table (sqlite and postgres drivers)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := config.NewLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if !isSQLDriver(cfg.Database.Driver) {
			return fmt.Errorf("driver %q has no schema to migrate", cfg.Database.Driver)
		}
		db, err := gormstore.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
		logger.Info("migrated", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func isSQLDriver(driver string) bool {
	switch driver {
	case "sqlite", "sqlite3", "postgres", "postgresql", "pgx":
		return true
	}
	return false
}
