package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"procurement-backend/internal/infrastructure/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Run gorm AutoMigrate for every table the workflow uses.
Handy for local setups; production schemas are owned by the DBA scripts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			gdb, err := db.Open(cfg, log)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer func() {
				if sqlDB, err := gdb.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()

			log.Info("running migrations")
			if err := db.Migrate(gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations done")
			return nil
		},
	}
}
