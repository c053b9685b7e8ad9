package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.EnsureAdmin(cmd.Context(), cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			return err
		}
		log.Info("database migrated", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}
