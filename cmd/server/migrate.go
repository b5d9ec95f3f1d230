package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrilinkchain/agrilink/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the identity tables and collections in Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Backend != config.BackendPostgres {
			return fmt.Errorf("migrate requires BACKEND=%s, got %q", config.BackendPostgres, cfg.Backend)
		}
		store, err := connectPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
		return nil
	},
}
