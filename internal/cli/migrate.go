package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"motomarket-chat/internal/config"
	"motomarket-chat/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StoreDriver != config.StorePostgres {
			return fmt.Errorf("migrate only applies to the postgres store, got %q", cfg.StoreDriver)
		}
		ctx := cmd.Context()
		database, err := db.Connect(ctx, cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer database.Close()

		if err := db.Migrate(ctx, database, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	},
}
