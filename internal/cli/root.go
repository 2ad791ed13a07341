// Package cli provides the motomarket-chat command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"motomarket-chat/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	storeOverride string

	cfg    config.Config
	logger *slog.Logger
	// closeLog flushes the log file, if any.
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "motomarket-chat",
	Short: "Buyer/seller chat service for the two-wheeler marketplace",
	Long: `motomarket-chat runs the realtime chat between buyers and sellers of
vehicle listings: REST endpoints for chat rooms and history, a WebSocket
endpoint for live delivery, and admin maintenance commands.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if storeOverride != "" {
			cfg.StoreDriver = storeOverride
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		logger = logger.With("service", cfg.ServiceName)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = closeLog()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeOverride, "store", "", "message store driver (postgres, firestore, memory); overrides STORE_DRIVER")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(clearChatsCmd)
	rootCmd.AddCommand(tokenCmd)
}
