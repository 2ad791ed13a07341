package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"motomarket-chat/internal/auth"
)

var tokenRole string

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a session token signed with JWT_SECRET",
	Long: `Mint a session token for local testing.

Examples:
  motomarket-chat token u1
  motomarket-chat token ops --role admin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL).Issue(args[0], tokenRole)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "role claim, e.g. "+auth.RoleAdmin)
}
