package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/sortinghat/internal/api/middleware"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Admin token helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save <token>",
		Short: "Store the admin token in the token file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.SaveToken(args[0]); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			outputFor(cmd).PrintMessage("Token saved to " + cfg.TokenFile)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "hash <token>",
		Short: "Print the bcrypt hash to configure as API_ADMIN_TOKEN_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := middleware.HashToken(args[0])
			if err != nil {
				return err
			}
			outputFor(cmd).PrintMessage(hash)
			return nil
		},
	})

	return cmd
}
