package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/sortinghat/internal/api/response"
)

func newCharacterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "character",
		Aliases: []string{"char"},
		Short:   "Character sheet commands",
	}

	cmd.AddCommand(newCharacterListCmd())
	cmd.AddCommand(newCharacterViewCmd())
	cmd.AddCommand(newCharacterDeleteCmd())

	return cmd
}

func characterPath(owner string) string {
	return "/api/v1/characters/" + url.PathEscape(owner)
}

func newCharacterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.CharacterSummary

			if err := client.Get(cmd.Context(), "/api/v1/characters", &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newCharacterViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <owner>",
		Short: "Show a character sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Character

			if err := client.Get(cmd.Context(), characterPath(args[0]), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newCharacterDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <owner>",
		Short: "Delete a character so the owner can register again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}

			if err := client.Delete(cmd.Context(), characterPath(args[0])); err != nil {
				return err
			}

			outputFor(cmd).PrintMessage("Deleted character " + args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")

	return cmd
}
