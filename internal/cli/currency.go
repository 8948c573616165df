package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/sortinghat/internal/api/request"
	"github.com/mcoot/sortinghat/internal/api/response"
)

func newCurrencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Grant or deduct Knuts",
	}

	cmd.AddCommand(newCurrencyOpCmd("grant", "Add Knuts to a character's balance"))
	cmd.AddCommand(newCurrencyOpCmd("deduct", "Remove Knuts from a character's balance"))

	return cmd
}

func newCurrencyOpCmd(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " <owner> <knuts>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount < 1 {
				return fmt.Errorf("amount must be a positive whole number of Knuts")
			}

			var result response.Character
			req := request.CurrencyRequest{Amount: amount}
			if err := client.Post(cmd.Context(), characterPath(args[0])+"/currency/"+op, req, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}
