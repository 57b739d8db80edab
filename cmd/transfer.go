package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/ui"
)

var transferCmd = &cobra.Command{
	Use:   "transfer <from-bucket> <to-bucket> <amount>",
	Short: "Move USDC between two buckets",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		svc, _, err := a.service(cmd.Context())
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(fmt.Sprintf("Moving %s USDC from %q to %q...", args[2], args[0], args[1]))
		spin.Start()
		result, err := svc.Transfer(cmd.Context(), args[0], args[1], args[2])
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Transfer", txResultPairs(result)))
		return nil
	},
}
