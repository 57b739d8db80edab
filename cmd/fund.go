package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/ui"
)

var fundCmd = &cobra.Command{
	Use:   "fund <bucket> <amount>",
	Short: "Move unallocated USDC into a bucket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		svc, _, err := a.service(cmd.Context())
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(fmt.Sprintf("Funding %q with %s USDC...", args[0], args[1]))
		spin.Start()
		result, err := svc.Fund(cmd.Context(), args[0], args[1])
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Bucket Funded", txResultPairs(result)))
		return nil
	},
}
