package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/ui"
)

var depositCmd = &cobra.Command{
	Use:   "deposit <amount>",
	Short: "Deposit USDC into the wallet's unallocated pool",
	Long: `Deposit USDC from the acting identity into the budget wallet.

The token approval and the deposit ride a single sponsored user operation
when a bundler key is configured; otherwise they are sent as two
sequential signer-paid transactions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		svc, session, err := a.service(cmd.Context())
		if err != nil {
			return err
		}
		if !session.Ready() {
			fmt.Println(ui.Warn("no gas sponsorship — approve and deposit will be two transactions"))
		}

		spin := ui.NewSpinner(fmt.Sprintf("Depositing %s USDC...", args[0]))
		spin.Start()
		result, err := svc.Deposit(cmd.Context(), args[0])
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Deposit", txResultPairs(result)))
		fmt.Println(ui.Success("deposited — allocate with: expendi fund <bucket> <amount>"))
		return nil
	},
}
