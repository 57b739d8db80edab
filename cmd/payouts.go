package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/payments"
	"github.com/expendi/expendi-cli/internal/ui"
)

var payoutsCmd = &cobra.Command{
	Use:   "payouts",
	Short: "Inspect and retry mobile-money payouts",
}

var payoutsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payouts that have not been delivered",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		store, err := payments.OpenStore(a.cfg.PayoutDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		pending, err := store.Pending(cmd.Context())
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println(ui.Success("no pending payouts"))
			return nil
		}

		tbl := ui.NewTable([]ui.Column{
			{Title: "TX", Width: 16},
			{Title: "PHONE", Width: 16},
			{Title: "AMOUNT", Width: 14},
			{Title: "LAST ERROR", Width: 32},
		})
		for _, p := range pending {
			tbl.AddRow(ui.Row{
				ui.TruncateAddr(p.TxHash),
				p.Phone,
				p.LocalAmount + " " + p.Currency,
				p.LastError,
			})
		}
		fmt.Println(tbl.Render())
		return nil
	},
}

var payoutsRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-submit every pending payout",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		if a.secrets.PaymentAPIKey == "" {
			return fmt.Errorf("PRETIUM_API_KEY is not set; payouts are not configured")
		}

		store, err := payments.OpenStore(a.cfg.PayoutDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		rail := payments.NewPayouts(payments.NewClient(a.secrets, a.log), store, a.secrets.CallbackURL, a.cfg.PaymentType, a.log)

		spin := ui.NewSpinner("Retrying pending payouts...")
		spin.Start()
		delivered, err := rail.RetryPending(cmd.Context())
		spin.Stop()
		if err != nil {
			return err
		}

		if delivered == 0 {
			fmt.Println(ui.Meta("nothing delivered; failures stay pending for the next retry"))
		} else {
			fmt.Println(ui.Success(fmt.Sprintf("delivered %d payout(s)", delivered)))
		}
		return nil
	},
}

func init() {
	payoutsCmd.AddCommand(payoutsListCmd, payoutsRetryCmd)
}
