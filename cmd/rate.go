package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/payments"
	"github.com/expendi/expendi-cli/internal/ui"
)

var rateCmd = &cobra.Command{
	Use:   "rate [currency]",
	Short: "Quote the mobile-money buying rate for one USDC",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		if a.secrets.PaymentAPIKey == "" {
			return fmt.Errorf("PRETIUM_API_KEY is not set; payouts are not configured")
		}

		currency := a.cfg.PayoutCurrency
		if len(args) == 1 {
			currency = args[0]
		}

		client := payments.NewClient(a.secrets, a.log)

		spin := ui.NewSpinner("Fetching rate...")
		spin.Start()
		rate, err := client.ExchangeRate(cmd.Context(), currency)
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Exchange Rate", [][2]string{
			{"Pair", ui.Val("USDC/" + currency)},
			{"Buying rate", ui.Val(rate.String())},
		}))
		return nil
	},
}
