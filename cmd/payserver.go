package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/payments"
	"github.com/expendi/expendi-cli/internal/ui"
)

var payserverPort int

var payserverCmd = &cobra.Command{
	Use:   "payserver",
	Short: "Run the payment proxy server",
	Long: `Run the HTTP proxy in front of the payment provider.

The proxy keeps the API key server-side and exposes exchange-rate,
payout, status, and webhook endpoints for the dashboard.`,
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

		server := payments.NewServer(payments.NewClient(a.secrets, a.log), store, a.log)

		addr := fmt.Sprintf(":%d", payserverPort)
		fmt.Println(ui.Success("payment proxy listening on " + addr))
		return server.Router().Run(addr)
	},
}

func init() {
	payserverCmd.Flags().IntVarP(&payserverPort, "port", "p", 8787, "listen port")
}
