package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/subgraph"
	"github.com/expendi/expendi-cli/internal/ui"
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List buckets with balances and monthly usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		svc, _, err := a.service(cmd.Context())
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Fetching buckets...")
		spin.Start()
		buckets, err := svc.Buckets(cmd.Context())
		spin.Stop()
		if err != nil {
			return err
		}
		if len(buckets) == 0 {
			fmt.Println(ui.Meta("No buckets yet — run: expendi bucket create <name> <monthly-limit>"))
			return nil
		}

		tbl := ui.NewTable([]ui.Column{
			{Title: "BUCKET", Width: 18},
			{Title: "BALANCE", Width: 14},
			{Title: "SPENT", Width: 14},
			{Title: "LIMIT", Width: 14},
			{Title: "ACTIVE", Width: 8},
		})
		for _, b := range buckets {
			limit := "∞"
			if subgraph.Amount(b.MonthlyLimit).Sign() > 0 {
				limit = formatUSDC(subgraph.Amount(b.MonthlyLimit))
			}
			active := "✓"
			if !b.Active {
				active = "✗"
			}
			tbl.AddRow(ui.Row{
				b.Name,
				formatUSDC(b.BalanceOf(usdcAddress())),
				formatUSDC(subgraph.Amount(b.MonthlySpent)),
				limit,
				active,
			})
		}
		fmt.Println(tbl.Render())
		return nil
	},
}

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Create and update buckets",
}

var bucketCreateCmd = &cobra.Command{
	Use:   "create <name> <monthly-limit>",
	Short: "Create a bucket with a monthly spending limit in USDC",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		svc, _, err := a.service(cmd.Context())
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(fmt.Sprintf("Creating bucket %q...", args[0]))
		spin.Start()
		result, err := svc.CreateBucket(cmd.Context(), args[0], args[1])
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Bucket Created", txResultPairs(result)))
		return nil
	},
}

var bucketActive bool

var bucketUpdateCmd = &cobra.Command{
	Use:   "update <name> <monthly-limit>",
	Short: "Change a bucket's monthly limit or active flag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		svc, _, err := a.service(cmd.Context())
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(fmt.Sprintf("Updating bucket %q...", args[0]))
		spin.Start()
		result, err := svc.UpdateBucket(cmd.Context(), args[0], args[1], bucketActive)
		spin.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Bucket Updated", txResultPairs(result)))
		return nil
	},
}

func init() {
	bucketUpdateCmd.Flags().BoolVar(&bucketActive, "active", true, "whether the bucket accepts spends")
	bucketCmd.AddCommand(bucketCreateCmd, bucketUpdateCmd)
}
