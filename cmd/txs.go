package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/subgraph"
	"github.com/expendi/expendi-cli/internal/ui"
)

var txsLimit int

var txsCmd = &cobra.Command{
	Use:   "txs",
	Short: "Show recent wallet activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		svc, _, err := a.service(cmd.Context())
		if err != nil {
			return err
		}
		owner := svc.Owner().Address

		spin := ui.NewSpinner("Fetching history...")
		spin.Start()
		deposits, err := a.graph.Deposits(cmd.Context(), owner, txsLimit)
		if err != nil {
			spin.Stop()
			return err
		}
		withdrawals, err := a.graph.Withdrawals(cmd.Context(), owner, txsLimit)
		if err != nil {
			spin.Stop()
			return err
		}
		transfers, err := a.graph.BucketTransfers(cmd.Context(), owner, txsLimit)
		spin.Stop()
		if err != nil {
			return err
		}

		if len(deposits)+len(withdrawals)+len(transfers) == 0 {
			fmt.Println(ui.Meta("No activity yet"))
			return nil
		}

		if len(deposits) > 0 {
			fmt.Println(ui.Val("Deposits"))
			tbl := ui.NewTable([]ui.Column{
				{Title: "WHEN", Width: 17},
				{Title: "AMOUNT", Width: 14},
				{Title: "BUCKET", Width: 16},
				{Title: "TX", Width: 16},
			})
			for _, d := range deposits {
				tbl.AddRow(ui.Row{
					txTime(d.Timestamp),
					formatUSDC(subgraph.Amount(d.Amount)),
					d.Bucket.Name,
					ui.TruncateAddr(d.TransactionHash),
				})
			}
			fmt.Println(tbl.Render())
		}

		if len(withdrawals) > 0 {
			fmt.Println(ui.Val("Spends"))
			tbl := ui.NewTable([]ui.Column{
				{Title: "WHEN", Width: 17},
				{Title: "AMOUNT", Width: 14},
				{Title: "BUCKET", Width: 16},
				{Title: "RECIPIENT", Width: 16},
				{Title: "TX", Width: 16},
			})
			for _, w := range withdrawals {
				tbl.AddRow(ui.Row{
					txTime(w.Timestamp),
					formatUSDC(subgraph.Amount(w.Amount)),
					w.Bucket.Name,
					ui.TruncateAddr(w.Recipient),
					ui.TruncateAddr(w.TransactionHash),
				})
			}
			fmt.Println(tbl.Render())
		}

		if len(transfers) > 0 {
			fmt.Println(ui.Val("Transfers"))
			tbl := ui.NewTable([]ui.Column{
				{Title: "WHEN", Width: 17},
				{Title: "AMOUNT", Width: 14},
				{Title: "FROM", Width: 16},
				{Title: "TO", Width: 16},
				{Title: "TX", Width: 16},
			})
			for _, t := range transfers {
				tbl.AddRow(ui.Row{
					txTime(t.Timestamp),
					formatUSDC(subgraph.Amount(t.Amount)),
					t.FromBucket.Name,
					t.ToBucket.Name,
					ui.TruncateAddr(t.TransactionHash),
				})
			}
			fmt.Println(tbl.Render())
		}
		return nil
	},
}

func txTime(ts string) string {
	n := subgraph.Timestamp(ts)
	if n == 0 {
		return "-"
	}
	return time.Unix(n, 0).Format("Jan 02 15:04")
}

func init() {
	txsCmd.Flags().IntVarP(&txsLimit, "limit", "n", 10, "max entries per section")
}
