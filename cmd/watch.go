package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/budget"
	"github.com/expendi/expendi-cli/internal/subgraph"
	"github.com/expendi/expendi-cli/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of bucket balances and monthly usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		svc, _, err := a.service(cmd.Context())
		if err != nil {
			return err
		}

		interval := time.Duration(a.cfg.WatchInterval) * time.Second
		if interval < 3*time.Second {
			interval = 3 * time.Second
		}

		p := tea.NewProgram(ui.WatchModel{Address: svc.Owner().Address})

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go pollBuckets(ctx, p, svc, interval)

		_, err = p.Run()
		return err
	},
}

// pollBuckets feeds the watch view, fetching immediately and then on every
// tick until the program exits.
func pollBuckets(ctx context.Context, p *tea.Program, svc *budget.Service, interval time.Duration) {
	fetch := func() {
		p.Send(ui.WatchStatusMsg{Fetching: true})
		buckets, err := svc.Buckets(ctx)
		if err != nil {
			p.Send(ui.WatchStatusMsg{ErrMsg: err.Error(), UpdatedAt: time.Now()})
			return
		}
		p.Send(ui.BucketsMsg{Rows: watchRows(buckets)})
		p.Send(ui.WatchStatusMsg{UpdatedAt: time.Now()})
	}

	fetch()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fetch()
		}
	}
}

func watchRows(buckets []subgraph.Bucket) []ui.BucketRow {
	rows := make([]ui.BucketRow, 0, len(buckets))
	for _, b := range buckets {
		row := ui.BucketRow{
			Name:    b.Name,
			Balance: formatUSDC(b.BalanceOf(usdcAddress())),
			Spent:   budget.FormatAmount(subgraph.Amount(b.MonthlySpent)),
			Active:  b.Active,
		}
		limit := subgraph.Amount(b.MonthlyLimit)
		if limit.Sign() > 0 {
			row.Limit = budget.FormatAmount(limit)
			spent, _ := budget.ToDecimal(subgraph.Amount(b.MonthlySpent)).Float64()
			max, _ := budget.ToDecimal(limit).Float64()
			row.Usage = spent / max
		}
		rows = append(rows, row)
	}
	return rows
}
