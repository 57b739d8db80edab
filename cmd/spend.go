package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/budget"
	"github.com/expendi/expendi-cli/internal/resolver"
	"github.com/expendi/expendi-cli/internal/ui"
)

var spendYes bool

var spendCmd = &cobra.Command{
	Use:   "spend <bucket> <amount> <recipient>",
	Short: "Pay a recipient from a bucket",
	Long: `Spend USDC from a bucket. The recipient may be:

  an address       0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045
  a basename       jesse.base.eth (or just "jesse")
  a phone number   +254712345678 — settles on-chain, then pays out
                   mobile money in the configured currency`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, amount, recipient := args[0], args[1], args[2]

		a := newApp()
		defer a.close()

		svc, _, err := a.service(cmd.Context())
		if err != nil {
			return err
		}

		kind := resolver.Classify(recipient)
		if kind == resolver.KindInvalid {
			return fmt.Errorf("recipient %q is not an address, a name, or a phone number", recipient)
		}

		if !spendYes {
			fmt.Println(ui.KeyValueBlock("Spend", [][2]string{
				{"Bucket", ui.BucketName(bucket)},
				{"Amount", ui.Val(amount + " USDC")},
				{"Recipient", ui.Addr(recipient)},
				{"Kind", ui.Meta(kind.String())},
			}))
			if !confirm("Proceed?") {
				return budget.ErrUserRejected
			}
		}

		spin := ui.NewSpinner("Submitting spend...")
		spin.Start()
		result, err := svc.Spend(cmd.Context(), bucket, amount, recipient)
		spin.Stop()

		// A phone spend can settle on-chain and still fail its payout leg;
		// show the hash so the pending payout can be retried.
		if err != nil {
			if result != nil && result.TxHash != "" {
				fmt.Println(ui.Warn("on-chain spend settled: " + result.TxHash))
				fmt.Println(ui.Meta("  retry the payout with: expendi payouts retry"))
			}
			return err
		}

		pairs := txResultPairs(&result.TxResult)
		pairs = append(pairs, [2]string{"Recipient", ui.Addr(result.Recipient)})
		if result.Payout != nil {
			pairs = append(pairs,
				[2]string{"Payout", ui.Val(result.Payout.LocalAmount.StringFixed(2) + " " + result.Payout.Currency)},
				[2]string{"Receipt", ui.Meta(result.Payout.ReceiptID)},
			)
		}
		fmt.Println(ui.KeyValueBlock("Spend Complete", pairs))
		return nil
	},
}

// confirm reads a y/N answer from stdin. Anything but an explicit yes is no.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	spendCmd.Flags().BoolVarP(&spendYes, "yes", "y", false, "skip the confirmation prompt")
}
