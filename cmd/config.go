package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change CLI settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs := [][2]string{
			{"Default wallet", ui.Val(firstNonEmpty(cfg.DefaultWallet, "(none)"))},
			{"Payout currency", ui.Val(cfg.PayoutCurrency)},
			{"Mobile network", ui.Val(cfg.MobileNetwork)},
			{"Payment type", ui.Val(cfg.PaymentType)},
			{"Watch interval", ui.Val(fmt.Sprintf("%ds", cfg.WatchInterval))},
			{"RPC", ui.Meta(cfg.RPCURL())},
			{"Payout DB", ui.Meta(cfg.PayoutDBPath)},
		}
		fmt.Println(ui.KeyValueBlock("Configuration", pairs))
		if len(cfg.CustomRPCs) > 1 {
			fmt.Println(ui.Meta("additional RPCs:"))
			for _, u := range cfg.CustomRPCs[1:] {
				fmt.Println(ui.Meta("  " + u))
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Keys:

  default-wallet    wallet name used when --wallet is not given
  currency          ISO code for mobile payouts, e.g. KES
  mobile-network    Safaricom | Airtel
  payment-type      MOBILE | PAYBILL | BUY_GOODS
  watch-interval    refresh period for the watch view, in seconds`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		switch key {
		case "default-wallet":
			cfg.DefaultWallet = value
		case "currency":
			cfg.PayoutCurrency = strings.ToUpper(value)
		case "mobile-network":
			cfg.MobileNetwork = value
		case "payment-type":
			cfg.PaymentType = strings.ToUpper(value)
		case "watch-interval":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return fmt.Errorf("watch-interval must be a positive number of seconds, got %q", value)
			}
			cfg.WatchInterval = n
		default:
			return fmt.Errorf("unknown config key %q", key)
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(key + " updated"))
		return nil
	},
}

var configRPCCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage custom RPC endpoints",
}

var configRPCAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a custom RPC endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.AddRPC(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("added " + args[0]))
		return nil
	},
}

var configRPCRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove a custom RPC endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("removed " + args[0]))
		return nil
	},
}

func init() {
	configRPCCmd.AddCommand(configRPCAddCmd, configRPCRemoveCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configRPCCmd)
}
