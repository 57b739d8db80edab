package cmd

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/expendi/expendi-cli/internal/ui"
	"github.com/expendi/expendi-cli/internal/wallet"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage signing wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a signing wallet (key prompted, stored in the OS keychain)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		fmt.Print("Private key (hex): ")
		keyBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}

		a := newApp()
		defer a.close()

		w, err := a.manager.Add(name, "", string(keyBytes))
		if err != nil {
			return err
		}

		if w.IsDefault && a.cfg.DefaultWallet == "" {
			a.cfg.DefaultWallet = w.Name
			if err := a.cfg.Save(); err != nil {
				return err
			}
		}

		fmt.Println(ui.KeyValueBlock("Wallet Added", [][2]string{
			{"Name", ui.Val(w.Name)},
			{"Address", ui.Addr(w.Address)},
			{"Default", fmt.Sprintf("%t", w.IsDefault)},
		}))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		wallets, err := a.manager.List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Println(ui.Meta("No wallets yet — run: expendi wallet add <name>"))
			return nil
		}

		tbl := ui.NewTable([]ui.Column{
			{Title: "NAME", Width: 16},
			{Title: "ADDRESS", Width: 44},
			{Title: "TYPE", Width: 12},
			{Title: "DEFAULT", Width: 8},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = "✓"
			}
			tbl.AddRow(ui.Row{w.Name, w.Address, w.Type, def})
		}
		fmt.Println(tbl.Render())
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its keychain key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		if err := a.manager.Remove(args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Success("removed wallet " + args[0]))
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a wallet's addresses and balances",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		a := newApp()
		defer a.close()

		w, err := a.manager.Get(firstNonEmpty(name, walletName, a.cfg.DefaultWallet))
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Name", ui.Val(w.Name)},
			{"Signer", ui.Addr(w.Address)},
			{"Type", w.Type},
		}

		if w.Type == wallet.TypeSigning {
			signer := wallet.NewSigner(w, a.keystore)
			session := a.session(cmd.Context(), signer)
			if session.Ready() {
				pairs = append(pairs, [2]string{"Smart Account", ui.Addr(session.Address())})
			} else {
				pairs = append(pairs, [2]string{"Smart Account", ui.Meta(session.NotReadyReason())})
			}
		}

		spin := ui.NewSpinner("Fetching balances...")
		spin.Start()
		usdc, usdcErr := a.client.GetTokenBalance(cmd.Context(), usdcAddress(), w.Address)
		eth, ethErr := a.client.GetBalance(cmd.Context(), w.Address)
		spin.Stop()
		if usdcErr == nil {
			pairs = append(pairs, [2]string{"USDC Balance", ui.Val(formatUSDC(usdc))})
		}
		if ethErr == nil {
			pairs = append(pairs, [2]string{"ETH Balance", ui.Val(formatETH(eth))})
		}

		fmt.Println(ui.KeyValueBlock("Wallet", pairs))
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd, walletShowCmd)
}
