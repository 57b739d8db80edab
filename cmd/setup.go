package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expendi/expendi-cli/internal/account"
	"github.com/expendi/expendi-cli/internal/budget"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/contract"
	"github.com/expendi/expendi-cli/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the budget wallet for the acting signer",
	Long: `Provision the on-chain budget wallet.

Checks whether either identity (the signer or its smart account) already
has a wallet; if so nothing is written. Otherwise the factory call is
submitted — gas-sponsored when a bundler key is configured — and the
command waits for the indexer to pick the wallet up.

Running setup against an already-provisioned signer is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.close()

		signer, err := a.signer()
		if err != nil {
			return err
		}
		// The sponsorship handshake runs before provisioning proper, so it
		// gets its own spinner phase.
		sessionSpin := ui.NewSpinner(budget.PhaseWaitingSmartAccount.String() + "...")
		sessionSpin.Start()
		session := a.session(cmd.Context(), signer)
		sessionSpin.Stop()
		if !session.Ready() {
			fmt.Println(ui.Warn("gas sponsorship unavailable: " + session.NotReadyReason()))
			fmt.Println(ui.Meta("  falling back to signer-paid transactions"))
		}

		spin := ui.NewSpinner(budget.PhaseChecking.String() + "...")
		spin.Start()

		sender := contract.NewSender(a.client, contract.Factory, signer, chainIDBig())
		direct := account.NewDirectSubmitter(sender, signer)
		provisioner := budget.NewProvisioner(a.client, a.graph, session, direct, config.Base, func(phase budget.ProvisionPhase) {
			spin.SetMessage(phase.String() + "...")
		})

		result, err := provisioner.EnsureWallet(cmd.Context(), signer.Address())
		spin.Stop()
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Wallet", ui.Addr(result.WalletAddress)},
			{"Owner", ui.Addr(result.Owner.String())},
		}
		if result.Created {
			pairs = append(pairs, [2]string{"Tx", ui.Addr(result.TxHash)})
		} else {
			pairs = append(pairs, [2]string{"Status", ui.Meta("already provisioned")})
		}
		fmt.Println(ui.KeyValueBlock("Budget Wallet", pairs))

		if result.IndexerLagged {
			fmt.Println(ui.Warn("the indexer is trailing; history views may take a minute to catch up"))
		}
		if result.Created {
			fmt.Println(ui.Success("wallet ready — fund it with: expendi deposit <amount>"))
		}

		if !a.cfg.OnboardingDone {
			a.cfg.OnboardingDone = true
			if err := a.cfg.Save(); err != nil {
				return err
			}
		}
		return nil
	},
}
