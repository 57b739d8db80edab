package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/expendi/expendi-cli/internal/account"
	"github.com/expendi/expendi-cli/internal/budget"
	"github.com/expendi/expendi-cli/internal/chain"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/contract"
	"github.com/expendi/expendi-cli/internal/payments"
	"github.com/expendi/expendi-cli/internal/resolver"
	"github.com/expendi/expendi-cli/internal/subgraph"
	"github.com/expendi/expendi-cli/internal/wallet"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/expendi/expendi-cli/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir     string
	cfg        *config.Config
	verbose    bool
	walletName string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "expendi",
	Short: "Budget wallet CLI for Base",
	Long: `expendi — manage a non-custodial budget wallet from the terminal.

  Partition USDC into named spending buckets with monthly limits,
  fund and spend from them, and pay recipients by address, basename,
  or phone number — gas sponsored when a bundler key is configured.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if envDir := os.Getenv("EXPENDI_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.expendi)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "", "wallet to act as (default: configured default)")

	rootCmd.AddCommand(
		walletCmd,
		setupCmd,
		bucketsCmd,
		bucketCmd,
		depositCmd,
		fundCmd,
		spendCmd,
		transferCmd,
		txsCmd,
		resolveCmd,
		rateCmd,
		payoutsCmd,
		payserverCmd,
		watchCmd,
		configCmd,
	)
}

// app bundles the wiring every on-chain command needs.
type app struct {
	cfg      *config.Config
	secrets  config.Secrets
	client   *chain.EVMClient
	graph    *subgraph.Client
	keystore *wallet.Keystore
	manager  *wallet.Manager
	log      *zap.Logger
	cleanup  []func()
}

func newApp() *app {
	log := zap.NewNop()
	if verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	return &app{
		cfg:      cfg,
		secrets:  config.LoadSecrets(cfg.Dir()),
		client:   chain.NewEVMClient(cfg.RPCURL()),
		graph:    subgraph.NewClient(config.Base.SubgraphURL),
		keystore: wallet.DefaultKeystore(),
		manager:  wallet.NewManager(cfg, wallet.DefaultKeystore()),
		log:      log,
	}
}

func (a *app) close() {
	for _, fn := range a.cleanup {
		fn()
	}
}

func (a *app) signer() (*wallet.Signer, error) {
	w, err := a.manager.Get(firstNonEmpty(walletName, a.cfg.DefaultWallet))
	if err != nil {
		return nil, err
	}
	return wallet.NewSigner(w, a.keystore), nil
}

// session builds the sponsored path. Setup failures degrade to the direct
// path instead of blocking the command.
func (a *app) session(ctx context.Context, signer *wallet.Signer) *account.Session {
	session := account.NewSession(a.client, signer, config.Base, a.secrets.BundlerAPIKey)
	if err := session.Setup(ctx); err != nil {
		a.log.Warn("sponsorship unavailable", zap.Error(err))
	}
	return session
}

func (a *app) direct(signer *wallet.Signer) account.Submitter {
	sender := contract.NewSender(a.client, contract.BudgetWallet, signer, chainIDBig())
	return account.NewDirectSubmitter(sender, signer)
}

// payouts opens the payout rail when the payment API is configured.
// Returns nil otherwise; phone spends then fail with a clear message.
func (a *app) payouts() budget.Payouts {
	if a.secrets.PaymentAPIKey == "" {
		return nil
	}
	store, err := payments.OpenStore(a.cfg.PayoutDBPath)
	if err != nil {
		a.log.Warn("payout store unavailable", zap.Error(err))
		return nil
	}
	a.cleanup = append(a.cleanup, func() { store.Close() })
	client := payments.NewClient(a.secrets, a.log)
	return payments.NewPayouts(client, store, a.secrets.CallbackURL, a.cfg.PaymentType, a.log)
}

// service wires the full operation stack for the acting wallet.
func (a *app) service(ctx context.Context) (*budget.Service, *account.Session, error) {
	signer, err := a.signer()
	if err != nil {
		return nil, nil, err
	}
	session := a.session(ctx, signer)
	svc := budget.NewService(
		a.client,
		a.graph,
		session,
		a.direct(signer),
		resolver.New(a.client, config.Base),
		a.payouts(),
		config.Base,
		a.cfg,
	)
	return svc, session, nil
}

func chainIDBig() *big.Int {
	return big.NewInt(config.Base.ChainID)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
