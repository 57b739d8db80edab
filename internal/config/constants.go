package config

import "time"

// Network holds the static Base-mainnet deployment the product runs against.
// The contracts and the subgraph are only deployed on Base, so unlike RPC
// endpoints these are not user-configurable.
type Network struct {
	ChainID           int64
	Name              string
	RPCURL            string
	BlockExplorer     string
	FactoryAddress    string
	BudgetWalletImpl  string
	USDCAddress       string
	SubgraphURL       string
	ResolverAddress   string
	SettlementAddress string
	BundlerURL        string
}

// Base is the production network. BundlerURL carries no API key; the key is
// appended at session setup from the environment.
var Base = Network{
	ChainID:           8453,
	Name:              "Base Mainnet",
	RPCURL:            "https://mainnet.base.org",
	BlockExplorer:     "https://basescan.org",
	FactoryAddress:    "0x82eA29c17EE7eE9176CEb37F728Ab1967C4993a5",
	BudgetWalletImpl:  "0x4B80e374ff1639B748976a7bF519e2A35b43Ca26",
	USDCAddress:       "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	SubgraphURL:       "https://api.studio.thegraph.com/query/118246/expendi-base/v1.0.0",
	ResolverAddress:   "0xC6d566A56A1aFf6508b41f6c90ff131615583BCD",
	SettlementAddress: "0x8005ee53E57aB11E11eAA4EFe07Ee3835Dc02F98",
	BundlerURL:        "https://api.pimlico.io/v2/8453/rpc",
}

const (
	// USDCDecimals is fixed by the token contract.
	USDCDecimals = 6

	// ZeroAddress marks native ETH in contract token arguments.
	ZeroAddress = "0x0000000000000000000000000000000000000000"

	// UnallocatedBucket is the sentinel bucket holding un-budgeted deposits.
	UnallocatedBucket = "UNALLOCATED"

	// Wallet-creation polling budget: the subgraph usually indexes a new
	// wallet within a couple of blocks, but can lag under load.
	WalletPollAttempts = 10
	WalletPollInterval = 3 * time.Second

	// ConfirmationTimeout bounds the wait for a sponsored user operation
	// to land on-chain.
	ConfirmationTimeout = 60 * time.Second

	// RefetchDelay is how long to wait after a successful write before
	// re-reading subgraph state.
	RefetchDelay = time.Second
)
