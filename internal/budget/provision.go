// Package budget implements the wallet provisioning workflow and the bucket
// operations: create, fund, spend, transfer, deposit.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/expendi/expendi-cli/internal/account"
	"github.com/expendi/expendi-cli/internal/chain"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/contract"
	"github.com/expendi/expendi-cli/internal/retry"
	"github.com/expendi/expendi-cli/internal/subgraph"
)

// ProvisionPhase is the externally visible progress of a provisioning run.
type ProvisionPhase int

const (
	// PhaseWaitingSmartAccount covers the sponsorship handshake that runs
	// before the provisioner itself starts.
	PhaseWaitingSmartAccount ProvisionPhase = iota
	PhaseChecking
	PhaseCreating
	PhaseWaitingIndex
	PhaseCompleted
)

func (p ProvisionPhase) String() string {
	switch p {
	case PhaseWaitingSmartAccount:
		return "waiting for the smart account"
	case PhaseChecking:
		return "checking for existing wallet"
	case PhaseCreating:
		return "creating wallet"
	case PhaseWaitingIndex:
		return "waiting for the indexer"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Provision is the outcome of EnsureWallet.
type Provision struct {
	WalletAddress string
	Owner         account.Owner
	Created       bool
	TxHash        string
	// IndexerLagged is set when the wallet confirmed on-chain but the
	// subgraph had not indexed it within the polling budget. The wallet is
	// usable; history views may trail briefly.
	IndexerLagged bool
}

// Provisioner drives wallet creation end to end: existence check, factory
// call, and the indexing wait.
type Provisioner struct {
	client  *chain.EVMClient
	graph   *subgraph.Client
	session *account.Session
	direct  account.Submitter
	network config.Network
	onPhase func(ProvisionPhase)

	pollAttempts int
	pollInterval time.Duration

	mu       sync.Mutex
	inflight map[string]bool
}

// NewProvisioner creates a Provisioner. onPhase may be nil.
func NewProvisioner(client *chain.EVMClient, graph *subgraph.Client, session *account.Session, direct account.Submitter, network config.Network, onPhase func(ProvisionPhase)) *Provisioner {
	if onPhase == nil {
		onPhase = func(ProvisionPhase) {}
	}
	return &Provisioner{
		client:       client,
		graph:        graph,
		session:      session,
		direct:       direct,
		network:      network,
		onPhase:      onPhase,
		pollAttempts: config.WalletPollAttempts,
		pollInterval: config.WalletPollInterval,
		inflight:     make(map[string]bool),
	}
}

// EnsureWallet returns the owner's budget wallet, creating one only when
// neither identity has one. Re-running against a provisioned owner performs
// no write.
func (p *Provisioner) EnsureWallet(ctx context.Context, signerAddr string) (*Provision, error) {
	p.onPhase(PhaseChecking)

	// Both identities are checked: a wallet created under the smart
	// account must not be recreated when sponsorship is later unavailable,
	// and vice versa.
	owners := []account.Owner{account.SignerOwner(signerAddr)}
	if p.session.Ready() {
		owners = append([]account.Owner{p.session.From()}, owners...)
	}
	for _, owner := range owners {
		addr, err := p.lookupWallet(ctx, owner.Address)
		if err != nil {
			return nil, wrapSubmitError("wallet lookup", err)
		}
		if addr != "" {
			p.onPhase(PhaseCompleted)
			return &Provision{WalletAddress: addr, Owner: owner, Created: false}, nil
		}
	}

	// One provisioning run per (owner, sponsorship) pair at a time.
	key := strings.ToLower(signerAddr) + "|" + fmt.Sprintf("%t", p.session.Ready())
	p.mu.Lock()
	if p.inflight[key] {
		p.mu.Unlock()
		return nil, errors.New("wallet creation already in progress")
	}
	p.inflight[key] = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.inflight, key)
		p.mu.Unlock()
	}()

	p.onPhase(PhaseCreating)
	owner, txHash, err := p.createWallet(ctx)
	if err != nil {
		return nil, err
	}

	p.onPhase(PhaseWaitingIndex)
	result, err := p.awaitIndexed(ctx, owner, txHash)
	if err != nil {
		return nil, err
	}

	p.onPhase(PhaseCompleted)
	return result, nil
}

func (p *Provisioner) lookupWallet(ctx context.Context, ownerAddr string) (string, error) {
	return lookupWallet(ctx, p.client, p.graph, p.network, ownerAddr)
}

// lookupWallet checks both the subgraph and the factory for an existing
// wallet. The factory read covers wallets the indexer has not seen yet.
func lookupWallet(ctx context.Context, client *chain.EVMClient, graph *subgraph.Client, network config.Network, ownerAddr string) (string, error) {
	events, err := graph.WalletsCreated(ctx, ownerAddr)
	if err == nil && len(events) > 0 {
		return strings.ToLower(newestWallet(events).Wallet), nil
	}

	caller := contract.NewCaller(client, contract.Factory)
	out, callErr := caller.Call(ctx, network.FactoryAddress, "getWallet", common.HexToAddress(ownerAddr))
	if callErr != nil {
		if err != nil {
			return "", err
		}
		return "", callErr
	}
	if addr, ok := out[0].(common.Address); ok {
		hex := strings.ToLower(addr.Hex())
		if hex != config.ZeroAddress {
			return hex, nil
		}
	}
	return "", nil
}

// createWallet submits the factory call, sponsored when the session is
// ready, otherwise signer-paid.
func (p *Provisioner) createWallet(ctx context.Context) (account.Owner, string, error) {
	submitter := p.submitter()
	owner := submitter.From()

	calldata, err := contract.Factory.Pack("createWallet", common.HexToAddress(owner.Address))
	if err != nil {
		return owner, "", err
	}

	txHash, err := submitter.Submit(ctx, account.Call{To: p.network.FactoryAddress, Data: calldata})
	if err != nil && submitter != p.direct && errors.Is(err, account.ErrNotReady) {
		// Sponsorship dropped between the readiness check and submission.
		submitter = p.direct
		owner = submitter.From()
		calldata, err = contract.Factory.Pack("createWallet", common.HexToAddress(owner.Address))
		if err != nil {
			return owner, "", err
		}
		txHash, err = submitter.Submit(ctx, account.Call{To: p.network.FactoryAddress, Data: calldata})
	}
	if err != nil {
		return owner, "", wrapSubmitError("wallet creation", err)
	}
	return owner, txHash, nil
}

// awaitIndexed polls the subgraph for the creation event, preferring the one
// matching our transaction hash. Exhaustion falls back to the factory read;
// the wallet exists on-chain regardless of what the indexer has seen.
func (p *Provisioner) awaitIndexed(ctx context.Context, owner account.Owner, txHash string) (*Provision, error) {
	var found *subgraph.WalletCreated
	err := retry.Poll(ctx, p.pollAttempts, p.pollInterval, func(ctx context.Context, _ int) (bool, error) {
		events, err := p.graph.WalletsCreated(ctx, owner.Address)
		if err != nil {
			return false, err
		}
		for i := range events {
			if strings.EqualFold(events[i].TransactionHash, txHash) {
				found = &events[i]
				return true, nil
			}
		}
		// Another creation event for this owner also settles the wait.
		if len(events) > 0 {
			found = newestWallet(events)
			return true, nil
		}
		return false, nil
	})
	if err == nil {
		return &Provision{
			WalletAddress: strings.ToLower(found.Wallet),
			Owner:         owner,
			Created:       true,
			TxHash:        txHash,
		}, nil
	}
	if !errors.Is(err, retry.ErrExhausted) {
		return nil, wrapSubmitError("wallet indexing wait", err)
	}

	addr, lookupErr := p.lookupWallet(ctx, owner.Address)
	if lookupErr == nil && addr != "" {
		return &Provision{
			WalletAddress: addr,
			Owner:         owner,
			Created:       true,
			TxHash:        txHash,
			IndexerLagged: true,
		}, nil
	}
	return nil, &Error{
		Kind: KindIndexerLag,
		Msg:  fmt.Sprintf("wallet creation confirmed (tx %s) but not indexed after %d attempts", txHash, p.pollAttempts),
		Err:  err,
	}
}

func (p *Provisioner) submitter() account.Submitter {
	if p.session.Ready() {
		return p.session
	}
	return p.direct
}

func newestWallet(events []subgraph.WalletCreated) *subgraph.WalletCreated {
	newest := &events[0]
	for i := range events {
		if subgraph.Timestamp(events[i].Timestamp) > subgraph.Timestamp(newest.Timestamp) {
			newest = &events[i]
		}
	}
	return newest
}
