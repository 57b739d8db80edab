// Package account manages the 4337 smart account session: counterfactual
// address derivation, sponsored user operation submission, and the direct
// signer-paid fallback.
package account

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/expendi/expendi-cli/internal/chain"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/contract"
	"github.com/expendi/expendi-cli/internal/retry"
	"github.com/expendi/expendi-cli/internal/wallet"
)

// ErrNotReady is returned when a sponsored submission is attempted before
// Setup succeeded. Callers use it to fall back to the direct path.
var ErrNotReady = errors.New("smart account session not ready")

// Submitter submits contract writes and reports the acting identity.
// Sponsored sessions submit all calls as one atomic user operation; the
// direct path sends them as sequential transactions.
type Submitter interface {
	Submit(ctx context.Context, calls ...Call) (txHash string, err error)
	From() Owner
}

// dummySignature is a well-formed ECDSA placeholder the paymaster accepts
// for gas estimation before the real signature exists.
const dummySignature = "0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffc1c"

// Session is the sponsored submission path. It starts not ready; Setup
// derives the smart account address and verifies sponsorship is available.
type Session struct {
	client  *chain.EVMClient
	bundler *BundlerClient
	signer  *wallet.Signer
	network config.Network

	ready          bool
	notReadyReason string
	address        string
	deployed       bool
}

// NewSession creates a session over the signer. An empty bundlerKey leaves
// the session permanently not ready, which callers treat as "no sponsorship".
func NewSession(client *chain.EVMClient, signer *wallet.Signer, network config.Network, bundlerKey string) *Session {
	s := &Session{
		client:         client,
		signer:         signer,
		network:        network,
		notReadyReason: "setup not run",
	}
	if bundlerKey == "" {
		s.notReadyReason = "no bundler API key configured"
		return s
	}
	s.bundler = NewBundlerClient(network.BundlerURL, bundlerKey)
	return s
}

// Setup derives the counterfactual account address and checks whether it is
// already deployed. A session without a bundler stays not ready without
// error; that is a valid degraded state, not a failure.
func (s *Session) Setup(ctx context.Context) error {
	if s.bundler == nil {
		return nil
	}

	owner := common.HexToAddress(s.signer.Address())
	caller := contract.NewCaller(s.client, contract.AccountFactory)
	out, err := caller.Call(ctx, AccountFactoryAddress, "getAddress", owner, big.NewInt(0))
	if err != nil {
		s.notReadyReason = "deriving account address: " + err.Error()
		return fmt.Errorf("deriving smart account address: %w", err)
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		s.notReadyReason = "unexpected factory response"
		return fmt.Errorf("unexpected getAddress output %T", out[0])
	}
	s.address = strings.ToLower(addr.Hex())

	code, err := s.client.GetCode(ctx, s.address)
	if err != nil {
		s.notReadyReason = "checking account deployment: " + err.Error()
		return fmt.Errorf("checking account deployment: %w", err)
	}
	s.deployed = len(strings.TrimPrefix(code, "0x")) > 0

	s.ready = true
	s.notReadyReason = ""
	return nil
}

// Ready reports whether sponsored submission is available.
func (s *Session) Ready() bool { return s.ready }

// NotReadyReason explains a not-ready state for user-facing messages.
func (s *Session) NotReadyReason() string { return s.notReadyReason }

// Address returns the smart account address. Empty before Setup.
func (s *Session) Address() string { return s.address }

// From identifies the smart account as the acting identity.
func (s *Session) From() Owner { return SmartAccountOwner(s.address) }

// Submit bundles calls into one sponsored user operation, waits for it to
// land, and returns the enclosing transaction hash.
func (s *Session) Submit(ctx context.Context, calls ...Call) (string, error) {
	if !s.ready {
		return "", fmt.Errorf("%w: %s", ErrNotReady, s.notReadyReason)
	}
	if len(calls) == 0 {
		return "", errors.New("no calls to submit")
	}

	op, err := s.buildOp(ctx, calls)
	if err != nil {
		return "", err
	}

	sponsorship, err := s.bundler.SponsorUserOperation(ctx, op, EntryPointAddress)
	if err != nil {
		return "", err
	}
	op.PaymasterAndData = sponsorship.PaymasterAndData
	op.PreVerificationGas = sponsorship.PreVerificationGas
	op.VerificationGasLimit = sponsorship.VerificationGasLimit
	op.CallGasLimit = sponsorship.CallGasLimit

	digest, err := op.Hash(EntryPointAddress, s.network.ChainID)
	if err != nil {
		return "", fmt.Errorf("hashing user operation: %w", err)
	}
	sig, err := s.signer.SignHash(digest)
	if err != nil {
		return "", err
	}
	op.Signature = "0x" + hex.EncodeToString(sig)

	userOpHash, err := s.bundler.SendUserOperation(ctx, op, EntryPointAddress)
	if err != nil {
		return "", err
	}

	receipt, err := s.waitForReceipt(ctx, userOpHash)
	if err != nil {
		return "", err
	}
	if !receipt.Success {
		reason := receipt.Reason
		if reason == "" {
			reason = "user operation reverted"
		}
		return "", &chain.RevertError{Message: reason}
	}

	s.deployed = true
	return receipt.Receipt.TransactionHash, nil
}

func (s *Session) buildOp(ctx context.Context, calls []Call) (*UserOperation, error) {
	callData, err := encodeCalls(calls)
	if err != nil {
		return nil, err
	}

	nonce, err := s.entryPointNonce(ctx)
	if err != nil {
		return nil, err
	}

	initCode := "0x"
	if !s.deployed {
		initCode, err = s.initCode()
		if err != nil {
			return nil, err
		}
	}

	gasPrice, err := s.client.GasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	return &UserOperation{
		Sender:               s.address,
		Nonce:                hexNum(nonce),
		InitCode:             initCode,
		CallData:             callData,
		CallGasLimit:         "0x0",
		VerificationGasLimit: "0x0",
		PreVerificationGas:   "0x0",
		MaxFeePerGas:         hexNum(new(big.Int).Mul(gasPrice, big.NewInt(2))),
		MaxPriorityFeePerGas: hexNum(gasPrice),
		PaymasterAndData:     "0x",
		Signature:            dummySignature,
	}, nil
}

func (s *Session) entryPointNonce(ctx context.Context) (*big.Int, error) {
	caller := contract.NewCaller(s.client, contract.EntryPoint)
	out, err := caller.Call(ctx, EntryPointAddress, "getNonce", common.HexToAddress(s.address), big.NewInt(0))
	if err != nil {
		return nil, fmt.Errorf("reading account nonce: %w", err)
	}
	nonce, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getNonce output %T", out[0])
	}
	return nonce, nil
}

func (s *Session) initCode() (string, error) {
	create, err := contract.AccountFactory.Pack("createAccount", common.HexToAddress(s.signer.Address()), big.NewInt(0))
	if err != nil {
		return "", err
	}
	return AccountFactoryAddress + strings.TrimPrefix(create, "0x"), nil
}

// waitForReceipt polls the bundler until the operation lands or the
// confirmation window closes.
func (s *Session) waitForReceipt(ctx context.Context, userOpHash string) (*UserOpReceipt, error) {
	const interval = 2 * time.Second
	attempts := int(config.ConfirmationTimeout / interval)

	var receipt *UserOpReceipt
	err := retry.Poll(ctx, attempts, interval, func(ctx context.Context, _ int) (bool, error) {
		r, err := s.bundler.GetUserOperationReceipt(ctx, userOpHash)
		if err != nil {
			return false, err
		}
		if r == nil {
			return false, nil
		}
		receipt = r
		return true, nil
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return nil, fmt.Errorf("user operation %s not confirmed within %s", userOpHash, config.ConfirmationTimeout)
		}
		return nil, err
	}
	return receipt, nil
}

func encodeCalls(calls []Call) (string, error) {
	if len(calls) == 1 {
		c := calls[0]
		data, err := hexBytes(c.Data)
		if err != nil {
			return "", fmt.Errorf("call data: %w", err)
		}
		value := c.Value
		if value == nil {
			value = big.NewInt(0)
		}
		return contract.Account.Pack("execute", common.HexToAddress(c.To), value, data)
	}

	// executeBatch carries no per-call value; only zero-value calls batch.
	targets := make([]common.Address, len(calls))
	datas := make([][]byte, len(calls))
	for i, c := range calls {
		if c.Value != nil && c.Value.Sign() > 0 {
			return "", errors.New("batched calls cannot carry value")
		}
		data, err := hexBytes(c.Data)
		if err != nil {
			return "", fmt.Errorf("call %d data: %w", i, err)
		}
		targets[i] = common.HexToAddress(c.To)
		datas[i] = data
	}
	return contract.Account.Pack("executeBatch", targets, datas)
}

// DirectSubmitter is the signer-paid fallback. Calls are sent as sequential
// transactions, each waited to a receipt before the next.
type DirectSubmitter struct {
	sender *contract.Sender
	signer *wallet.Signer
}

// NewDirectSubmitter wraps a contract sender as a Submitter.
func NewDirectSubmitter(sender *contract.Sender, signer *wallet.Signer) *DirectSubmitter {
	return &DirectSubmitter{sender: sender, signer: signer}
}

// From identifies the raw signer as the acting identity.
func (d *DirectSubmitter) From() Owner { return SignerOwner(d.signer.Address()) }

// Submit sends each call as its own transaction and returns the hash of the
// last one, which is the call that carries the operation's effect.
func (d *DirectSubmitter) Submit(ctx context.Context, calls ...Call) (string, error) {
	if len(calls) == 0 {
		return "", errors.New("no calls to submit")
	}
	var hash string
	for i, c := range calls {
		value := c.Value
		if value == nil {
			value = big.NewInt(0)
		}
		h, err := d.sender.SendRaw(ctx, c.To, c.Data, value)
		if err != nil {
			return "", err
		}
		// Intermediate calls (e.g. an approve before a deposit) must be
		// mined before the dependent call broadcasts.
		if i < len(calls)-1 {
			if _, err := d.sender.WaitMined(ctx, h); err != nil {
				return "", err
			}
		}
		hash = h
	}
	return hash, nil
}
