package contract

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/expendi/expendi-cli/internal/chain"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/wallet"
)

// Sender sends write transactions to a contract, paid by the signer.
type Sender struct {
	client  *chain.EVMClient
	binding *Binding
	signer  *wallet.Signer
	chainID *big.Int
}

// NewSender creates a Sender.
func NewSender(client *chain.EVMClient, binding *Binding, signer *wallet.Signer, chainID *big.Int) *Sender {
	return &Sender{
		client:  client,
		binding: binding,
		signer:  signer,
		chainID: chainID,
	}
}

// Send calls a write function and broadcasts the transaction.
// Returns the transaction hash.
func (s *Sender) Send(ctx context.Context, contractAddr, funcName string, args ...interface{}) (string, error) {
	return s.SendValue(ctx, contractAddr, funcName, big.NewInt(0), args...)
}

// SendValue is Send with an attached native value (for payable functions).
func (s *Sender) SendValue(ctx context.Context, contractAddr, funcName string, value *big.Int, args ...interface{}) (string, error) {
	calldata, err := s.binding.Pack(funcName, args...)
	if err != nil {
		return "", err
	}
	return s.SendRaw(ctx, contractAddr, calldata, value)
}

// WaitMined blocks until hash is mined, within the confirmation window.
func (s *Sender) WaitMined(ctx context.Context, hash string) (*chain.TxReceipt, error) {
	return s.client.WaitForReceipt(ctx, hash, config.ConfirmationTimeout)
}

// SendRaw broadcasts pre-packed calldata to contractAddr.
func (s *Sender) SendRaw(ctx context.Context, contractAddr, calldata string, value *big.Int) (string, error) {
	from := s.signer.Address()

	gas, err := s.client.EstimateGas(ctx, from, contractAddr, calldata, value)
	if err != nil {
		// Estimation reverts surface the real failure; don't broadcast.
		if rev, ok := err.(*chain.RevertError); ok {
			return "", rev
		}
		gas = 200000 // fallback
	}

	gasPrice, err := s.client.GasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := s.client.GetNonce(ctx, from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}

	calldataBytes, err := hex.DecodeString(strings.TrimPrefix(calldata, "0x"))
	if err != nil {
		return "", fmt.Errorf("decoding calldata: %w", err)
	}
	toAddr := common.HexToAddress(contractAddr)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &toAddr,
		Value:     value,
		Data:      calldataBytes,
	})

	raw, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	hash, err := s.client.SendRawTransaction(ctx, "0x"+hex.EncodeToString(raw))
	if err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}

	return hash, nil
}
