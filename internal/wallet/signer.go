package wallet

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/expendi/expendi-cli/internal/config"
)

// Signer signs EVM transactions for a signing wallet.
type Signer struct {
	wallet *config.Wallet
	ks     KeySource
}

// NewSigner creates a signer for the given wallet.
func NewSigner(w *config.Wallet, ks KeySource) *Signer {
	return &Signer{wallet: w, ks: ks}
}

// SignTx signs an EVM transaction and returns the raw signed bytes.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	if s.wallet.Type != TypeSigning {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign", s.wallet.Name)
	}

	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}

	privKey, err := crypto.HexToECDSA(stripHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	signer := types.NewLondonSigner(chainID)
	signed, err := types.SignTx(tx, signer, privKey)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling signed tx: %w", err)
	}

	return raw, nil
}

// SignHash signs a 32-byte digest under the EIP-191 personal-sign scheme
// and returns the 65-byte signature with the recovery id shifted to 27/28.
func (s *Signer) SignHash(digest []byte) ([]byte, error) {
	if s.wallet.Type != TypeSigning {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign", s.wallet.Name)
	}

	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	privKey, err := crypto.HexToECDSA(stripHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	prefixed := crypto.Keccak256(
		[]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(digest))),
		digest,
	)
	sig, err := crypto.Sign(prefixed, privKey)
	if err != nil {
		return nil, fmt.Errorf("signing digest: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// Address returns the wallet's address.
func (s *Signer) Address() string {
	return s.wallet.Address
}
