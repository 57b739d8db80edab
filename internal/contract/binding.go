package contract

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Binding wraps a parsed ABI for calldata packing and result unpacking.
type Binding struct {
	abi abi.ABI
}

// MustParse parses an ABI JSON fragment and panics on failure.
// The fragments in this package are compile-time constants, so a parse
// failure is a programming error.
func MustParse(abiJSON string) *Binding {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("parsing ABI: %v", err))
	}
	return &Binding{abi: parsed}
}

// Pack encodes a function call into 0x-prefixed calldata.
func (b *Binding) Pack(funcName string, args ...interface{}) (string, error) {
	data, err := b.abi.Pack(funcName, args...)
	if err != nil {
		return "", fmt.Errorf("encoding %s call: %w", funcName, err)
	}
	return "0x" + hex.EncodeToString(data), nil
}

// Unpack decodes a 0x-prefixed eth_call result into the function's outputs.
func (b *Binding) Unpack(funcName, hexResult string) ([]interface{}, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(hexResult, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding hex result: %w", err)
	}
	out, err := b.abi.Unpack(funcName, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", funcName, err)
	}
	return out, nil
}

// PackResult encodes return values as an eth_call result. Used to build
// fixture responses in tests.
func (b *Binding) PackResult(funcName string, vals ...interface{}) (string, error) {
	method, ok := b.abi.Methods[funcName]
	if !ok {
		return "", fmt.Errorf("no method %q", funcName)
	}
	data, err := method.Outputs.Pack(vals...)
	if err != nil {
		return "", fmt.Errorf("encoding %s result: %w", funcName, err)
	}
	return "0x" + hex.EncodeToString(data), nil
}

// Shared bindings for the deployed contracts.
var (
	BudgetWallet   = MustParse(BudgetWalletABI)
	Factory        = MustParse(FactoryABI)
	ERC20          = MustParse(ERC20ABI)
	Resolver       = MustParse(ResolverABI)
	Account        = MustParse(AccountABI)
	AccountFactory = MustParse(AccountFactoryABI)
	EntryPoint     = MustParse(EntryPointABI)
)
