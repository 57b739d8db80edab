package account

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Canonical 4337 v0.6 deployment on Base.
const (
	EntryPointAddress     = "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"
	AccountFactoryAddress = "0x9406Cc6185a346906296840746125a0E44976454"
)

// Call is one target invocation inside a user operation.
type Call struct {
	To    string
	Value *big.Int
	Data  string // 0x-prefixed calldata
}

// UserOperation is the EIP-4337 v0.6 wire shape. All numeric fields are
// 0x-hex strings as the bundler API expects.
type UserOperation struct {
	Sender               string `json:"sender"`
	Nonce                string `json:"nonce"`
	InitCode             string `json:"initCode"`
	CallData             string `json:"callData"`
	CallGasLimit         string `json:"callGasLimit"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	PreVerificationGas   string `json:"preVerificationGas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	PaymasterAndData     string `json:"paymasterAndData"`
	Signature            string `json:"signature"`
}

// Hash computes the userOpHash the account signs:
// keccak256(abi.encode(keccak256(packedOp), entryPoint, chainID)).
func (op *UserOperation) Hash(entryPoint string, chainID int64) ([]byte, error) {
	packed, err := op.pack()
	if err != nil {
		return nil, err
	}
	inner := keccak256(packed)

	buf := make([]byte, 0, 96)
	buf = append(buf, leftPad(inner, 32)...)
	epBytes, err := hexBytes(entryPoint)
	if err != nil {
		return nil, fmt.Errorf("entry point: %w", err)
	}
	buf = append(buf, leftPad(epBytes, 32)...)
	buf = append(buf, leftPad(big.NewInt(chainID).Bytes(), 32)...)
	return keccak256(buf), nil
}

// pack is the static abi.encode of the op with byte fields replaced by their
// keccak hashes, per the EntryPoint's getUserOpHash.
func (op *UserOperation) pack() ([]byte, error) {
	var buf []byte

	appendWord := func(b []byte) { buf = append(buf, leftPad(b, 32)...) }
	appendHexNum := func(s string) error {
		n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
		if !ok {
			return fmt.Errorf("bad hex quantity %q", s)
		}
		appendWord(n.Bytes())
		return nil
	}
	appendHashedBytes := func(s string) error {
		b, err := hexBytes(s)
		if err != nil {
			return err
		}
		appendWord(keccak256(b))
		return nil
	}

	sender, err := hexBytes(op.Sender)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	appendWord(sender)

	for _, step := range []struct {
		v     string
		bytes bool
	}{
		{op.Nonce, false},
		{op.InitCode, true},
		{op.CallData, true},
		{op.CallGasLimit, false},
		{op.VerificationGasLimit, false},
		{op.PreVerificationGas, false},
		{op.MaxFeePerGas, false},
		{op.MaxPriorityFeePerGas, false},
		{op.PaymasterAndData, true},
	} {
		if step.bytes {
			if err := appendHashedBytes(step.v); err != nil {
				return nil, err
			}
		} else {
			if err := appendHexNum(step.v); err != nil {
				return nil, err
			}
		}
	}

	return buf, nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b[len(b)-size:]
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

func hexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func hexNum(n *big.Int) string {
	if n == nil || n.Sign() == 0 {
		return "0x0"
	}
	return "0x" + n.Text(16)
}
