package account

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOp() *UserOperation {
	return &UserOperation{
		Sender:               "0x8005ee53E57aB11E11eAA4EFe07Ee3835Dc02F98",
		Nonce:                "0x1",
		InitCode:             "0x",
		CallData:             "0xb61d27f6",
		CallGasLimit:         "0x30d40",
		VerificationGasLimit: "0x186a0",
		PreVerificationGas:   "0xc350",
		MaxFeePerGas:         "0x3b9aca00",
		MaxPriorityFeePerGas: "0x1dcd6500",
		PaymasterAndData:     "0x",
		Signature:            "0x",
	}
}

func TestUserOperationHashDeterministic(t *testing.T) {
	op := sampleOp()

	h1, err := op.Hash(EntryPointAddress, 8453)
	require.NoError(t, err)
	h2, err := op.Hash(EntryPointAddress, 8453)
	require.NoError(t, err)

	assert.Len(t, h1, 32)
	assert.Equal(t, h1, h2)
}

func TestUserOperationHashVariesByChain(t *testing.T) {
	op := sampleOp()

	base, err := op.Hash(EntryPointAddress, 8453)
	require.NoError(t, err)
	mainnet, err := op.Hash(EntryPointAddress, 1)
	require.NoError(t, err)

	assert.NotEqual(t, base, mainnet)
}

func TestUserOperationHashCoversCallData(t *testing.T) {
	a := sampleOp()
	b := sampleOp()
	b.CallData = "0xb61d27f7"

	ha, err := a.Hash(EntryPointAddress, 8453)
	require.NoError(t, err)
	hb, err := b.Hash(EntryPointAddress, 8453)
	require.NoError(t, err)

	assert.NotEqual(t, ha, hb)
}

func TestUserOperationHashExcludesSignature(t *testing.T) {
	a := sampleOp()
	b := sampleOp()
	b.Signature = dummySignature

	ha, err := a.Hash(EntryPointAddress, 8453)
	require.NoError(t, err)
	hb, err := b.Hash(EntryPointAddress, 8453)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestUserOperationHashRejectsBadQuantity(t *testing.T) {
	op := sampleOp()
	op.Nonce = "0xzz"

	_, err := op.Hash(EntryPointAddress, 8453)
	assert.Error(t, err)
}

func TestEncodeCallsSingleUsesExecute(t *testing.T) {
	data, err := encodeCalls([]Call{
		{To: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Data: "0x095ea7b3"},
	})
	require.NoError(t, err)
	// execute(address,uint256,bytes) selector.
	assert.Equal(t, "0xb61d27f6", data[:10])
}

func TestEncodeCallsBatchUsesExecuteBatch(t *testing.T) {
	data, err := encodeCalls([]Call{
		{To: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Data: "0x095ea7b3"},
		{To: "0x4B80e374ff1639B748976a7bF519e2A35b43Ca26", Data: "0x338b5dea"},
	})
	require.NoError(t, err)
	// executeBatch(address[],bytes[]) selector.
	assert.Equal(t, "0x18dfb3c7", data[:10])
}

func TestEncodeCallsBatchRejectsValue(t *testing.T) {
	_, err := encodeCalls([]Call{
		{To: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Data: "0x"},
		{To: "0x4B80e374ff1639B748976a7bF519e2A35b43Ca26", Data: "0x", Value: big.NewInt(1)},
	})
	assert.Error(t, err)
}

func TestOwnerString(t *testing.T) {
	assert.Equal(t, "signer:0xabc", SignerOwner("0xABC").String())
	assert.Equal(t, "smart-account:0xdef", SmartAccountOwner("0xDEF").String())
}
