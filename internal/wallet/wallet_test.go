package wallet

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expendi/expendi-cli/internal/config"
)

const (
	testKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
)

func signingWallet(t *testing.T, ks *InMemoryKeystore) *config.Wallet {
	t.Helper()
	ref, err := ks.Store("main", testKey)
	require.NoError(t, err)
	return &config.Wallet{
		Name:    "main",
		Address: testAddr,
		Type:    TypeSigning,
		KeyRef:  ref,
	}
}

func TestSignTx(t *testing.T) {
	ks := NewInMemoryKeystore()
	signer := NewSigner(signingWallet(t, ks), ks)

	to := common.HexToAddress("0x4B80e374ff1639B748976a7bF519e2A35b43Ca26")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(8453),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(0),
	})

	raw, err := signer.SignTx(tx, big.NewInt(8453))
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	from, err := types.Sender(types.NewLondonSigner(big.NewInt(8453)), &decoded)
	require.NoError(t, err)
	assert.Equal(t, testAddr, strings.ToLower(from.Hex()))
}

func TestSignHashRecoversSigner(t *testing.T) {
	ks := NewInMemoryKeystore()
	signer := NewSigner(signingWallet(t, ks), ks)

	digest := crypto.Keccak256([]byte("user operation"))
	sig, err := signer.SignHash(digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.True(t, sig[64] == 27 || sig[64] == 28, "recovery id shifted to 27/28")

	// Recover under the same EIP-191 prefix the signer applies.
	prefixed := crypto.Keccak256(
		[]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(digest))),
		digest,
	)
	recoverable := append(append([]byte{}, sig[:64]...), sig[64]-27)
	pub, err := crypto.SigToPub(prefixed, recoverable)
	require.NoError(t, err)
	assert.Equal(t, testAddr, strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()))
}

func TestWatchOnlyCannotSign(t *testing.T) {
	ks := NewInMemoryKeystore()
	signer := NewSigner(&config.Wallet{Name: "cold", Address: testAddr, Type: TypeWatchOnly}, ks)

	_, err := signer.SignHash([]byte("digest"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch-only")

	_, err = signer.SignTx(types.NewTx(&types.DynamicFeeTx{}), big.NewInt(8453))
	require.Error(t, err)
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	// Watch-only entries never touch the keychain.
	return NewManager(cfg, nil)
}

func TestManagerAddAndGet(t *testing.T) {
	m := testManager(t)

	w, err := m.Add("main", "0xABCDEF1234567890abcdef1234567890ABCDEF12", "")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef1234567890abcdef1234567890abcdef12", w.Address, "addresses stored lowercase")
	assert.Equal(t, TypeWatchOnly, w.Type)
	assert.True(t, w.IsDefault, "first wallet becomes the default")

	got, err := m.Get("main")
	require.NoError(t, err)
	assert.Equal(t, w.Address, got.Address)

	// Empty name resolves the default.
	got, err = m.Get("")
	require.NoError(t, err)
	assert.Equal(t, "main", got.Name)
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	m := testManager(t)
	_, err := m.Add("main", testAddr, "")
	require.NoError(t, err)
	_, err = m.Add("main", testAddr, "")
	require.Error(t, err)
}

func TestManagerGetMissing(t *testing.T) {
	m := testManager(t)
	_, err := m.Get("nope")
	require.Error(t, err)
	_, err = m.Get("")
	require.Error(t, err, "no default configured yet")
}

func TestManagerRemove(t *testing.T) {
	m := testManager(t)
	_, err := m.Add("main", testAddr, "")
	require.NoError(t, err)

	require.NoError(t, m.Remove("main"))
	wallets, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, wallets)

	require.Error(t, m.Remove("main"))
}

func TestManagerDerivesAddressFromKey(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	m := NewManager(cfg, &Keystore{})

	_, err = m.Add("main", "", testKey)
	require.NoError(t, err)

	w, err := m.Get("main")
	require.NoError(t, err)
	assert.Equal(t, testAddr, w.Address)
	assert.Equal(t, TypeSigning, w.Type)
}

func TestManagerRejectsMismatchedKey(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	m := NewManager(cfg, &Keystore{})

	_, err = m.Add("main", "0x1111111111111111111111111111111111111111", testKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}
