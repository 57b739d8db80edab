package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expendi/expendi-cli/internal/chain"
)

func TestPackSelectors(t *testing.T) {
	cases := []struct {
		binding  *Binding
		fn       string
		args     []interface{}
		selector string
	}{
		{ERC20, "approve", []interface{}{common.Address{}, big.NewInt(1)}, "0x095ea7b3"},
		{ERC20, "balanceOf", []interface{}{common.Address{}}, "0x70a08231"},
		{Account, "execute", []interface{}{common.Address{}, big.NewInt(0), []byte{}}, "0xb61d27f6"},
		{Account, "executeBatch", []interface{}{[]common.Address{}, [][]byte{}}, "0x18dfb3c7"},
	}
	for _, tc := range cases {
		calldata, err := tc.binding.Pack(tc.fn, tc.args...)
		require.NoError(t, err, tc.fn)
		assert.Equal(t, tc.selector, calldata[:10], tc.fn)
	}
}

func TestPackUnknownFunction(t *testing.T) {
	_, err := ERC20.Pack("mint", common.Address{})
	require.Error(t, err)
}

func TestPackResultRoundTrip(t *testing.T) {
	packed, err := BudgetWallet.PackResult("getBucket",
		big.NewInt(3_000_000), big.NewInt(1_000_000), big.NewInt(4_000_000), true)
	require.NoError(t, err)

	out, err := BudgetWallet.Unpack("getBucket", packed)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, big.NewInt(3_000_000), out[0])
	assert.Equal(t, big.NewInt(1_000_000), out[1])
	assert.Equal(t, big.NewInt(4_000_000), out[2])
	assert.Equal(t, true, out[3])
}

func TestPackResultStringList(t *testing.T) {
	packed, err := BudgetWallet.PackResult("getUserBuckets", []string{"groceries", "rent"})
	require.NoError(t, err)

	out, err := BudgetWallet.Unpack("getUserBuckets", packed)
	require.NoError(t, err)
	assert.Equal(t, []string{"groceries", "rent"}, out[0])
}

func TestDecodeRevertReason(t *testing.T) {
	// Error("Insufficient bucket balance") built by hand: selector, offset,
	// length, then the utf-8 bytes right-padded to a word.
	reason := "Insufficient bucket balance"
	payload := "0x08c379a0" +
		fmt.Sprintf("%064x", 0x20) +
		fmt.Sprintf("%064x", len(reason)) +
		fmt.Sprintf("%-64s", fmt.Sprintf("%x", reason))
	payload = strings.ReplaceAll(payload, " ", "0")

	assert.Equal(t, reason, DecodeRevertReason(payload))
}

func TestDecodeRevertReasonRejectsGarbage(t *testing.T) {
	assert.Equal(t, "", DecodeRevertReason(""))
	assert.Equal(t, "", DecodeRevertReason("0xdeadbeef"))
	assert.Equal(t, "", DecodeRevertReason("0x08c379a0ffff"))
}

func TestCallerDecodesOutputs(t *testing.T) {
	packed, err := Factory.PackResult("getWallet", common.HexToAddress("0x1234567890123456789012345678901234567890"))
	require.NoError(t, err)

	var gotData string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var call struct {
			Data string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(req.Params[0], &call))
		gotData = call.Data
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%q}`, packed)
	}))
	defer srv.Close()

	caller := NewCaller(chain.NewEVMClient(srv.URL), Factory)
	out, err := caller.Call(context.Background(), "0xfactory", "getWallet", common.Address{})
	require.NoError(t, err)

	addr, ok := out[0].(common.Address)
	require.True(t, ok)
	assert.Equal(t, "0x1234567890123456789012345678901234567890", strings.ToLower(addr.Hex()))
	assert.True(t, strings.HasPrefix(gotData, "0x"), "calldata must be hex-prefixed")
}

func TestCallerRevertSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":3,"message":"execution reverted","data":"0x"}}`)
	}))
	defer srv.Close()

	caller := NewCaller(chain.NewEVMClient(srv.URL), Factory)
	_, err := caller.Call(context.Background(), "0xfactory", "getWallet", common.Address{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
}
