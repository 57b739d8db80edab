package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer answers each method from the given result map; methods mapped to
// an error string return a JSON-RPC error instead.
func rpcServer(t *testing.T, results map[string]string, errs map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if msg, ok := errs[req.Method]; ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"error":{"code":3,"message":%q,"data":"0x08c379a0"}}`, msg)
			return
		}
		result, ok := results[req.Method]
		if !ok {
			result = "null"
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}))
}

func TestGetTokenBalance(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"eth_call": `"0x00000000000000000000000000000000000000000000000000000000004c4b40"`,
	}, nil)
	defer srv.Close()

	bal, err := NewEVMClient(srv.URL).GetTokenBalance(context.Background(),
		"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_000_000), bal)
}

func TestGetBalance(t *testing.T) {
	srv := rpcServer(t, map[string]string{"eth_getBalance": `"0xde0b6b3a7640000"`}, nil)
	defer srv.Close()

	bal, err := NewEVMClient(srv.URL).GetBalance(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000_000_000_000_000), bal)
}

func TestChainID(t *testing.T) {
	srv := rpcServer(t, map[string]string{"eth_chainId": `"0x2105"`}, nil)
	defer srv.Close()

	id, err := NewEVMClient(srv.URL).ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8453), id)
}

func TestGetCode(t *testing.T) {
	srv := rpcServer(t, map[string]string{"eth_getCode": `"0x6080"`}, nil)
	defer srv.Close()

	code, err := NewEVMClient(srv.URL).GetCode(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "0x6080", code)
}

func TestReceiptPendingIsNilNil(t *testing.T) {
	srv := rpcServer(t, nil, nil) // null result
	defer srv.Close()

	receipt, err := NewEVMClient(srv.URL).GetTransactionReceipt(context.Background(), "0xhash")
	require.NoError(t, err)
	assert.Nil(t, receipt, "pending transactions yield nil, nil")
}

func TestReceiptParsed(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"eth_getTransactionReceipt": `{"status":"0x1","blockNumber":"0x10","gasUsed":"0x5208"}`,
	}, nil)
	defer srv.Close()

	receipt, err := NewEVMClient(srv.URL).GetTransactionReceipt(context.Background(), "0xhash")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(1), receipt.Status)
	assert.Equal(t, uint64(16), receipt.BlockNumber)
	assert.Equal(t, uint64(21000), receipt.GasUsed)
}

func TestWaitForReceiptRevertedTx(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"eth_getTransactionReceipt": `{"status":"0x0","blockNumber":"0x10","gasUsed":"0x5208"}`,
	}, nil)
	defer srv.Close()

	receipt, err := NewEVMClient(srv.URL).WaitForReceipt(context.Background(), "0xhash", 5*time.Second)
	require.Error(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(0), receipt.Status)
	assert.Contains(t, err.Error(), "reverted")
}

func TestRevertClassification(t *testing.T) {
	srv := rpcServer(t, nil, map[string]string{
		"eth_call": "execution reverted: Bucket does not exist",
	})
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).CallContract(context.Background(), "0xabc", "0x1234")
	var rev *RevertError
	require.ErrorAs(t, err, &rev)
	assert.Contains(t, rev.Message, "Bucket does not exist")
	assert.Equal(t, "0x08c379a0", rev.Data)
}

func TestPlainRPCErrorNotRevert(t *testing.T) {
	srv := rpcServer(t, nil, map[string]string{
		"eth_chainId": "rate limited",
	})
	defer srv.Close()

	_, err := NewEVMClient(srv.URL).ChainID(context.Background())
	require.Error(t, err)
	var rev *RevertError
	assert.False(t, asRevert(err, &rev), "non-revert errors keep their plain type")
}

func TestSimulateCall(t *testing.T) {
	srv := rpcServer(t, map[string]string{"eth_call": `"0x"`}, nil)
	defer srv.Close()

	ok, rev, err := NewEVMClient(srv.URL).SimulateCall(context.Background(), "0xfrom", "0xto", "0x1234", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, rev)
}

func TestSimulateCallRevert(t *testing.T) {
	srv := rpcServer(t, nil, map[string]string{
		"eth_call": "execution reverted: Insufficient balance",
	})
	defer srv.Close()

	ok, rev, err := NewEVMClient(srv.URL).SimulateCall(context.Background(), "0xfrom", "0xto", "0x1234", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, rev)
	assert.Contains(t, rev.Message, "Insufficient balance")
}

func TestEstimateGas(t *testing.T) {
	srv := rpcServer(t, map[string]string{"eth_estimateGas": `"0x30d40"`}, nil)
	defer srv.Close()

	gas, err := NewEVMClient(srv.URL).EstimateGas(context.Background(), "0xfrom", "0xto", "0x1234", big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(200000), gas)
}
