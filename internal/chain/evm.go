package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// EVMClient is a minimal JSON-RPC client for the Base chain.
type EVMClient struct {
	url    string
	client *http.Client
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// URL returns the RPC endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// RevertError is returned when eth_call or gas estimation hits a revert.
// Data carries the raw ABI-encoded revert payload when the node provides it.
type RevertError struct {
	Message string
	Data    string
}

func (e *RevertError) Error() string { return e.Message }

// GetTokenBalance returns an ERC-20 balance in base units.
// balanceOf(address) selector = 0x70a08231.
func (c *EVMClient) GetTokenBalance(ctx context.Context, tokenAddr, holder string) (*big.Int, error) {
	data := "0x70a08231" + fmt.Sprintf("%064s", strings.ToLower(strings.TrimPrefix(holder, "0x")))

	result, err := c.call(ctx, "eth_call", map[string]string{
		"to":   tokenAddr,
		"data": data,
	}, "latest")
	if err != nil {
		return nil, err
	}

	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	raw, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse token balance: %s", hexStr)
	}
	return raw, nil
}

// GetBalance returns the native balance of address in wei.
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.call(ctx, "eth_getBalance", address, "latest")
	if err != nil {
		return nil, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	bal, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse balance: %s", hexStr)
	}
	return bal, nil
}

// CallContract calls a smart contract read function with the given calldata.
func (c *EVMClient) CallContract(ctx context.Context, toAddr, calldata string) (string, error) {
	result, err := c.call(ctx, "eth_call", map[string]string{
		"to":   toAddr,
		"data": calldata,
	}, "latest")
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return s, nil
}

// EstimateGas estimates gas for a transaction.
func (c *EVMClient) EstimateGas(ctx context.Context, from, to, data string, value *big.Int) (uint64, error) {
	params := map[string]string{
		"from": from,
		"to":   to,
	}
	if data != "" {
		params["data"] = data
	}
	if value != nil && value.Sign() > 0 {
		params["value"] = "0x" + value.Text(16)
	}

	result, err := c.call(ctx, "eth_estimateGas", params, "latest")
	if err != nil {
		return 0, err
	}

	hexStr, ok := result.(string)
	if !ok {
		return 21000, nil
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return 21000, nil
	}
	return n.Uint64(), nil
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	result, err := c.call(ctx, "eth_gasPrice")
	if err != nil {
		return nil, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	gp, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse gas price: %s", hexStr)
	}
	return gp, nil
}

// GetNonce returns the transaction count (nonce) for an address.
func (c *EVMClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, "eth_getTransactionCount", address, "latest")
	if err != nil {
		return 0, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected result: %T", result)
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return 0, fmt.Errorf("could not parse nonce: %s", hexStr)
	}
	return n.Uint64(), nil
}

// GetCode returns the deployed bytecode at address ("0x" when none).
func (c *EVMClient) GetCode(ctx context.Context, address string) (string, error) {
	result, err := c.call(ctx, "eth_getCode", address, "latest")
	if err != nil {
		return "", err
	}
	code, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return code, nil
}

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected result: %T", result)
	}
	id, ok := parseBigHex(hexStr)
	if !ok {
		return 0, fmt.Errorf("could not parse chain id: %s", hexStr)
	}
	return id.Int64(), nil
}

// SendRawTransaction broadcasts a signed raw transaction.
func (c *EVMClient) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	result, err := c.call(ctx, "eth_sendRawTransaction", rawTx)
	if err != nil {
		return "", err
	}
	hash, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return hash, nil
}

// TxReceipt holds the on-chain receipt of a mined transaction.
type TxReceipt struct {
	Hash        string
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
}

// GetTransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, hash string) (*TxReceipt, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil // still pending
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	var r struct {
		Status      string `json:"status"`
		BlockNumber string `json:"blockNumber"`
		GasUsed     string `json:"gasUsed"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}

	receipt := &TxReceipt{Hash: hash}
	if s, ok := parseBigHex(r.Status); ok {
		receipt.Status = s.Uint64()
	}
	if bn, ok := parseBigHex(r.BlockNumber); ok {
		receipt.BlockNumber = bn.Uint64()
	}
	if gu, ok := parseBigHex(r.GasUsed); ok {
		receipt.GasUsed = gu.Uint64()
	}
	return receipt, nil
}

// WaitForReceipt polls every 2 s until the transaction is mined or timeout
// expires. Returns an error if the transaction reverted (Status == 0).
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash string, timeout time.Duration) (*TxReceipt, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		receipt, err := c.GetTransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("transaction reverted (hash: %s)", hash)
			}
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("transaction %s not mined within %s", hash, timeout)
}

// SimulateCall simulates a contract call with the from field set.
// Returns (true, returnData, nil) on success or (false, revertError, nil) if
// the call reverts. Network errors return (false, "", err).
func (c *EVMClient) SimulateCall(ctx context.Context, from, to, data string, value *big.Int) (bool, *RevertError, error) {
	params := map[string]string{
		"from": from,
		"to":   to,
	}
	if data != "" {
		params["data"] = data
	}
	if value != nil && value.Sign() > 0 {
		params["value"] = "0x" + value.Text(16)
	}

	_, err := c.call(ctx, "eth_call", params, "latest")
	if err == nil {
		return true, nil, nil
	}
	var rev *RevertError
	if asRevert(err, &rev) {
		return false, rev, nil
	}
	return false, nil, err
}

func asRevert(err error, out **RevertError) bool {
	rev, ok := err.(*RevertError)
	if ok {
		*out = rev
	}
	return ok
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcErrorBody   `json:"error"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (c *EVMClient) call(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		msg := rpcResp.Error.Message
		if strings.Contains(msg, "revert") || strings.Contains(msg, "execution") {
			return nil, &RevertError{Message: msg, Data: rpcResp.Error.Data}
		}
		return nil, fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, msg)
	}

	var result interface{}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}

	return result, nil
}

func parseBigHex(s string) (*big.Int, bool) {
	n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	return n, ok
}
