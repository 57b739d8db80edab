package account

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// BundlerClient speaks the 4337 bundler and paymaster JSON-RPC surface.
// Pimlico serves both method families on one endpoint.
type BundlerClient struct {
	url    string
	client *http.Client
}

// NewBundlerClient creates a client for the bundler endpoint. The API key is
// passed as a query parameter per the provider's auth scheme.
func NewBundlerClient(baseURL, apiKey string) *BundlerClient {
	url := baseURL
	if apiKey != "" {
		sep := "?"
		if strings.Contains(baseURL, "?") {
			sep = "&"
		}
		url = baseURL + sep + "apikey=" + apiKey
	}
	return &BundlerClient{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SponsorshipResult is the paymaster's gas quote for an operation it agrees
// to pay for.
type SponsorshipResult struct {
	PaymasterAndData     string `json:"paymasterAndData"`
	PreVerificationGas   string `json:"preVerificationGas"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	CallGasLimit         string `json:"callGasLimit"`
}

// SponsorUserOperation asks the paymaster to sponsor op. On success the
// returned gas limits and paymasterAndData must be copied into op before
// signing.
func (b *BundlerClient) SponsorUserOperation(ctx context.Context, op *UserOperation, entryPoint string) (*SponsorshipResult, error) {
	var out SponsorshipResult
	err := b.call(ctx, "pm_sponsorUserOperation", []interface{}{op, entryPoint}, &out)
	if err != nil {
		return nil, fmt.Errorf("requesting sponsorship: %w", err)
	}
	return &out, nil
}

// SendUserOperation submits a signed operation and returns its userOpHash.
func (b *BundlerClient) SendUserOperation(ctx context.Context, op *UserOperation, entryPoint string) (string, error) {
	var hash string
	err := b.call(ctx, "eth_sendUserOperation", []interface{}{op, entryPoint}, &hash)
	if err != nil {
		return "", fmt.Errorf("submitting user operation: %w", err)
	}
	return hash, nil
}

// UserOpReceipt is the bundler's record of an included operation. Receipt
// carries the enclosing transaction, whose hash is what the indexer sees.
type UserOpReceipt struct {
	UserOpHash    string `json:"userOpHash"`
	Sender        string `json:"sender"`
	Nonce         string `json:"nonce"`
	Paymaster     string `json:"paymaster"`
	Success       bool   `json:"success"`
	Reason        string `json:"reason"`
	ActualGasCost string `json:"actualGasCost"`
	ActualGasUsed string `json:"actualGasUsed"`
	Receipt       struct {
		TransactionHash string `json:"transactionHash"`
		BlockNumber     string `json:"blockNumber"`
	} `json:"receipt"`
}

// GetUserOperationReceipt fetches the receipt for a userOpHash.
// Returns nil, nil while the operation is still in flight.
func (b *BundlerClient) GetUserOperationReceipt(ctx context.Context, userOpHash string) (*UserOpReceipt, error) {
	var raw json.RawMessage
	if err := b.call(ctx, "eth_getUserOperationReceipt", []interface{}{userOpHash}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var receipt UserOpReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("parsing user operation receipt: %w", err)
	}
	return &receipt, nil
}

type bundlerRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type bundlerResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (b *BundlerClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(bundlerRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("bundler request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading bundler response: %w", err)
	}

	var br bundlerResponse
	if err := json.Unmarshal(raw, &br); err != nil {
		return fmt.Errorf("parsing bundler response: %w", err)
	}
	if br.Error != nil {
		return fmt.Errorf("bundler error %d: %s", br.Error.Code, br.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(br.Result, out)
}
