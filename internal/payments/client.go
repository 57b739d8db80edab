// Package payments handles the off-chain leg of phone-number spends: the
// Pretium disbursement API, the local pending-payout ledger, and the HTTP
// proxy the dashboard calls.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/expendi/expendi-cli/internal/config"
)

// Client talks to the Pretium settlement API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a client from the environment secrets.
func NewClient(secrets config.Secrets, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(secrets.PaymentAPIBase, "/"),
		apiKey:  secrets.PaymentAPIKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// ExchangeRate returns the provider's buying rate: local currency units per
// one USDC.
func (c *Client) ExchangeRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	var out struct {
		Data struct {
			BuyingRate json.Number `json:"buying_rate"`
		} `json:"data"`
	}
	err := c.post(ctx, "/v1/exchange-rate", map[string]string{
		"currency_code": currency,
	}, &out)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching exchange rate: %w", err)
	}

	rate, err := decimal.NewFromString(out.Data.BuyingRate.String())
	if err != nil || rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("provider returned unusable buying rate %q", out.Data.BuyingRate)
	}
	return rate, nil
}

// DisburseRequest is a mobile-money payout order.
type DisburseRequest struct {
	TransactionHash string          `json:"transaction_hash"`
	Amount          decimal.Decimal `json:"amount"`
	Shortcode       string          `json:"shortcode"`
	MobileNetwork   string          `json:"mobile_network"`
	Type            string          `json:"type"`
	CallbackURL     string          `json:"callback_url,omitempty"`
	Currency        string          `json:"-"`
}

// DisburseResponse is the provider's acknowledgement of a payout order.
type DisburseResponse struct {
	TransactionCode string `json:"transaction_code"`
	Status          string `json:"status"`
	Message         string `json:"message"`
}

// Disburse submits a payout. The currency routes the request to the
// country-specific endpoint.
func (c *Client) Disburse(ctx context.Context, req DisburseRequest) (*DisburseResponse, error) {
	path := "/v1/pay"
	if req.Currency != "" {
		path += "/" + strings.ToUpper(req.Currency)
	}

	var out struct {
		Data DisburseResponse `json:"data"`
	}
	if err := c.post(ctx, path, req, &out); err != nil {
		return nil, fmt.Errorf("submitting payout: %w", err)
	}
	return &out.Data, nil
}

// StatusReceipt is the dashboard-facing view of a payout's progress. The
// provider does not always return a receipt number, so one is synthesized to
// keep downstream records addressable.
type StatusReceipt struct {
	TransactionCode string `json:"transaction_code"`
	Status          string `json:"status"`
	ReceiptNumber   string `json:"receipt_number"`
	Amount          string `json:"amount"`
	PublicName      string `json:"public_name"`
}

// Status fetches the state of a payout by its transaction code.
func (c *Client) Status(ctx context.Context, transactionCode string) (*StatusReceipt, error) {
	var out struct {
		Data StatusReceipt `json:"data"`
	}
	err := c.post(ctx, "/v1/status", map[string]string{
		"transaction_code": transactionCode,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("fetching payout status: %w", err)
	}

	receipt := out.Data
	if receipt.TransactionCode == "" {
		receipt.TransactionCode = transactionCode
	}
	if receipt.ReceiptNumber == "" {
		receipt.ReceiptNumber = uuid.NewString()
	}
	return &receipt, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	c.log.Debug("payment api request", zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment api unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("payment api error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("payment api returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
