package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/expendi/expendi-cli/internal/budget"
)

// Payouts is the payment rail wired into spend operations. Every payout is
// written to the local ledger before the provider call, so a retry never
// re-delivers and a failure never loses the order.
type Payouts struct {
	client      *Client
	store       *Store
	callbackURL string
	paymentType string
	log         *zap.Logger
}

// NewPayouts wires the rail. paymentType is the provider's channel selector,
// "MOBILE" for person-to-person deliveries.
func NewPayouts(client *Client, store *Store, callbackURL, paymentType string, log *zap.Logger) *Payouts {
	if log == nil {
		log = zap.NewNop()
	}
	return &Payouts{
		client:      client,
		store:       store,
		callbackURL: callbackURL,
		paymentType: paymentType,
		log:         log,
	}
}

// BuyingRate quotes local currency units per USDC.
func (p *Payouts) BuyingRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	return p.client.ExchangeRate(ctx, currency)
}

// Initiate records and submits a payout. Idempotent per transaction hash: a
// hash that already completed returns its receipt without a second delivery.
func (p *Payouts) Initiate(ctx context.Context, req budget.PayoutRequest) (string, error) {
	existing, err := p.store.Get(ctx, req.TxHash)
	switch {
	case err == nil && existing.Status == StatusCompleted:
		p.log.Info("payout already delivered",
			zap.String("tx", req.TxHash),
			zap.String("receipt", existing.ReceiptID),
		)
		return existing.ReceiptID, nil
	case err == nil:
		// Pending or failed record from an earlier attempt; retry it.
	case errors.Is(err, ErrNotFound):
		if err := p.store.CreatePending(ctx, Payout{
			TxHash:      req.TxHash,
			Phone:       req.Phone,
			LocalAmount: req.LocalAmount.String(),
			Currency:    req.Currency,
			Network:     req.Network,
		}); err != nil {
			return "", err
		}
	default:
		return "", err
	}

	return p.deliver(ctx, Payout{
		TxHash:      req.TxHash,
		Phone:       req.Phone,
		LocalAmount: req.LocalAmount.String(),
		Currency:    req.Currency,
		Network:     req.Network,
	})
}

// RetryPending re-submits every payout still marked pending. Returns how
// many were delivered.
func (p *Payouts) RetryPending(ctx context.Context) (int, error) {
	pending, err := p.store.Pending(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, rec := range pending {
		if _, err := p.deliver(ctx, rec); err != nil {
			p.log.Warn("payout retry failed",
				zap.String("tx", rec.TxHash),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (p *Payouts) deliver(ctx context.Context, rec Payout) (string, error) {
	amount, err := decimal.NewFromString(rec.LocalAmount)
	if err != nil {
		return "", fmt.Errorf("corrupt payout amount %q for tx %s", rec.LocalAmount, rec.TxHash)
	}

	resp, err := p.client.Disburse(ctx, DisburseRequest{
		TransactionHash: rec.TxHash,
		Amount:          amount,
		Shortcode:       rec.Phone,
		MobileNetwork:   rec.Network,
		Type:            p.paymentType,
		CallbackURL:     p.callbackURL,
		Currency:        rec.Currency,
	})
	if err != nil {
		if markErr := p.store.RecordAttempt(ctx, rec.TxHash, err.Error()); markErr != nil {
			p.log.Error("could not record payout attempt", zap.Error(markErr))
		}
		return "", err
	}

	receiptID := resp.TransactionCode
	if err := p.store.MarkCompleted(ctx, rec.TxHash, receiptID); err != nil {
		return "", err
	}

	p.log.Info("payout delivered",
		zap.String("tx", rec.TxHash),
		zap.String("receipt", receiptID),
		zap.String("amount", rec.LocalAmount),
		zap.String("currency", rec.Currency),
	)
	return receiptID, nil
}
