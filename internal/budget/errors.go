package budget

import (
	"errors"
	"fmt"

	"github.com/expendi/expendi-cli/internal/chain"
	"github.com/expendi/expendi-cli/internal/contract"
)

// Kind buckets operation failures into the categories the CLI words
// differently to the user.
type Kind int

const (
	KindUnknown Kind = iota
	KindUserRejected
	KindInsufficientBalance
	KindBudgetExceeded
	KindInvalidRecipient
	KindNetworkOrTimeout
	KindContractReverted
	KindIndexerLag
)

func (k Kind) String() string {
	switch k {
	case KindUserRejected:
		return "user-rejected"
	case KindInsufficientBalance:
		return "insufficient-balance"
	case KindBudgetExceeded:
		return "budget-exceeded"
	case KindInvalidRecipient:
		return "invalid-recipient"
	case KindNetworkOrTimeout:
		return "network-or-timeout"
	case KindContractReverted:
		return "contract-reverted"
	case KindIndexerLag:
		return "indexer-lag"
	default:
		return "unknown"
	}
}

// Error is an operation failure with its classification. Messages embed the
// concrete figures involved so the user sees amounts, not placeholders.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from any error chain.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// ErrUserRejected is returned when the user declines the confirmation prompt.
var ErrUserRejected = &Error{Kind: KindUserRejected, Msg: "operation cancelled"}

func errInsufficientUnallocated(requested, available string) *Error {
	return &Error{
		Kind: KindInsufficientBalance,
		Msg: fmt.Sprintf("insufficient unallocated funds: requested %s USDC but only %s USDC is unallocated",
			requested, available),
	}
}

func errInsufficientBucket(bucket, requested, available string) *Error {
	return &Error{
		Kind: KindInsufficientBalance,
		Msg: fmt.Sprintf("bucket %q holds %s USDC, cannot spend %s USDC",
			bucket, available, requested),
	}
}

func errInsufficientWalletBalance(requested, available string) *Error {
	return &Error{
		Kind: KindInsufficientBalance,
		Msg: fmt.Sprintf("wallet holds %s USDC, cannot deposit %s USDC",
			available, requested),
	}
}

func errBudgetExceeded(bucket, requested, remaining, limit string) *Error {
	return &Error{
		Kind: KindBudgetExceeded,
		Msg: fmt.Sprintf("spending %s USDC from %q would exceed its monthly limit of %s USDC (%s USDC remaining this month)",
			requested, bucket, limit, remaining),
	}
}

func errInvalidRecipient(input string, cause error) *Error {
	msg := fmt.Sprintf("cannot pay %q: not a valid address, name, or phone number", input)
	if cause != nil {
		msg = fmt.Sprintf("cannot pay %q: %v", input, cause)
	}
	return &Error{Kind: KindInvalidRecipient, Msg: msg, Err: cause}
}

// wrapSubmitError classifies a failure from the submission path. Reverts
// carry the decoded on-chain reason; everything else is a transport problem.
func wrapSubmitError(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	var rev *chain.RevertError
	if errors.As(err, &rev) {
		reason := contract.DecodeRevertReason(rev.Data)
		if reason == "" {
			reason = rev.Message
		}
		return &Error{
			Kind: KindContractReverted,
			Msg:  fmt.Sprintf("%s reverted on-chain: %s", op, reason),
			Err:  err,
		}
	}
	return &Error{
		Kind: KindNetworkOrTimeout,
		Msg:  fmt.Sprintf("%s did not complete: %v", op, err),
		Err:  err,
	}
}
