package budget

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/expendi/expendi-cli/internal/account"
	"github.com/expendi/expendi-cli/internal/chain"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/contract"
	"github.com/expendi/expendi-cli/internal/resolver"
	"github.com/expendi/expendi-cli/internal/subgraph"
)

// PayoutRequest asks the payment rail to deliver a settled on-chain spend to
// a phone number in local currency.
type PayoutRequest struct {
	TxHash      string
	Phone       string
	LocalAmount decimal.Decimal
	Currency    string
	Network     string
}

// Payouts is the off-chain payment rail used for phone-number spends.
type Payouts interface {
	// BuyingRate quotes local currency units per USDC.
	BuyingRate(ctx context.Context, currency string) (decimal.Decimal, error)
	// Initiate records and submits the payout. Implementations must be
	// idempotent per transaction hash.
	Initiate(ctx context.Context, req PayoutRequest) (receiptID string, err error)
}

// TxResult is the outcome of a bucket write, with the bucket's post-write
// state when the refetch succeeded in time.
type TxResult struct {
	TxHash string
	Bucket *subgraph.Bucket
}

// PayoutOutcome describes the off-chain leg of a phone spend.
type PayoutOutcome struct {
	ReceiptID   string
	LocalAmount decimal.Decimal
	Currency    string
}

// SpendResult is the outcome of a spend, including the resolved recipient
// and, for phone spends, the payout leg.
type SpendResult struct {
	TxResult
	Recipient     string
	RecipientKind resolver.Kind
	Payout        *PayoutOutcome
}

// Service executes bucket operations against the deployed budget wallet.
// Validation reads go to the contract, not the subgraph, so indexer lag
// cannot produce stale advisory errors; the contract re-enforces everything
// on-chain regardless.
type Service struct {
	client   *chain.EVMClient
	graph    *subgraph.Client
	session  *account.Session
	direct   account.Submitter
	resolver *resolver.Resolver
	payouts  Payouts
	network  config.Network
	currency string
	mobile   string

	// wallet is the deployed budget wallet address, resolved lazily from
	// the subgraph or the factory and cached for the command's lifetime.
	wallet string

	refetchDelay time.Duration
}

// NewService wires a Service. payouts may be nil, which disables phone
// spends with a clear error instead of a half-run saga.
func NewService(client *chain.EVMClient, graph *subgraph.Client, session *account.Session, direct account.Submitter, res *resolver.Resolver, payouts Payouts, network config.Network, cfg *config.Config) *Service {
	return &Service{
		client:   client,
		graph:    graph,
		session:  session,
		direct:   direct,
		resolver: res,
		payouts:  payouts,
		network:  network,
		currency: cfg.PayoutCurrency,
		mobile:   cfg.MobileNetwork,

		refetchDelay: config.RefetchDelay,
	}
}

func (s *Service) submitter() account.Submitter {
	if s.session.Ready() {
		return s.session
	}
	return s.direct
}

// Owner returns the acting on-chain identity.
func (s *Service) Owner() account.Owner {
	return s.submitter().From()
}

// walletAddress resolves the owner's deployed budget wallet, the contract
// every bucket read and write targets. Both identities are tried so a wallet
// created under the smart account is still found when sponsorship is down.
func (s *Service) walletAddress(ctx context.Context) (string, error) {
	if s.wallet != "" {
		return s.wallet, nil
	}

	var owners []account.Owner
	if s.session.Ready() {
		owners = append(owners, s.session.From())
	}
	owners = append(owners, s.direct.From())
	for _, owner := range owners {
		addr, err := lookupWallet(ctx, s.client, s.graph, s.network, owner.Address)
		if err != nil {
			return "", err
		}
		if addr != "" {
			s.wallet = addr
			return addr, nil
		}
	}
	return "", fmt.Errorf("no budget wallet provisioned for %s; run: expendi setup", s.Owner().Address)
}

// CreateBucket creates a named bucket with a monthly limit in USDC.
func (s *Service) CreateBucket(ctx context.Context, name, limitStr string) (*TxResult, error) {
	if err := validBucketName(name); err != nil {
		return nil, err
	}
	limit, err := ParseAmount(limitStr)
	if err != nil {
		return nil, err
	}

	names, err := s.bucketNames(ctx)
	if err != nil {
		return nil, wrapSubmitError("bucket lookup", err)
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return nil, fmt.Errorf("bucket %q already exists", n)
		}
	}

	return s.walletWrite(ctx, name, "createBucket", name, limit)
}

// UpdateBucket changes a bucket's monthly limit and active flag.
func (s *Service) UpdateBucket(ctx context.Context, name, limitStr string, active bool) (*TxResult, error) {
	limit, err := ParseAmount(limitStr)
	if err != nil {
		return nil, err
	}
	if err := s.requireBucket(ctx, name); err != nil {
		return nil, err
	}
	return s.walletWrite(ctx, name, "updateBucket", name, limit, active)
}

// Fund moves unallocated USDC into a bucket.
func (s *Service) Fund(ctx context.Context, bucket, amountStr string) (*TxResult, error) {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return nil, err
	}
	if err := s.requireBucket(ctx, bucket); err != nil {
		return nil, err
	}

	available, err := s.unallocatedBalance(ctx)
	if err != nil {
		return nil, wrapSubmitError("balance lookup", err)
	}
	if amount.Cmp(available) > 0 {
		return nil, errInsufficientUnallocated(FormatAmount(amount), FormatAmount(available))
	}

	return s.walletWrite(ctx, bucket, "fundBucket", bucket, amount, common.HexToAddress(s.network.USDCAddress))
}

// Transfer moves USDC between two buckets.
func (s *Service) Transfer(ctx context.Context, from, to, amountStr string) (*TxResult, error) {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(from, to) {
		return nil, fmt.Errorf("source and destination bucket are both %q", from)
	}
	for _, b := range []string{from, to} {
		if err := s.requireBucket(ctx, b); err != nil {
			return nil, err
		}
	}

	balance, err := s.bucketBalance(ctx, from)
	if err != nil {
		return nil, wrapSubmitError("balance lookup", err)
	}
	if amount.Cmp(balance) > 0 {
		return nil, errInsufficientBucket(from, FormatAmount(amount), FormatAmount(balance))
	}

	return s.walletWrite(ctx, to, "transferBetweenBuckets", from, to, amount, common.HexToAddress(s.network.USDCAddress))
}

// Deposit moves USDC from the owner's own balance into the wallet's
// unallocated pool. The approve and the deposit ride one atomic user
// operation when sponsored, sequential transactions otherwise.
func (s *Service) Deposit(ctx context.Context, amountStr string) (*TxResult, error) {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return nil, err
	}

	owner := s.Owner()
	held, err := s.client.GetTokenBalance(ctx, s.network.USDCAddress, owner.Address)
	if err != nil {
		return nil, wrapSubmitError("balance lookup", err)
	}
	if amount.Cmp(held) > 0 {
		return nil, errInsufficientWalletBalance(FormatAmount(amount), FormatAmount(held))
	}

	wallet, err := s.walletAddress(ctx)
	if err != nil {
		return nil, wrapSubmitError("wallet lookup", err)
	}
	approve, err := contract.ERC20.Pack("approve", common.HexToAddress(wallet), amount)
	if err != nil {
		return nil, err
	}
	deposit, err := contract.BudgetWallet.Pack("depositToken", common.HexToAddress(s.network.USDCAddress), amount)
	if err != nil {
		return nil, err
	}

	txHash, err := s.submitter().Submit(ctx,
		account.Call{To: s.network.USDCAddress, Data: approve},
		account.Call{To: wallet, Data: deposit},
	)
	if err != nil {
		return nil, wrapSubmitError("deposit", err)
	}

	result := &TxResult{TxHash: txHash}
	result.Bucket = s.refetchBucket(ctx, config.UnallocatedBucket)
	return result, nil
}

// Spend pays a recipient from a bucket. The recipient may be an address, a
// resolvable name, or a phone number; phone spends settle on-chain first and
// then trigger the off-chain payout.
func (s *Service) Spend(ctx context.Context, bucket, amountStr, recipientInput string) (*SpendResult, error) {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return nil, err
	}

	kind := resolver.Classify(recipientInput)
	recipient, err := s.resolveRecipient(ctx, recipientInput, kind)
	if err != nil {
		return nil, err
	}
	if kind == resolver.KindPhone && s.payouts == nil {
		return nil, errInvalidRecipient(recipientInput, fmt.Errorf("phone payouts are not configured"))
	}

	if err := s.checkSpend(ctx, bucket, amount); err != nil {
		return nil, err
	}

	// Phone spends need the rate before settling, so a quoting failure
	// cannot strand funds at the settlement address.
	var rate decimal.Decimal
	if kind == resolver.KindPhone {
		rate, err = s.payouts.BuyingRate(ctx, s.currency)
		if err != nil {
			return nil, wrapSubmitError("exchange rate lookup", err)
		}
	}

	owner := s.Owner()
	calldata, err := contract.BudgetWallet.Pack("spendFromBucket",
		common.HexToAddress(owner.Address),
		bucket,
		amount,
		common.HexToAddress(recipient),
		common.HexToAddress(s.network.USDCAddress),
		[]byte{},
	)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletAddress(ctx)
	if err != nil {
		return nil, wrapSubmitError("wallet lookup", err)
	}
	txHash, err := s.submitter().Submit(ctx, account.Call{To: wallet, Data: calldata})
	if err != nil {
		return nil, wrapSubmitError("spend", err)
	}

	result := &SpendResult{
		TxResult:      TxResult{TxHash: txHash},
		Recipient:     recipient,
		RecipientKind: kind,
	}

	if kind == resolver.KindPhone {
		local := ToDecimal(amount).Mul(rate)
		receiptID, err := s.payouts.Initiate(ctx, PayoutRequest{
			TxHash:      txHash,
			Phone:       recipientInput,
			LocalAmount: local,
			Currency:    s.currency,
			Network:     s.mobile,
		})
		if err != nil {
			// The on-chain leg settled; surface the payout failure with
			// the hash so the pending record can be retried.
			return result, wrapSubmitError(fmt.Sprintf("payout for tx %s", txHash), err)
		}
		result.Payout = &PayoutOutcome{
			ReceiptID:   receiptID,
			LocalAmount: local,
			Currency:    s.currency,
		}
	}

	result.Bucket = s.refetchBucket(ctx, bucket)
	return result, nil
}

// Buckets returns the indexed buckets for the acting owner.
func (s *Service) Buckets(ctx context.Context) ([]subgraph.Bucket, error) {
	return s.graph.Buckets(ctx, s.Owner().Address)
}

func (s *Service) resolveRecipient(ctx context.Context, input string, kind resolver.Kind) (string, error) {
	switch kind {
	case resolver.KindAddress:
		return input, nil
	case resolver.KindName:
		addr, err := s.resolver.Resolve(ctx, input)
		if err != nil {
			return "", errInvalidRecipient(input, err)
		}
		return addr, nil
	case resolver.KindPhone:
		// Phone spends settle at the fixed settlement address; delivery
		// happens off-chain.
		return s.network.SettlementAddress, nil
	default:
		return "", errInvalidRecipient(input, nil)
	}
}

// checkSpend runs the advisory balance and budget checks for a spend.
func (s *Service) checkSpend(ctx context.Context, bucket string, amount *big.Int) error {
	if err := s.requireBucket(ctx, bucket); err != nil {
		return err
	}

	state, err := s.bucketState(ctx, bucket)
	if err != nil {
		return wrapSubmitError("bucket lookup", err)
	}
	if !state.active {
		return fmt.Errorf("bucket %q is inactive", bucket)
	}

	balance, err := s.bucketBalance(ctx, bucket)
	if err != nil {
		return wrapSubmitError("balance lookup", err)
	}
	if amount.Cmp(balance) > 0 {
		return errInsufficientBucket(bucket, FormatAmount(amount), FormatAmount(balance))
	}

	// A zero limit means the bucket is unbudgeted.
	if state.limit.Sign() > 0 {
		remaining := new(big.Int).Sub(state.limit, state.spent)
		if remaining.Sign() < 0 {
			remaining = new(big.Int)
		}
		if amount.Cmp(remaining) > 0 {
			return errBudgetExceeded(bucket, FormatAmount(amount), FormatAmount(remaining), FormatAmount(state.limit))
		}
	}
	return nil
}

type bucketState struct {
	balance *big.Int
	spent   *big.Int
	limit   *big.Int
	active  bool
}

func (s *Service) bucketState(ctx context.Context, bucket string) (*bucketState, error) {
	wallet, err := s.walletAddress(ctx)
	if err != nil {
		return nil, err
	}
	caller := contract.NewCaller(s.client, contract.BudgetWallet)
	out, err := caller.Call(ctx, wallet, "getBucket", common.HexToAddress(s.Owner().Address), bucket)
	if err != nil {
		return nil, err
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("unexpected getBucket output length %d", len(out))
	}
	state := &bucketState{}
	var ok bool
	if state.balance, ok = out[0].(*big.Int); !ok {
		return nil, fmt.Errorf("unexpected balance type %T", out[0])
	}
	if state.spent, ok = out[1].(*big.Int); !ok {
		return nil, fmt.Errorf("unexpected monthlySpent type %T", out[1])
	}
	if state.limit, ok = out[2].(*big.Int); !ok {
		return nil, fmt.Errorf("unexpected monthlyLimit type %T", out[2])
	}
	if state.active, ok = out[3].(bool); !ok {
		return nil, fmt.Errorf("unexpected active type %T", out[3])
	}
	return state, nil
}

func (s *Service) bucketBalance(ctx context.Context, bucket string) (*big.Int, error) {
	wallet, err := s.walletAddress(ctx)
	if err != nil {
		return nil, err
	}
	caller := contract.NewCaller(s.client, contract.BudgetWallet)
	out, err := caller.Call(ctx, wallet, "getBucketBalance",
		common.HexToAddress(s.Owner().Address),
		common.HexToAddress(s.network.USDCAddress),
		bucket,
	)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balance type %T", out[0])
	}
	return balance, nil
}

func (s *Service) unallocatedBalance(ctx context.Context) (*big.Int, error) {
	wallet, err := s.walletAddress(ctx)
	if err != nil {
		return nil, err
	}
	caller := contract.NewCaller(s.client, contract.BudgetWallet)
	out, err := caller.Call(ctx, wallet, "getUnallocatedBalance",
		common.HexToAddress(s.Owner().Address),
		common.HexToAddress(s.network.USDCAddress),
	)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balance type %T", out[0])
	}
	return balance, nil
}

func (s *Service) bucketNames(ctx context.Context) ([]string, error) {
	wallet, err := s.walletAddress(ctx)
	if err != nil {
		return nil, err
	}
	caller := contract.NewCaller(s.client, contract.BudgetWallet)
	out, err := caller.Call(ctx, wallet, "getUserBuckets", common.HexToAddress(s.Owner().Address))
	if err != nil {
		return nil, err
	}
	names, ok := out[0].([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected bucket list type %T", out[0])
	}
	return names, nil
}

func (s *Service) requireBucket(ctx context.Context, bucket string) error {
	if err := validBucketName(bucket); err != nil {
		return err
	}
	names, err := s.bucketNames(ctx)
	if err != nil {
		return wrapSubmitError("bucket lookup", err)
	}
	for _, n := range names {
		if n == bucket {
			return nil
		}
	}
	return fmt.Errorf("no bucket named %q", bucket)
}

func validBucketName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("bucket name cannot be empty")
	}
	if strings.EqualFold(name, config.UnallocatedBucket) {
		return fmt.Errorf("%q is reserved for unallocated funds", config.UnallocatedBucket)
	}
	return nil
}

// walletWrite packs and submits a budget wallet call, then refetches the
// named bucket after the indexer's usual settle time.
func (s *Service) walletWrite(ctx context.Context, bucket, funcName string, args ...interface{}) (*TxResult, error) {
	wallet, err := s.walletAddress(ctx)
	if err != nil {
		return nil, wrapSubmitError("wallet lookup", err)
	}
	calldata, err := contract.BudgetWallet.Pack(funcName, args...)
	if err != nil {
		return nil, err
	}
	txHash, err := s.submitter().Submit(ctx, account.Call{To: wallet, Data: calldata})
	if err != nil {
		return nil, wrapSubmitError(funcName, err)
	}
	return &TxResult{TxHash: txHash, Bucket: s.refetchBucket(ctx, bucket)}, nil
}

// refetchBucket re-reads indexed state after a write. Best effort; the write
// already succeeded, so a trailing indexer only costs display freshness.
func (s *Service) refetchBucket(ctx context.Context, name string) *subgraph.Bucket {
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(s.refetchDelay):
	}
	buckets, err := s.graph.Buckets(ctx, s.Owner().Address)
	if err != nil {
		return nil
	}
	for i := range buckets {
		if buckets[i].Name == name {
			return &buckets[i]
		}
	}
	return nil
}
