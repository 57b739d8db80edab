package subgraph

import (
	"math/big"
	"strconv"
	"strings"
)

// The subgraph returns all numerics as decimal strings; Amount and Timestamp
// helpers below parse them on demand.

// Token is an indexed ERC-20 token.
type Token struct {
	ID       string `json:"id"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
}

// TokenBalance is a (bucket, token) balance pair in base units.
type TokenBalance struct {
	ID      string `json:"id"`
	Balance string `json:"balance"`
	Token   Token  `json:"token"`
}

// Bucket is a named spending category inside a budget wallet.
type Bucket struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Balance            string         `json:"balance"`
	MonthlySpent       string         `json:"monthlySpent"`
	MonthlyLimit       string         `json:"monthlyLimit"`
	Active             bool           `json:"active"`
	CreatedAt          string         `json:"createdAt"`
	UpdatedAt          string         `json:"updatedAt"`
	LastResetTimestamp string         `json:"lastResetTimestamp"`
	TokenBalances      []TokenBalance `json:"tokenBalances"`
}

// WalletCreated is a factory wallet-creation event.
type WalletCreated struct {
	ID              string `json:"id"`
	Wallet          string `json:"wallet"`
	Salt            string `json:"salt"`
	Timestamp       string `json:"timestamp"`
	BlockNumber     string `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
}

// User is the indexed view of an owner address.
type User struct {
	ID             string          `json:"id"`
	Address        string          `json:"address"`
	TotalBalance   string          `json:"totalBalance"`
	TotalSpent     string          `json:"totalSpent"`
	BucketsCount   string          `json:"bucketsCount"`
	WalletsCreated []WalletCreated `json:"walletsCreated"`
	Buckets        []Bucket        `json:"buckets"`
}

// BucketRef is the bucket summary embedded in transaction records.
type BucketRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Deposit is an indexed deposit event (wallet-level or bucket funding).
type Deposit struct {
	ID              string    `json:"id"`
	Amount          string    `json:"amount"`
	Timestamp       string    `json:"timestamp"`
	Type            string    `json:"type"`
	BlockNumber     string    `json:"blockNumber"`
	TransactionHash string    `json:"transactionHash"`
	Bucket          BucketRef `json:"bucket"`
	Token           Token     `json:"token"`
}

// Withdrawal is an indexed spend event.
type Withdrawal struct {
	ID              string    `json:"id"`
	Amount          string    `json:"amount"`
	Timestamp       string    `json:"timestamp"`
	Recipient       string    `json:"recipient"`
	Type            string    `json:"type"`
	TransactionHash string    `json:"transactionHash"`
	Bucket          BucketRef `json:"bucket"`
	Token           Token     `json:"token"`
}

// BucketTransfer is an indexed inter-bucket move.
type BucketTransfer struct {
	ID              string    `json:"id"`
	Amount          string    `json:"amount"`
	Timestamp       string    `json:"timestamp"`
	TransactionHash string    `json:"transactionHash"`
	FromBucket      BucketRef `json:"fromBucket"`
	ToBucket        BucketRef `json:"toBucket"`
	Token           Token     `json:"token"`
}

// Amount parses a base-unit decimal string. Malformed input yields zero,
// matching how the dashboard treats partially-indexed entities.
func Amount(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return n
}

// Timestamp parses a unix-seconds string; zero on malformed input.
func Timestamp(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// BalanceOf returns the bucket's balance for a token address, zero when the
// bucket holds none of it.
func (b *Bucket) BalanceOf(tokenAddr string) *big.Int {
	for _, tb := range b.TokenBalances {
		if strings.EqualFold(tb.Token.Address, tokenAddr) || strings.EqualFold(tb.Token.ID, tokenAddr) {
			return Amount(tb.Balance)
		}
	}
	return new(big.Int)
}

// MonthlyRemaining returns monthlyLimit - monthlySpent, floored at zero.
func (b *Bucket) MonthlyRemaining() *big.Int {
	rem := new(big.Int).Sub(Amount(b.MonthlyLimit), Amount(b.MonthlySpent))
	if rem.Sign() < 0 {
		return new(big.Int)
	}
	return rem
}
