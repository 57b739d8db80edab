// Package subgraph is a read-only GraphQL client for the indexed budget
// wallet state. All ids are lowercase addresses; the client lowercases
// inputs so callers don't have to.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client queries the subgraph endpoint.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a subgraph client for url.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Query posts a GraphQL query and unmarshals the data payload into out.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("subgraph request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading subgraph response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subgraph returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var gr gqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("parsing subgraph response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return fmt.Errorf("subgraph query error: %s", gr.Errors[0].Message)
	}

	return json.Unmarshal(gr.Data, out)
}

const userQuery = `
query GetUserBudgetWallet($userAddress: ID!) {
  user(id: $userAddress) {
    id
    address
    totalBalance
    totalSpent
    bucketsCount
    walletsCreated {
      id
      wallet
      salt
      timestamp
      blockNumber
      transactionHash
    }
    buckets {
      id
      name
      balance
      monthlySpent
      monthlyLimit
      active
      createdAt
      updatedAt
      lastResetTimestamp
      tokenBalances {
        id
        balance
        token {
          id
          address
          name
          symbol
          decimals
        }
      }
    }
  }
}`

// User fetches the full indexed view of an owner address.
// Returns nil, nil when the address has never interacted on-chain.
func (c *Client) User(ctx context.Context, address string) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	err := c.Query(ctx, userQuery, map[string]any{
		"userAddress": strings.ToLower(address),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

const walletsQuery = `
query GetUserWallets($userAddress: ID!) {
  user(id: $userAddress) {
    id
    walletsCreated {
      id
      wallet
      salt
      timestamp
      blockNumber
      transactionHash
    }
  }
}`

// WalletsCreated returns all wallet-creation events for an owner address.
func (c *Client) WalletsCreated(ctx context.Context, address string) ([]WalletCreated, error) {
	var out struct {
		User *User `json:"user"`
	}
	err := c.Query(ctx, walletsQuery, map[string]any{
		"userAddress": strings.ToLower(address),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, nil
	}
	return out.User.WalletsCreated, nil
}

const bucketsQuery = `
query GetUserBuckets($userId: ID!) {
  user(id: $userId) {
    buckets {
      id
      name
      balance
      monthlyLimit
      monthlySpent
      active
      createdAt
      updatedAt
      lastResetTimestamp
      tokenBalances {
        id
        balance
        token {
          id
          address
          name
          symbol
          decimals
        }
      }
    }
  }
}`

// Buckets returns the owner's buckets, including the UNALLOCATED sentinel.
func (c *Client) Buckets(ctx context.Context, address string) ([]Bucket, error) {
	var out struct {
		User *User `json:"user"`
	}
	err := c.Query(ctx, bucketsQuery, map[string]any{
		"userId": strings.ToLower(address),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, nil
	}
	return out.User.Buckets, nil
}

const depositsQuery = `
query GetDeposits($userId: String!, $first: Int!) {
  deposits(
    where: { user: $userId }
    first: $first
    orderBy: timestamp
    orderDirection: desc
  ) {
    id
    amount
    timestamp
    type
    blockNumber
    transactionHash
    bucket { id name }
    token { id symbol decimals }
  }
}`

// Deposits returns the most recent deposits, newest first.
func (c *Client) Deposits(ctx context.Context, address string, first int) ([]Deposit, error) {
	var out struct {
		Deposits []Deposit `json:"deposits"`
	}
	err := c.Query(ctx, depositsQuery, map[string]any{
		"userId": strings.ToLower(address),
		"first":  first,
	}, &out)
	return out.Deposits, err
}

const withdrawalsQuery = `
query GetWithdrawals($userId: String!, $first: Int!) {
  withdrawals(
    where: { user: $userId }
    first: $first
    orderBy: timestamp
    orderDirection: desc
  ) {
    id
    amount
    timestamp
    recipient
    type
    transactionHash
    bucket { id name }
    token { id symbol decimals }
  }
}`

// Withdrawals returns the most recent spends, newest first.
func (c *Client) Withdrawals(ctx context.Context, address string, first int) ([]Withdrawal, error) {
	var out struct {
		Withdrawals []Withdrawal `json:"withdrawals"`
	}
	err := c.Query(ctx, withdrawalsQuery, map[string]any{
		"userId": strings.ToLower(address),
		"first":  first,
	}, &out)
	return out.Withdrawals, err
}

const transfersQuery = `
query GetBucketTransfers($userId: String!, $first: Int!) {
  bucketTransfers(
    where: { user: $userId }
    first: $first
    orderBy: timestamp
    orderDirection: desc
  ) {
    id
    amount
    timestamp
    transactionHash
    fromBucket { id name }
    toBucket { id name }
    token { id symbol decimals }
  }
}`

// BucketTransfers returns the most recent inter-bucket moves, newest first.
func (c *Client) BucketTransfers(ctx context.Context, address string, first int) ([]BucketTransfer, error) {
	var out struct {
		BucketTransfers []BucketTransfer `json:"bucketTransfers"`
	}
	err := c.Query(ctx, transfersQuery, map[string]any{
		"userId": strings.ToLower(address),
		"first":  first,
	}, &out)
	return out.BucketTransfers, err
}

const unallocatedDepositsQuery = `
query GetUnallocatedDeposits($userId: String!, $first: Int!) {
  deposits(
    where: {
      user: $userId
      bucket_: { name: "UNALLOCATED" }
    }
    first: $first
    orderBy: timestamp
    orderDirection: desc
  ) {
    id
    amount
    timestamp
    type
    blockNumber
    transactionHash
    bucket { id name }
    token { id symbol decimals }
  }
}`

// UnallocatedDeposits returns deposits that landed in the sentinel bucket.
func (c *Client) UnallocatedDeposits(ctx context.Context, address string, first int) ([]Deposit, error) {
	var out struct {
		Deposits []Deposit `json:"deposits"`
	}
	err := c.Query(ctx, unallocatedDepositsQuery, map[string]any{
		"userId": strings.ToLower(address),
		"first":  first,
	}, &out)
	return out.Deposits, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
