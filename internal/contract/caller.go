package contract

import (
	"context"
	"fmt"

	"github.com/expendi/expendi-cli/internal/chain"
)

// Caller calls read-only (view/pure) contract functions.
type Caller struct {
	client  *chain.EVMClient
	binding *Binding
}

// NewCaller creates a Caller for one contract ABI.
func NewCaller(client *chain.EVMClient, binding *Binding) *Caller {
	return &Caller{client: client, binding: binding}
}

// Call calls a read function and returns the decoded outputs.
func (c *Caller) Call(ctx context.Context, contractAddr, funcName string, args ...interface{}) ([]interface{}, error) {
	calldata, err := c.binding.Pack(funcName, args...)
	if err != nil {
		return nil, err
	}

	result, err := c.client.CallContract(ctx, contractAddr, calldata)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}

	return c.binding.Unpack(funcName, result)
}
