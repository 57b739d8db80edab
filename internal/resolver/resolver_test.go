package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expendi/expendi-cli/internal/chain"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/contract"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		input string
		want  Kind
	}{
		{"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", KindAddress},
		{"  0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045  ", KindAddress},
		{"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA9604", KindName}, // 39 hex chars, falls through
		{"+254712345678", KindPhone},
		{"254712345678", KindPhone},
		{"712345", KindPhone}, // all digits belong to the mobile flow
		{"jesse", KindName},
		{"jesse.base.eth", KindName},
		{"my-wallet", KindName},
		{"", KindInvalid},
		{"   ", KindInvalid},
		{"has spaces", KindInvalid},
		{"under_score", KindInvalid},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.input), "input %q", tc.input)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "address", KindAddress.String())
	assert.Equal(t, "name", KindName.String())
	assert.Equal(t, "phone", KindPhone.String())
	assert.Equal(t, "invalid", KindInvalid.String())
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "jesse.base.eth", FullName("jesse"))
	assert.Equal(t, "jesse.base.eth", FullName("jesse.base.eth"))
	assert.Equal(t, "Jesse.Base.Eth", FullName("Jesse.Base.Eth"))
}

// Reference vectors from EIP-137.
func TestNamehash(t *testing.T) {
	assert.Equal(t,
		"0000000000000000000000000000000000000000000000000000000000000000",
		Namehash(""))
	assert.Equal(t,
		"93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae",
		Namehash("eth"))
	assert.Equal(t,
		"de9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f",
		Namehash("foo.eth"))
}

func TestCoinType(t *testing.T) {
	assert.Equal(t, "addr", CoinType(1))
	assert.Equal(t, "80002105", CoinType(8453))
}

func TestReverseNodeDeterministic(t *testing.T) {
	a := ReverseNode("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", 8453)
	b := ReverseNode("0xD8DA6BF26964AF9D7EED9E03E53415D37AA96045", 8453)
	assert.Len(t, a, 64)
	assert.Equal(t, a, b, "reverse node must be case-insensitive over the address")
	assert.NotEqual(t, a, ReverseNode("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", 1))
}

const resolvedAddr = "0x1111111111111111111111111111111111111111"

// resolverRPC answers every eth_call with the given packed result and counts
// how many calls it served.
func resolverRPC(t *testing.T, packed string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%q}`, packed)
	}))
}

func newTestResolver(url string) *Resolver {
	return New(chain.NewEVMClient(url), config.Base)
}

func TestResolve(t *testing.T) {
	packed, err := contract.Resolver.PackResult("addr", common.HexToAddress(resolvedAddr))
	require.NoError(t, err)

	var calls atomic.Int32
	srv := resolverRPC(t, packed, &calls)
	defer srv.Close()

	r := newTestResolver(srv.URL)
	addr, err := r.Resolve(context.Background(), "jesse")
	require.NoError(t, err)
	assert.Equal(t, resolvedAddr, addr)
}

func TestResolveCachesResults(t *testing.T) {
	packed, err := contract.Resolver.PackResult("addr", common.HexToAddress(resolvedAddr))
	require.NoError(t, err)

	var calls atomic.Int32
	srv := resolverRPC(t, packed, &calls)
	defer srv.Close()

	r := newTestResolver(srv.URL)
	for i := 0; i < 3; i++ {
		addr, err := r.Resolve(context.Background(), "jesse")
		require.NoError(t, err)
		assert.Equal(t, resolvedAddr, addr)
	}
	assert.Equal(t, int32(1), calls.Load(), "repeat lookups should hit the cache")
}

func TestResolveUnboundName(t *testing.T) {
	packed, err := contract.Resolver.PackResult("addr", common.Address{})
	require.NoError(t, err)

	var calls atomic.Int32
	srv := resolverRPC(t, packed, &calls)
	defer srv.Close()

	r := newTestResolver(srv.URL)
	_, err = r.Resolve(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrUnresolvedName)
}

func TestResolveRejectsInvalidName(t *testing.T) {
	r := newTestResolver("http://127.0.0.1:1")
	_, err := r.Resolve(context.Background(), "bad name")
	require.Error(t, err)
}

func TestReverseLookup(t *testing.T) {
	packed, err := contract.Resolver.PackResult("name", "jesse.base.eth")
	require.NoError(t, err)

	var calls atomic.Int32
	srv := resolverRPC(t, packed, &calls)
	defer srv.Close()

	r := newTestResolver(srv.URL)
	name, err := r.ReverseLookup(context.Background(), resolvedAddr)
	require.NoError(t, err)
	assert.Equal(t, "jesse.base.eth", name)

	// Second lookup serves from cache.
	_, err = r.ReverseLookup(context.Background(), resolvedAddr)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReverseLookupNoRecord(t *testing.T) {
	packed, err := contract.Resolver.PackResult("name", "")
	require.NoError(t, err)

	var calls atomic.Int32
	srv := resolverRPC(t, packed, &calls)
	defer srv.Close()

	r := newTestResolver(srv.URL)
	_, err = r.ReverseLookup(context.Background(), resolvedAddr)
	require.Error(t, err)
}

func TestCacheExpiry(t *testing.T) {
	c := newCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.put("k", "v")
	v, ok := c.get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(cacheTTL + time.Second)
	_, ok = c.get("k")
	assert.False(t, ok, "expired entries must not be served")
}

func TestResolveSendsJSONRPC(t *testing.T) {
	packed, err := contract.Resolver.PackResult("addr", common.HexToAddress(resolvedAddr))
	require.NoError(t, err)

	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotMethod = req.Method
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%q}`, packed)
	}))
	defer srv.Close()

	r := newTestResolver(srv.URL)
	_, err = r.Resolve(context.Background(), "jesse")
	require.NoError(t, err)
	assert.Equal(t, "eth_call", gotMethod)
}
