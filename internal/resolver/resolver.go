// Package resolver classifies free-form recipient input and resolves
// human-readable names against the on-chain L2 name resolver.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/expendi/expendi-cli/internal/chain"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/contract"
)

// NameSuffix is the fixed name-service domain for resolvable names.
const NameSuffix = ".base.eth"

// Kind classifies a recipient string.
type Kind int

const (
	KindInvalid Kind = iota
	KindAddress
	KindName
	KindPhone
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindName:
		return "name"
	case KindPhone:
		return "phone"
	default:
		return "invalid"
	}
}

// ErrUnresolvedName marks a syntactically valid name with no address record.
// Distinct from a malformed recipient so the caller can word the failure.
var ErrUnresolvedName = errors.New("name has no address record")

var (
	addressRe = regexp.MustCompile(`^0[xX][0-9a-fA-F]{40}$`)
	nameRe    = regexp.MustCompile(`^[a-zA-Z0-9-]{1,63}$`)
	phoneRe   = regexp.MustCompile(`^\+?[0-9]{6,15}$`)
)

// Classify is a pure function mapping recipient input to its kind.
// Order matters: an all-digit shortcode would also match the name grammar,
// and the mobile flow owns those.
func Classify(input string) Kind {
	s := strings.TrimSpace(input)
	switch {
	case s == "":
		return KindInvalid
	case addressRe.MatchString(s):
		return KindAddress
	case phoneRe.MatchString(s):
		return KindPhone
	case nameRe.MatchString(strings.TrimSuffix(s, NameSuffix)):
		return KindName
	default:
		return KindInvalid
	}
}

// Resolver resolves names through the fixed L2 resolver contract.
type Resolver struct {
	caller       *contract.Caller
	resolverAddr string
	chainID      int64
	cache        *cache
}

// New creates a Resolver over the given chain client.
func New(client *chain.EVMClient, network config.Network) *Resolver {
	return &Resolver{
		caller:       contract.NewCaller(client, contract.Resolver),
		resolverAddr: network.ResolverAddress,
		chainID:      network.ChainID,
		cache:        newCache(),
	}
}

// Resolve maps a resolvable name to its bound address.
// Repeated lookups within the cache window perform no contract read.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	full := FullName(name)
	if Classify(full) != KindName {
		return "", fmt.Errorf("invalid name %q", name)
	}

	if addr, ok := r.cache.get("addr:" + full); ok {
		return addr, nil
	}

	node := Namehash(strings.ToLower(full))
	out, err := r.caller.Call(ctx, r.resolverAddr, "addr", toBytes32(node))
	if err != nil {
		return "", fmt.Errorf("querying resolver: %w", err)
	}

	addr := addressOut(out)
	if addr == "" || addr == config.ZeroAddress {
		return "", fmt.Errorf("%q: %w", full, ErrUnresolvedName)
	}

	r.cache.put("addr:"+full, addr)
	return addr, nil
}

// ReverseLookup maps an address back to its primary name, if one is set.
func (r *Resolver) ReverseLookup(ctx context.Context, address string) (string, error) {
	if Classify(address) != KindAddress {
		return "", fmt.Errorf("invalid address %q", address)
	}

	if name, ok := r.cache.get("name:" + strings.ToLower(address)); ok {
		return name, nil
	}

	node := ReverseNode(address, r.chainID)
	out, err := r.caller.Call(ctx, r.resolverAddr, "name", toBytes32(node))
	if err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}

	name, _ := out[0].(string)
	if name == "" {
		return "", fmt.Errorf("no reverse record for %s", address)
	}

	r.cache.put("name:"+strings.ToLower(address), name)
	return name, nil
}

// Text reads a metadata text record (e.g. "avatar", "com.twitter") for a name.
func (r *Resolver) Text(ctx context.Context, name, key string) (string, error) {
	full := FullName(name)
	node := Namehash(strings.ToLower(full))
	out, err := r.caller.Call(ctx, r.resolverAddr, "text", toBytes32(node), key)
	if err != nil {
		return "", fmt.Errorf("querying text record: %w", err)
	}
	v, _ := out[0].(string)
	return v, nil
}

// FullName appends the fixed name-service suffix when absent.
func FullName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), NameSuffix) {
		return name
	}
	return name + NameSuffix
}

// Namehash implements the EIP-137 namehash algorithm.
func Namehash(name string) string {
	node := make([]byte, 32)

	if name == "" {
		return fmt.Sprintf("%064x", node)
	}

	labels := strings.Split(name, ".")
	// Process labels right-to-left.
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := keccak256([]byte(labels[i]))
		node = keccak256(append(node, labelHash...))
	}

	return fmt.Sprintf("%064x", node)
}

// ReverseNode derives the chain-scoped reverse node for an address.
// L2 reverse records live under "<coinType-hex>.reverse", with the address
// label hashed as its lowercase hex string.
func ReverseNode(address string, chainID int64) string {
	clean := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X"))
	addressNode := keccak256([]byte(clean))
	baseNode, _ := hexToBytes(Namehash(CoinType(chainID) + ".reverse"))
	return fmt.Sprintf("%064x", keccak256(append(baseNode, addressNode...)))
}

// CoinType converts a chain id to the ENSIP-11 coinType label.
func CoinType(chainID int64) string {
	if chainID == 1 {
		return "addr"
	}
	return strings.ToUpper(fmt.Sprintf("%x", uint32(0x80000000)|uint32(chainID)))
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func toBytes32(hexStr string) [32]byte {
	var out [32]byte
	b, _ := hexToBytes(hexStr)
	copy(out[:], b)
	return out
}

func hexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	b := make([]byte, len(s)/2)
	for i := 0; i < len(b); i++ {
		var v byte
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &v); err != nil {
			return nil, err
		}
		b[i] = v
	}
	return b, nil
}

func addressOut(out []interface{}) string {
	if len(out) == 0 {
		return ""
	}
	type hexer interface{ Hex() string }
	if h, ok := out[0].(hexer); ok {
		return strings.ToLower(h.Hex())
	}
	return ""
}
