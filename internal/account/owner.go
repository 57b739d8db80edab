package account

import "strings"

// OwnerKind says which identity a call operates as. The product allows either
// the raw signer or its smart account to be the effective on-chain actor, and
// existence checks must state which one they mean.
type OwnerKind int

const (
	// OwnerSigner is the raw EOA that holds the key.
	OwnerSigner OwnerKind = iota
	// OwnerSmartAccount is the counterfactual 4337 account derived from it.
	OwnerSmartAccount
)

// Owner is a tagged (kind, address) pair.
type Owner struct {
	Kind    OwnerKind
	Address string
}

// SignerOwner tags an EOA address.
func SignerOwner(address string) Owner {
	return Owner{Kind: OwnerSigner, Address: strings.ToLower(address)}
}

// SmartAccountOwner tags a smart account address.
func SmartAccountOwner(address string) Owner {
	return Owner{Kind: OwnerSmartAccount, Address: strings.ToLower(address)}
}

func (o Owner) String() string {
	if o.Kind == OwnerSmartAccount {
		return "smart-account:" + o.Address
	}
	return "signer:" + o.Address
}
