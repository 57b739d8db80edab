package wallet

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/expendi/expendi-cli/internal/config"
)

// Wallet types.
const (
	TypeSigning   = "signing"
	TypeWatchOnly = "watch-only"
)

// Manager manages the wallets.json entries and their keychain keys.
type Manager struct {
	cfg *config.Config
	ks  *Keystore
}

// NewManager creates a Manager over the given config dir.
func NewManager(cfg *config.Config, ks *Keystore) *Manager {
	return &Manager{cfg: cfg, ks: ks}
}

// Add registers a wallet. A non-empty hexKey makes it a signing wallet and
// stores the key in the OS keychain.
func (m *Manager) Add(name, address, hexKey string) (*config.Wallet, error) {
	wf, err := m.cfg.LoadWallets()
	if err != nil {
		return nil, err
	}
	for _, w := range wf.Wallets {
		if w.Name == name {
			return nil, fmt.Errorf("wallet %q already exists", name)
		}
	}

	w := config.Wallet{
		Name:      name,
		Address:   strings.ToLower(address),
		Type:      TypeWatchOnly,
		IsDefault: len(wf.Wallets) == 0,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if hexKey != "" {
		priv, err := crypto.HexToECDSA(stripHexPrefix(hexKey))
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		derived := strings.ToLower(crypto.PubkeyToAddress(priv.PublicKey).Hex())
		if address != "" && !strings.EqualFold(address, derived) {
			return nil, fmt.Errorf("key does not match address %s", address)
		}
		w.Address = derived
		w.Type = TypeSigning
		ref, err := m.ks.Store(name, hexKey)
		if err != nil {
			return nil, err
		}
		w.KeyRef = ref
	}

	wf.Wallets = append(wf.Wallets, w)
	if err := m.cfg.SaveWallets(wf); err != nil {
		return nil, err
	}
	return &w, nil
}

// Get returns a wallet by name. An empty name returns the default wallet.
func (m *Manager) Get(name string) (*config.Wallet, error) {
	wf, err := m.cfg.LoadWallets()
	if err != nil {
		return nil, err
	}
	for i := range wf.Wallets {
		w := &wf.Wallets[i]
		if (name == "" && w.IsDefault) || w.Name == name {
			return w, nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("no default wallet configured — run: expendi wallet add")
	}
	return nil, fmt.Errorf("wallet %q not found", name)
}

// List returns all registered wallets.
func (m *Manager) List() ([]config.Wallet, error) {
	wf, err := m.cfg.LoadWallets()
	if err != nil {
		return nil, err
	}
	return wf.Wallets, nil
}

// Remove deletes a wallet entry and its keychain key.
func (m *Manager) Remove(name string) error {
	wf, err := m.cfg.LoadWallets()
	if err != nil {
		return err
	}
	for i, w := range wf.Wallets {
		if w.Name == name {
			if w.KeyRef != "" {
				_ = m.ks.Delete(w.KeyRef)
			}
			wf.Wallets = append(wf.Wallets[:i], wf.Wallets[i+1:]...)
			return m.cfg.SaveWallets(wf)
		}
	}
	return fmt.Errorf("wallet %q not found", name)
}

func stripHexPrefix(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
}
