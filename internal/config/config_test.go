package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "KES", cfg.PayoutCurrency)
	assert.Equal(t, "Safaricom", cfg.MobileNetwork)
	assert.Equal(t, "MOBILE", cfg.PaymentType)
	assert.Equal(t, 10, cfg.WatchInterval)
	assert.Equal(t, filepath.Join(dir, "payouts.db"), cfg.PayoutDBPath)
	assert.Equal(t, dir, cfg.Dir())
	assert.False(t, cfg.OnboardingDone)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	cfg.DefaultWallet = "main"
	cfg.PayoutCurrency = "UGX"
	cfg.WatchInterval = 30
	cfg.OnboardingDone = true
	require.NoError(t, cfg.Save())

	reloaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "main", reloaded.DefaultWallet)
	assert.Equal(t, "UGX", reloaded.PayoutCurrency)
	assert.Equal(t, 30, reloaded.WatchInterval)
	assert.True(t, reloaded.OnboardingDone)
}

func TestRPCURLFallback(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, Base.RPCURL, cfg.RPCURL())

	require.NoError(t, cfg.AddRPC("https://base.example.com"))
	assert.Equal(t, "https://base.example.com", cfg.RPCURL())
}

func TestAddRPCRejectsDuplicates(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.AddRPC("https://base.example.com"))
	require.Error(t, cfg.AddRPC("https://base.example.com"))
}

func TestRemoveRPC(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.AddRPC("https://base.example.com"))
	require.NoError(t, cfg.RemoveRPC("https://base.example.com"))
	assert.Empty(t, cfg.CustomRPCs)
	require.Error(t, cfg.RemoveRPC("https://base.example.com"))
}

func TestWalletsRoundTrip(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	wf, err := cfg.LoadWallets()
	require.NoError(t, err)
	assert.Empty(t, wf.Wallets)

	wf.Wallets = append(wf.Wallets, Wallet{Name: "main", Address: "0xabc", Type: "signing", IsDefault: true})
	require.NoError(t, cfg.SaveWallets(wf))

	reloaded, err := cfg.LoadWallets()
	require.NoError(t, err)
	require.Len(t, reloaded.Wallets, 1)
	assert.Equal(t, "main", reloaded.Wallets[0].Name)
	assert.True(t, reloaded.Wallets[0].IsDefault)
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("PRETIUM_BASE_URI", "")
	t.Setenv("PRETIUM_API_KEY", "secret-key")
	t.Setenv("BUNDLER_API_KEY", "bundler-key")
	t.Setenv("PAYOUT_CALLBACK_URL", "https://cb.example.com/webhook")

	s := LoadSecrets("")
	assert.Equal(t, "https://api.xwift.africa", s.PaymentAPIBase, "base URI defaults when unset")
	assert.Equal(t, "secret-key", s.PaymentAPIKey)
	assert.Equal(t, "bundler-key", s.BundlerAPIKey)
	assert.Equal(t, "https://cb.example.com/webhook", s.CallbackURL)
}
