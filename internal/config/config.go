package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
)

const (
	defaultCurrency = "KES"
	defaultNetwork  = "Safaricom"
	defaultPayType  = "MOBILE"
	defaultInterval = 10

	configFile  = "config.json"
	walletsFile = "wallets.json"
	payoutsFile = "payouts.db"
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.expendi.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".expendi")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.PayoutDBPath == "" {
		cfg.PayoutDBPath = filepath.Join(dir, payoutsFile)
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// AddRPC adds a custom RPC URL.
func (c *Config) AddRPC(url string) error {
	if slices.Contains(c.CustomRPCs, url) {
		return fmt.Errorf("RPC %s already configured", url)
	}
	c.CustomRPCs = append(c.CustomRPCs, url)
	return nil
}

// RemoveRPC removes a custom RPC URL.
func (c *Config) RemoveRPC(url string) error {
	idx := slices.Index(c.CustomRPCs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found", url)
	}
	c.CustomRPCs = slices.Delete(c.CustomRPCs, idx, idx+1)
	return nil
}

// RPCURL returns the first custom RPC if configured, else the public Base RPC.
func (c *Config) RPCURL() string {
	if len(c.CustomRPCs) > 0 {
		return c.CustomRPCs[0]
	}
	return Base.RPCURL
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// LoadWallets reads wallets.json.
func (c *Config) LoadWallets() (*WalletsFile, error) {
	return loadJSON[WalletsFile](filepath.Join(c.configDir, walletsFile))
}

// SaveWallets writes wallets.json.
func (c *Config) SaveWallets(wf *WalletsFile) error {
	return saveJSON(filepath.Join(c.configDir, walletsFile), wf)
}

// LoadSecrets reads environment-only values. A .env file in the working
// directory or the config dir is honored but not required.
func LoadSecrets(dir string) Secrets {
	_ = godotenv.Load()
	if dir != "" {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}
	s := Secrets{
		PaymentAPIBase: os.Getenv("PRETIUM_BASE_URI"),
		PaymentAPIKey:  os.Getenv("PRETIUM_API_KEY"),
		BundlerAPIKey:  os.Getenv("BUNDLER_API_KEY"),
		CallbackURL:    os.Getenv("PAYOUT_CALLBACK_URL"),
	}
	if s.PaymentAPIBase == "" {
		s.PaymentAPIBase = "https://api.xwift.africa"
	}
	return s
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		PayoutCurrency: defaultCurrency,
		MobileNetwork:  defaultNetwork,
		PaymentType:    defaultPayType,
		WatchInterval:  defaultInterval,
		PayoutDBPath:   filepath.Join(dir, payoutsFile),
		configDir:      dir,
	}
}

func loadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
