package config

// Config holds all expendi configuration.
type Config struct {
	DefaultWallet   string   `json:"default_wallet"`
	PayoutCurrency  string   `json:"payout_currency"`  // ISO code for mobile payouts, e.g. "KES"
	MobileNetwork   string   `json:"mobile_network"`   // "Safaricom" | "Airtel"
	PaymentType     string   `json:"payment_type"`     // "MOBILE" | "PAYBILL" | "BUY_GOODS"
	CustomRPCs      []string `json:"custom_rpcs"`
	PayoutDBPath    string   `json:"payout_db_path"`
	WatchInterval   int      `json:"watch_interval"` // seconds
	OnboardingDone  bool     `json:"onboarding_done"`

	// internal: config dir path used for Save()
	configDir string
}

// Wallet represents a stored signing wallet entry.
type Wallet struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`              // "watch-only" | "signing"
	KeyRef    string `json:"key_ref,omitempty"` // keychain reference for signing wallets
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

// WalletsFile is the structure of wallets.json.
type WalletsFile struct {
	Wallets []Wallet `json:"wallets"`
}

// Secrets are environment-only values, never written to the config dir.
type Secrets struct {
	PaymentAPIBase string
	PaymentAPIKey  string
	BundlerAPIKey  string
	CallbackURL    string
}
