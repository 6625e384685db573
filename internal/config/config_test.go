package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cache.BalanceTTL != 2*time.Minute || cfg.Cache.HistoryTTL != 5*time.Minute {
		t.Errorf("Unexpected cache TTLs %v/%v", cfg.Cache.BalanceTTL, cfg.Cache.HistoryTTL)
	}
	if !cfg.Wallet.MaxBalance.Equal(decimal.NewFromInt(1_000_000_000)) {
		t.Errorf("Unexpected max balance %s", cfg.Wallet.MaxBalance)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("Unexpected driver %s", cfg.Database.Driver)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CACHE_BALANCE_TTL", "90s")
	t.Setenv("WALLET_MAINTENANCE_MODE", "true")
	t.Setenv("WALLET_DGT_EXCHANGE_RATE", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.BalanceTTL != 90*time.Second {
		t.Errorf("Expected 90s, got %v", cfg.Cache.BalanceTTL)
	}
	if !cfg.Wallet.MaintenanceMode {
		t.Error("Expected maintenance mode")
	}
	if !cfg.Wallet.DgtExchangeRate.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Unexpected exchange rate %s", cfg.Wallet.DgtExchangeRate)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LISTENER_POLLING_INTERVAL", "soon"},
		{"WALLET_MAX_BALANCE", "lots"},
		{"CCPAYMENT_RATE_LIMIT", "fast"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "currencies.yaml")
	content := `currencies:
  - symbol: usdt
    chains: [TRX, ETH]
    min_withdraw: "10"
    max_withdraw: "5000"
    withdraw_fee: "1"
  - symbol: BTC
    chains: [BTC]
    default_chain: BTC
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	if got := catalog.Symbols(); len(got) != 2 || got[0] != "BTC" || got[1] != "USDT" {
		t.Errorf("Unexpected symbols %v", got)
	}

	chain, ok := catalog.ResolveChain("USDT", "")
	if !ok || chain != "TRX" {
		t.Errorf("Expected default chain TRX, got %q", chain)
	}
	if _, ok := catalog.ResolveChain("USDT", "SOL"); ok {
		t.Error("SOL is not a USDT chain in this catalog")
	}
	cur, _ := catalog.Lookup("usdt")
	if !cur.MaxWithdraw.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Unexpected max withdraw %s", cur.MaxWithdraw)
	}
}

func TestLoadCatalog_MissingFileFallsBack(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if _, ok := catalog.Lookup("BTC"); !ok {
		t.Error("Expected built-in catalog")
	}
}

func TestLoadCatalog_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "currencies.yaml")
	if err := os.WriteFile(path, []byte("currencies:\n  - chains: [BTC]\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Error("Expected missing symbol error")
	}
}
