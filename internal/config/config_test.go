package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "crosschain-arb", cfg.App.Name)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, []string{"ethereum", "polygon", "arbitrum", "optimism", "base", "bsc"}, cfg.Scanner.Chains)
	assert.Equal(t, "50", cfg.Scanner.MinProfitUSDDecimal().String())
	assert.Equal(t, "10000", cfg.Scanner.NotionalAmountDecimal().String())
	assert.Equal(t, 10, cfg.Scanner.MaxResults)
	assert.Equal(t, 10*time.Second, cfg.Scanner.ChainTimeout)
	assert.Equal(t, "x-cg-demo-api-key", cfg.CoinGecko.APIKeyHeader)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ARB_CHAINS", "ethereum, solana")
	t.Setenv("ARB_MIN_PROFIT_USD", "125.5")
	t.Setenv("ARB_REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"ethereum", "solana"}, cfg.Scanner.Chains)
	assert.Equal(t, "125.5", cfg.Scanner.MinProfitUSDDecimal().String())
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
scanner:
  chains: [arbitrum, base]
  max_results: 3
server:
  port: 9000
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"arbitrum", "base"}, cfg.Scanner.Chains)
	assert.Equal(t, 3, cfg.Scanner.MaxResults)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: 3001},
			CoinGecko: CoinGeckoConfig{BaseURL: "http://x", RequestsPerMinute: 30},
			Scanner: ScannerConfig{
				Chains:         []string{"ethereum"},
				NotionalAmount: 10000,
				MaxResults:     10,
				ChainTimeout:   time.Second,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no chains", func(c *Config) { c.Scanner.Chains = nil }, true},
		{"negative min profit", func(c *Config) { c.Scanner.MinProfitUSD = -1 }, true},
		{"zero notional", func(c *Config) { c.Scanner.NotionalAmount = 0 }, true},
		{"zero timeout", func(c *Config) { c.Scanner.ChainTimeout = 0 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"no base url", func(c *Config) { c.CoinGecko.BaseURL = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
