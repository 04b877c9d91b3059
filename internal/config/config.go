// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Health    HealthConfig    `mapstructure:"health"`
	CoinGecko CoinGeckoConfig `mapstructure:"coingecko"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HealthConfig holds the health probe server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// CoinGeckoConfig holds the price source settings.
type CoinGeckoConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	APIKeyHeader      string        `mapstructure:"api_key_header"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MaxRetries        int           `mapstructure:"max_retries"`
	PlatformCacheTTL  time.Duration `mapstructure:"platform_cache_ttl"`
}

// RedisConfig enables the shared rate limiter when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// ScannerConfig holds opportunity scan settings.
type ScannerConfig struct {
	Chains         []string      `mapstructure:"chains"`
	MinProfitUSD   float64       `mapstructure:"min_profit_usd"`
	NotionalAmount float64       `mapstructure:"notional_amount"`
	MaxResults     int           `mapstructure:"max_results"`
	ChainTimeout   time.Duration `mapstructure:"chain_timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	CostTablePath  string        `mapstructure:"cost_table_path"`
	WatchInterval  time.Duration `mapstructure:"watch_interval"`
}

// MinProfitUSDDecimal returns min profit USD as decimal.Decimal.
func (c *ScannerConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitUSD)
}

// NotionalAmountDecimal returns the notional amount as decimal.Decimal.
func (c *ScannerConfig) NotionalAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.NotionalAmount)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	OTLPProtocol   string `mapstructure:"otlp_protocol"`
	Metrics        bool   `mapstructure:"metrics"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma separated env values arrive as a single element.
	cfg.Scanner.Chains = splitList(cfg.Scanner.Chains)
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Server
	v.BindEnv("server.port", "ARB_SERVER_PORT", "PORT")
	v.BindEnv("server.cors_origins", "ARB_CORS_ORIGINS")
	v.BindEnv("health.port", "ARB_HEALTH_PORT")

	// CoinGecko
	v.BindEnv("coingecko.base_url", "ARB_COINGECKO_URL", "COINGECKO_BASE_URL")
	v.BindEnv("coingecko.api_key", "ARB_COINGECKO_API_KEY", "COINGECKO_API_KEY")
	v.BindEnv("coingecko.requests_per_minute", "ARB_COINGECKO_RPM")

	// Redis
	v.BindEnv("redis.addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "ARB_REDIS_PASSWORD", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "ARB_REDIS_DB")

	// Scanner
	v.BindEnv("scanner.chains", "ARB_CHAINS")
	v.BindEnv("scanner.min_profit_usd", "ARB_MIN_PROFIT_USD")
	v.BindEnv("scanner.notional_amount", "ARB_NOTIONAL_AMOUNT")
	v.BindEnv("scanner.chain_timeout", "ARB_CHAIN_TIMEOUT")
	v.BindEnv("scanner.cost_table_path", "ARB_COST_TABLE")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_provider", "ARB_OTEL_TRACE_PROVIDER")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "ARB_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.otlp_protocol", "ARB_OTEL_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL")
	v.BindEnv("telemetry.metrics", "ARB_METRICS_ENABLED")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "crosschain-arb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Server defaults
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("health.port", 8081)

	// CoinGecko demo tier defaults
	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.api_key_header", "x-cg-demo-api-key")
	v.SetDefault("coingecko.request_timeout", "10s")
	v.SetDefault("coingecko.requests_per_minute", 30)
	v.SetDefault("coingecko.max_retries", 1)
	v.SetDefault("coingecko.platform_cache_ttl", "1h")

	// Redis defaults (disabled unless addr is set)
	v.SetDefault("redis.db", 0)

	// Scanner defaults
	v.SetDefault("scanner.chains", []string{"ethereum", "polygon", "arbitrum", "optimism", "base", "bsc"})
	v.SetDefault("scanner.min_profit_usd", 50)
	v.SetDefault("scanner.notional_amount", 10000)
	v.SetDefault("scanner.max_results", 10)
	v.SetDefault("scanner.chain_timeout", "10s")
	v.SetDefault("scanner.max_concurrency", 8)
	v.SetDefault("scanner.watch_interval", "30s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "crosschain-arb")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.metrics", true)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko.base_url is required")
	}
	if c.CoinGecko.RequestsPerMinute <= 0 {
		return fmt.Errorf("coingecko.requests_per_minute must be positive")
	}
	if len(c.Scanner.Chains) == 0 {
		return fmt.Errorf("scanner.chains cannot be empty")
	}
	if c.Scanner.MinProfitUSD < 0 {
		return fmt.Errorf("scanner.min_profit_usd must not be negative")
	}
	if c.Scanner.NotionalAmount <= 0 {
		return fmt.Errorf("scanner.notional_amount must be positive")
	}
	if c.Scanner.MaxResults <= 0 {
		return fmt.Errorf("scanner.max_results must be positive")
	}
	if c.Scanner.ChainTimeout <= 0 {
		return fmt.Errorf("scanner.chain_timeout must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
