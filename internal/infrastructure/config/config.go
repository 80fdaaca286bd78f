// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml) or TOML file (config.toml)
//  2. Environment variables (fallback), including a local .env file
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	port := cfg.Server.Port
//	decimals := cfg.Settlement.Currency.Decimals
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
	"github.com/eshaffer321/settleup/internal/domain/report"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" toml:"server"`
	Settlement    SettlementConfig    `yaml:"settlement" toml:"settlement"`
	Report        ReportConfig        `yaml:"report" toml:"report"`
	Storage       StorageConfig       `yaml:"storage" toml:"storage"`
	Observability ObservabilityConfig `yaml:"observability" toml:"observability"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int           `yaml:"port" toml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins" toml:"allowed_origins"`
	SheetIdleTTL   time.Duration `yaml:"sheet_idle_ttl" toml:"sheet_idle_ttl"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" toml:"max_body_bytes"`
	MaxRows        int           `yaml:"max_rows" toml:"max_rows"`
	MaxSheets      int           `yaml:"max_sheets" toml:"max_sheets"`
}

// SettlementConfig holds engine settings
type SettlementConfig struct {
	Currency          money.Currency `yaml:"currency" toml:"currency"`
	PlaceholderPrefix string         `yaml:"placeholder_prefix" toml:"placeholder_prefix"`
}

// ReportConfig holds share-text settings
type ReportConfig struct {
	Style  string `yaml:"style" toml:"style"`
	Locale string `yaml:"locale" toml:"locale"`
	Symbol string `yaml:"symbol" toml:"symbol"`
	Footer string `yaml:"footer" toml:"footer"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" toml:"database_path"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			SheetIdleTTL:   24 * time.Hour,
			MaxBodyBytes:   1 << 20,
			MaxRows:        1000,
			MaxSheets:      10000,
		},
		Settlement: SettlementConfig{
			Currency:          money.DefaultCurrency,
			PlaceholderPrefix: "Person",
		},
		Report: ReportConfig{
			Style:  "plain",
			Locale: "en",
			Symbol: "$",
		},
		Storage: StorageConfig{
			DatabasePath: "settleup.db",
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// Load reads and parses the config file. The format is chosen by file
// extension (.toml, otherwise YAML). Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${SETTLEUP_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal([]byte(expanded), cfg)
	default:
		err = yaml.Unmarshal([]byte(expanded), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
// A .env file in the working directory is read first if present.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	cfg := Defaults()
	cfg.Server.Port = getEnvInt("SETTLEUP_PORT", cfg.Server.Port)
	if origins := os.Getenv("SETTLEUP_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}
	cfg.Server.SheetIdleTTL = getEnvDuration("SETTLEUP_SHEET_IDLE_TTL", cfg.Server.SheetIdleTTL)
	cfg.Server.MaxBodyBytes = int64(getEnvInt("SETTLEUP_MAX_BODY_BYTES", int(cfg.Server.MaxBodyBytes)))
	cfg.Server.MaxRows = getEnvInt("SETTLEUP_MAX_ROWS", cfg.Server.MaxRows)
	cfg.Server.MaxSheets = getEnvInt("SETTLEUP_MAX_SHEETS", cfg.Server.MaxSheets)

	cfg.Settlement.Currency.Code = getEnv("SETTLEUP_CURRENCY", cfg.Settlement.Currency.Code)
	cfg.Settlement.Currency.Decimals = int32(getEnvInt("SETTLEUP_CURRENCY_DECIMALS", int(cfg.Settlement.Currency.Decimals)))
	cfg.Settlement.PlaceholderPrefix = getEnv("SETTLEUP_PLACEHOLDER_PREFIX", cfg.Settlement.PlaceholderPrefix)

	cfg.Report.Style = getEnv("SETTLEUP_REPORT_STYLE", cfg.Report.Style)
	cfg.Report.Locale = getEnv("SETTLEUP_REPORT_LOCALE", cfg.Report.Locale)
	cfg.Report.Symbol = getEnv("SETTLEUP_REPORT_SYMBOL", cfg.Report.Symbol)
	cfg.Report.Footer = getEnv("SETTLEUP_REPORT_FOOTER", cfg.Report.Footer)

	cfg.Storage.DatabasePath = getEnv("SETTLEUP_DB_PATH", cfg.Storage.DatabasePath)

	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)

	return cfg
}

// LoadOrEnv tries config.yaml, then config.toml, and falls back to
// environment variables
func LoadOrEnv() *Config {
	for _, path := range []string{"config.yaml", "config.toml"} {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return LoadFromEnv()
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate checks values that would make the engine or server unusable.
func (c *Config) Validate() error {
	if err := c.Settlement.Currency.Validate(); err != nil {
		return fmt.Errorf("settlement: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes < 0 || c.Server.MaxRows < 0 || c.Server.MaxSheets < 0 {
		return fmt.Errorf("server: limits must not be negative")
	}
	if _, err := c.Report.FormatterOptions(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// BalanceOptions converts the section to engine options.
func (c SettlementConfig) BalanceOptions() balance.Options {
	opts := balance.DefaultOptions()
	opts.Currency = c.Currency
	if c.PlaceholderPrefix != "" {
		opts.PlaceholderPrefix = c.PlaceholderPrefix
	}
	return opts
}

// FormatterOptions converts the section to report options.
func (c ReportConfig) FormatterOptions() (report.Options, error) {
	opts := report.DefaultOptions()

	style, err := report.ParseStyle(c.Style)
	if err != nil {
		return opts, err
	}
	opts.Style = style

	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return opts, fmt.Errorf("invalid locale %q: %w", c.Locale, err)
		}
		opts.Locale = tag
	}
	if c.Symbol != "" {
		opts.Symbol = c.Symbol
	}
	opts.Footer = c.Footer
	return opts, nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
