package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/eshaffer321/settleup/internal/domain/money"
	"github.com/eshaffer321/settleup/internal/domain/report"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  sheet_idle_ttl: 2h
settlement:
  currency:
    code: ARS
    decimals: 0
  placeholder_prefix: Persona
report:
  style: whatsapp
  locale: es-AR
storage:
  database_path: test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Server.SheetIdleTTL)
	assert.Equal(t, "ARS", cfg.Settlement.Currency.Code)
	assert.Equal(t, int32(0), cfg.Settlement.Currency.Decimals)
	assert.Equal(t, "Persona", cfg.Settlement.PlaceholderPrefix)
	assert.Equal(t, "whatsapp", cfg.Report.Style)
	assert.Equal(t, "es-AR", cfg.Report.Locale)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)

	// Untouched sections keep defaults
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, "$", cfg.Report.Symbol)
}

func TestLoad_Limits(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  max_body_bytes: 4096
  max_rows: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 50, cfg.Server.MaxRows)
	assert.Equal(t, 10000, cfg.Server.MaxSheets)

	path = writeFile(t, "config.yaml", `
server:
  max_rows: -1
`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadFromTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[server]
port = 7070

[settlement.currency]
code = "KWD"
decimals = 3

[observability.logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "KWD", cfg.Settlement.Currency.Code)
	assert.Equal(t, int32(3), cfg.Settlement.Currency.Decimals)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
	assert.Equal(t, "Person", cfg.Settlement.PlaceholderPrefix)
}

func TestLoad_InvalidCurrency(t *testing.T) {
	path := writeFile(t, "config.yaml", `
settlement:
  currency:
    decimals: 9
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "server: [unterminated")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SETTLEUP_PORT", "9191")
	t.Setenv("SETTLEUP_DB_PATH", "env.db")
	t.Setenv("SETTLEUP_CURRENCY_DECIMALS", "0")
	t.Setenv("SETTLEUP_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SETTLEUP_SHEET_IDLE_TTL", "30m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadFromEnv()
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, int32(0), cfg.Settlement.Currency.Decimals)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Server.SheetIdleTTL)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("SETTLEUP_DB_PATH", "")
	t.Setenv("SETTLEUP_PORT", "not-a-number")

	cfg := LoadFromEnv()
	assert.Equal(t, "settleup.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int32(2), cfg.Settlement.Currency.Decimals)
}

func TestLoadOrEnvWithPath_FallbackToEnv(t *testing.T) {
	t.Setenv("SETTLEUP_DB_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "expanded.db")
	path := writeFile(t, "config.yaml", `
storage:
  database_path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}

func TestLoad_InvalidReportStyle(t *testing.T) {
	path := writeFile(t, "config.yaml", `
report:
  style: telegram
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report")
}

func TestSettlementConfig_BalanceOptions(t *testing.T) {
	opts := SettlementConfig{Currency: money.Currency{Code: "JPY", Decimals: 0}}.BalanceOptions()
	assert.Equal(t, "JPY", opts.Currency.Code)
	assert.Equal(t, "Person", opts.PlaceholderPrefix, "empty prefix keeps the default")
}

func TestReportConfig_FormatterOptions(t *testing.T) {
	opts, err := ReportConfig{Style: "whatsapp", Locale: "es-AR", Symbol: "ARS "}.FormatterOptions()
	require.NoError(t, err)
	assert.Equal(t, report.StyleWhatsApp, opts.Style)
	assert.Equal(t, language.MustParse("es-AR"), opts.Locale)
	assert.Equal(t, "ARS ", opts.Symbol)

	_, err = ReportConfig{Locale: "not a locale!"}.FormatterOptions()
	assert.Error(t, err)
}
