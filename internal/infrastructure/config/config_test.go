package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
reports:
  items_path: /data/items.csv
  orders_path: /data/orders.csv
  refunds_path: /data/refunds.csv

matching:
  days_before: 2
  days_after: 10
  merchant_filter: amzn
  retag_description: false
  inherit_refund_category: true

categories:
  table_path: /data/categories.yaml
  default_category: Shopping
  max_distance: 1

ledger:
  backend: http
  base_url: https://ledger.example.com
  api_key: secret
  retry_max: 5
  timeout: 10s
  concurrency: 8

storage:
  database_path: /tmp/test.db

observability:
  logging:
    level: debug
    format: json

api:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/items.csv", cfg.Reports.ItemsPath)
	assert.Equal(t, "/data/orders.csv", cfg.Reports.OrdersPath)
	assert.Equal(t, "/data/refunds.csv", cfg.Reports.RefundsPath)

	assert.Equal(t, 2, cfg.Matching.DaysBefore)
	assert.Equal(t, 10, cfg.Matching.DaysAfter)
	assert.Equal(t, "amzn", cfg.Matching.MerchantFilter)
	assert.False(t, cfg.Matching.RetagDescription)
	assert.True(t, cfg.Matching.InheritRefundCategory)
	// Not in the file, default kept
	assert.Equal(t, "Amazon.com: ", cfg.Matching.DescriptionPrefix)

	assert.Equal(t, "/data/categories.yaml", cfg.Categories.TablePath)
	assert.Equal(t, "Shopping", cfg.Categories.DefaultCategory)
	assert.True(t, cfg.Categories.Fuzzy)
	assert.Equal(t, 1, cfg.Categories.MaxDistance)

	assert.Equal(t, LedgerBackendHTTP, cfg.Ledger.Backend)
	assert.Equal(t, "https://ledger.example.com", cfg.Ledger.BaseURL)
	assert.Equal(t, "secret", cfg.Ledger.APIKey)
	assert.Equal(t, 5, cfg.Ledger.RetryMax)
	assert.Equal(t, 8, cfg.Ledger.Concurrency)
	timeout, err := cfg.Ledger.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)

	assert.Equal(t, "/tmp/test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
	assert.Equal(t, 9000, cfg.API.Port)
}

func TestLoad_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "negative window", content: "matching:\n  days_before: -1\n"},
		{name: "http without url", content: "ledger:\n  backend: http\n"},
		{name: "unknown backend", content: "ledger:\n  backend: carrier-pigeon\n"},
		{name: "bad timeout", content: "ledger:\n  timeout: soon\n"},
		{name: "not yaml", content: "reports: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AMAZON_ITEMS_CSV", "/env/items.csv")
	t.Setenv("AMAZON_ORDERS_CSV", "/env/orders.csv")
	t.Setenv("MATCH_DAYS_AFTER", "14")
	t.Setenv("LEDGER_BACKEND", "http")
	t.Setenv("LEDGER_URL", "https://ledger.local")
	t.Setenv("LEDGER_TOKEN", "env-token")
	t.Setenv("AMAZON_TAGGER_DB_PATH", "/env/test.db")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("API_PORT", "9100")

	cfg := LoadFromEnv()

	assert.Equal(t, "/env/items.csv", cfg.Reports.ItemsPath)
	assert.Equal(t, "/env/orders.csv", cfg.Reports.OrdersPath)
	assert.Equal(t, "", cfg.Reports.RefundsPath)
	assert.Equal(t, 3, cfg.Matching.DaysBefore)
	assert.Equal(t, 14, cfg.Matching.DaysAfter)
	assert.Equal(t, LedgerBackendHTTP, cfg.Ledger.Backend)
	assert.Equal(t, "https://ledger.local", cfg.Ledger.BaseURL)
	assert.Equal(t, "env-token", cfg.Ledger.APIKey)
	assert.Equal(t, "/env/test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
	assert.Equal(t, 9100, cfg.API.Port)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("AMAZON_TAGGER_DB_PATH", "")
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("MATCH_DAYS_BEFORE", "not-a-number")

	cfg := LoadFromEnv()

	assert.Equal(t, "amazon_tagger.db", cfg.Storage.DatabasePath)
	assert.Equal(t, LedgerBackendLocal, cfg.Ledger.Backend)
	assert.Equal(t, 3, cfg.Matching.DaysBefore)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, "text", cfg.Observability.Logging.Format)
	assert.Equal(t, 8085, cfg.API.Port)
}

func TestLoadOrEnv_WithPath(t *testing.T) {
	path := writeConfig(t, "storage:\n  database_path: /from/file.db\n")

	cfg := LoadOrEnv_WithPath(path)

	assert.Equal(t, "/from/file.db", cfg.Storage.DatabasePath)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	t.Setenv("AMAZON_TAGGER_DB_PATH", "/from/env.db")

	cfg := LoadOrEnv_WithPath(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, "/from/env.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_LEDGER_TOKEN", "expanded-token")
	path := writeConfig(t, `
ledger:
  backend: http
  base_url: https://ledger.example.com
  api_key: ${TEST_LEDGER_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "expanded-token", cfg.Ledger.APIKey)
}

func TestGetAPIKey(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "from-config", cfg.GetAPIKey("from-config", "TEST_KEY_A"))

	t.Setenv("TEST_KEY_B", "from-env")
	assert.Equal(t, "from-env", cfg.GetAPIKey("", "TEST_KEY_A", "TEST_KEY_B"))
	assert.Equal(t, "", cfg.GetAPIKey("", "TEST_KEY_UNSET"))
}

func TestMatcherConfig(t *testing.T) {
	cfg := Default()
	cfg.Matching.DaysBefore = 1
	cfg.Matching.DaysAfter = 5
	cfg.Matching.IncludePending = true
	cfg.Matching.RefundCategory = "Refunds"
	cfg.Matching.InheritRefundCategory = true

	mc := cfg.MatcherConfig()

	assert.Equal(t, 1, mc.DaysBefore)
	assert.Equal(t, 5, mc.DaysAfter)
	assert.False(t, mc.SkipPending)
	assert.Equal(t, "amazon", mc.MerchantFilter)
	assert.Equal(t, "Refunds", mc.Splitter.RefundCategory)
	assert.True(t, mc.Splitter.InheritRefundCategory)
	assert.Equal(t, "Amazon.com: ", mc.Splitter.DescriptionPrefix)
}

func TestDefault_MatchesMatcherDefaults(t *testing.T) {
	mc := Default().MatcherConfig()

	assert.Equal(t, 3, mc.DaysBefore)
	assert.Equal(t, 7, mc.DaysAfter)
	assert.True(t, mc.SkipPending)
	assert.Equal(t, "Returned Purchase", mc.Splitter.RefundCategory)
}
