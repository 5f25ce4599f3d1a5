// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	ledgerToken := cfg.GetAPIKey(cfg.Ledger.APIKey, "LEDGER_TOKEN")
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/amazon-tagger/internal/domain/matcher"
)

// Ledger backends
const (
	LedgerBackendLocal = "local"
	LedgerBackendHTTP  = "http"
)

// Config represents the entire application configuration
type Config struct {
	Reports       ReportsConfig       `yaml:"reports"`
	Matching      MatchingConfig      `yaml:"matching"`
	Categories    CategoriesConfig    `yaml:"categories"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	API           APIConfig           `yaml:"api"`
}

// ReportsConfig holds the Amazon order history report locations
type ReportsConfig struct {
	ItemsPath   string `yaml:"items_path"`
	OrdersPath  string `yaml:"orders_path"`
	RefundsPath string `yaml:"refunds_path"` // optional
}

// MatchingConfig holds matcher settings
type MatchingConfig struct {
	DaysBefore            int    `yaml:"days_before"`
	DaysAfter             int    `yaml:"days_after"`
	MerchantFilter        string `yaml:"merchant_filter"`
	IncludePending        bool   `yaml:"include_pending"`
	DescriptionPrefix     string `yaml:"description_prefix"`
	RefundPrefix          string `yaml:"refund_prefix"`
	RefundCategory        string `yaml:"refund_category"`
	RetagDescription      bool   `yaml:"retag_description"`
	InheritRefundCategory bool   `yaml:"inherit_refund_category"`
	TitleLength           int    `yaml:"title_length"`
}

// CategoriesConfig holds category resolution settings
type CategoriesConfig struct {
	TablePath       string `yaml:"table_path"` // empty = built-in table
	DefaultCategory string `yaml:"default_category"`
	Fuzzy           bool   `yaml:"fuzzy"`
	MaxDistance     int    `yaml:"max_distance"`
}

// LedgerConfig holds ledger service settings
type LedgerConfig struct {
	Backend     string `yaml:"backend"` // "local" or "http"
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	RetryMax    int    `yaml:"retry_max"`
	Timeout     string `yaml:"timeout"`
	Concurrency int    `yaml:"concurrency"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// APIConfig holds the read API settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	mc := matcher.DefaultConfig()
	return &Config{
		Matching: MatchingConfig{
			DaysBefore:        mc.DaysBefore,
			DaysAfter:         mc.DaysAfter,
			MerchantFilter:    mc.MerchantFilter,
			IncludePending:    !mc.SkipPending,
			DescriptionPrefix: mc.Splitter.DescriptionPrefix,
			RefundPrefix:      mc.Splitter.RefundPrefix,
			RefundCategory:    mc.Splitter.RefundCategory,
			RetagDescription:  mc.Splitter.RetagDescription,
			TitleLength:       mc.Splitter.TitleLength,
		},
		Categories: CategoriesConfig{
			Fuzzy:       true,
			MaxDistance: 2,
		},
		Ledger: LedgerConfig{
			Backend:     LedgerBackendLocal,
			RetryMax:    3,
			Timeout:     "30s",
			Concurrency: 4,
		},
		Storage: StorageConfig{
			DatabasePath: "amazon_tagger.db",
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
		API: APIConfig{
			Port: 8085,
		},
	}
}

// Load reads and parses the config file. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${LEDGER_TOKEN})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := Default()

	cfg.Reports = ReportsConfig{
		ItemsPath:   os.Getenv("AMAZON_ITEMS_CSV"),
		OrdersPath:  os.Getenv("AMAZON_ORDERS_CSV"),
		RefundsPath: os.Getenv("AMAZON_REFUNDS_CSV"),
	}
	cfg.Matching.DaysBefore = getEnvInt("MATCH_DAYS_BEFORE", cfg.Matching.DaysBefore)
	cfg.Matching.DaysAfter = getEnvInt("MATCH_DAYS_AFTER", cfg.Matching.DaysAfter)
	cfg.Matching.MerchantFilter = getEnv("MATCH_MERCHANT_FILTER", cfg.Matching.MerchantFilter)
	cfg.Categories.TablePath = os.Getenv("CATEGORY_TABLE_PATH")
	cfg.Categories.DefaultCategory = os.Getenv("DEFAULT_CATEGORY")
	cfg.Ledger.Backend = getEnv("LEDGER_BACKEND", cfg.Ledger.Backend)
	cfg.Ledger.BaseURL = os.Getenv("LEDGER_URL")
	cfg.Ledger.APIKey = os.Getenv("LEDGER_TOKEN")
	cfg.Ledger.Concurrency = getEnvInt("LEDGER_CONCURRENCY", cfg.Ledger.Concurrency)
	cfg.Storage.DatabasePath = getEnv("AMAZON_TAGGER_DB_PATH", cfg.Storage.DatabasePath)
	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)
	cfg.API.Port = getEnvInt("API_PORT", cfg.API.Port)

	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate checks values that would make a run meaningless
func (c *Config) Validate() error {
	if c.Matching.DaysBefore < 0 || c.Matching.DaysAfter < 0 {
		return fmt.Errorf("matching window must not be negative")
	}
	switch c.Ledger.Backend {
	case LedgerBackendLocal:
	case LedgerBackendHTTP:
		if c.Ledger.BaseURL == "" {
			return fmt.Errorf("ledger.base_url is required for the http backend")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	if _, err := c.Ledger.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration parses the ledger request timeout. Empty means no timeout.
func (l LedgerConfig) TimeoutDuration() (time.Duration, error) {
	if l.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(l.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid ledger.timeout %q: %w", l.Timeout, err)
	}
	return d, nil
}

// MatcherConfig converts the matching section into a matcher configuration
func (c *Config) MatcherConfig() matcher.Config {
	mc := matcher.DefaultConfig()
	mc.DaysBefore = c.Matching.DaysBefore
	mc.DaysAfter = c.Matching.DaysAfter
	mc.MerchantFilter = c.Matching.MerchantFilter
	mc.SkipPending = !c.Matching.IncludePending
	mc.Splitter.DescriptionPrefix = c.Matching.DescriptionPrefix
	mc.Splitter.RefundPrefix = c.Matching.RefundPrefix
	if c.Matching.RefundCategory != "" {
		mc.Splitter.RefundCategory = c.Matching.RefundCategory
	}
	mc.Splitter.RetagDescription = c.Matching.RetagDescription
	mc.Splitter.InheritRefundCategory = c.Matching.InheritRefundCategory
	if c.Matching.TitleLength > 0 {
		mc.Splitter.TitleLength = c.Matching.TitleLength
	}
	return mc
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

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.Ledger.APIKey, "LEDGER_TOKEN", "LEDGER_API_KEY")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	// First, try the config value
	if configValue != "" {
		return configValue
	}

	// Then try each environment variable in order
	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
