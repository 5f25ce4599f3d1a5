package cli

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/amazon-tagger/internal/adapters/ledger"
	"github.com/eshaffer321/amazon-tagger/internal/adapters/providers/amazon"
	"github.com/eshaffer321/amazon-tagger/internal/domain/categorizer"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/config"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

// NewResolver builds the category resolver from config and returns the table
// it resolves against.
func NewResolver(cfg config.CategoriesConfig) (categorizer.Resolver, *categorizer.Table, error) {
	var table *categorizer.Table
	var err error
	if cfg.TablePath != "" {
		table, err = categorizer.LoadTableFile(cfg.TablePath)
	} else {
		table, err = categorizer.DefaultTable()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load category table: %w", err)
	}

	if cfg.DefaultCategory != "" {
		table = table.WithDefault(cfg.DefaultCategory)
	}

	if cfg.Fuzzy {
		return categorizer.NewFallbackResolver(table, cfg.MaxDistance, categorizer.NewMemoryCache()), table, nil
	}
	return categorizer.NewStandardResolver(table), table, nil
}

// NewLedger returns the ledger the plan is read from and applied to. The
// local backend is the SQLite ledger filled by import-ledger.
func NewLedger(cfg config.LedgerConfig, store *storage.Storage, apiKey string, logger *slog.Logger) (ledger.Ledger, error) {
	switch cfg.Backend {
	case "", config.LedgerBackendLocal:
		if store == nil {
			return nil, fmt.Errorf("local ledger requires storage")
		}
		return storage.NewLedgerStore(store), nil
	case config.LedgerBackendHTTP:
		timeout, err := cfg.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		return ledger.NewHTTPClient(ledger.HTTPConfig{
			BaseURL:  cfg.BaseURL,
			Token:    apiKey,
			RetryMax: cfg.RetryMax,
			Timeout:  timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// NewReportSource creates the Amazon report source. Paths given on the
// command line win over the config file.
func NewReportSource(cfg config.ReportsConfig, flags RunFlags, logger *slog.Logger) *amazon.Provider {
	pc := &amazon.ProviderConfig{
		ItemsPath:   cfg.ItemsPath,
		OrdersPath:  cfg.OrdersPath,
		RefundsPath: cfg.RefundsPath,
	}
	if flags.ItemsPath != "" {
		pc.ItemsPath = flags.ItemsPath
	}
	if flags.OrdersPath != "" {
		pc.OrdersPath = flags.OrdersPath
	}
	if flags.RefundsPath != "" {
		pc.RefundsPath = flags.RefundsPath
	}
	return amazon.NewProvider(logger, pc)
}
