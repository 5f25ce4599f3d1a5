// Package amazon reads the Amazon order history reports (items, orders and
// shipments, refunds) exported as CSV and turns them into orders and refunds.
//
// Columns are located by header name, so reordered or extra columns are fine.
// The refunds report is optional.
package amazon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/eshaffer321/amazon-tagger/internal/adapters/providers"
	"github.com/eshaffer321/amazon-tagger/internal/domain/aggregator"
)

// Provider implements the ReportSource interface for Amazon CSV reports
type Provider struct {
	logger *slog.Logger
	config ProviderConfig
}

// Compile-time check that Provider implements ReportSource
var _ providers.ReportSource = (*Provider)(nil)

// NewProvider creates a new Amazon provider
func NewProvider(logger *slog.Logger, cfg *ProviderConfig) *Provider {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Provider{
		logger: logger.With(slog.String("provider", "amazon")),
	}
	if cfg != nil {
		p.config = *cfg
	}
	return p
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "amazon"
}

// DisplayName returns the human-readable provider name
func (p *Provider) DisplayName() string {
	return "Amazon"
}

// Load reads the configured report files and aggregates them
func (p *Provider) Load(ctx context.Context) (*aggregator.Result, error) {
	if p.config.ItemsPath == "" || p.config.OrdersPath == "" {
		return nil, fmt.Errorf("items and orders reports are required")
	}

	items, err := os.Open(p.config.ItemsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open items report: %w", err)
	}
	defer func() { _ = items.Close() }()

	orders, err := os.Open(p.config.OrdersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open orders report: %w", err)
	}
	defer func() { _ = orders.Close() }()

	var refunds io.Reader
	if p.config.RefundsPath != "" {
		f, err := os.Open(p.config.RefundsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open refunds report: %w", err)
		}
		defer func() { _ = f.Close() }()
		refunds = f
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := LoadReports(items, orders, refunds)
	if err != nil {
		return nil, err
	}
	p.logStats(res)
	return res, nil
}

// LoadReports parses and aggregates the three reports. refunds may be nil.
// Unparseable rows are reported in Result.Warnings ahead of the aggregation
// warnings.
func LoadReports(items, orders, refunds io.Reader) (*aggregator.Result, error) {
	itemRows, itemWarnings, err := ParseItems(items)
	if err != nil {
		return nil, err
	}
	orderRows, orderWarnings, err := ParseOrders(orders)
	if err != nil {
		return nil, err
	}

	var refundRows []aggregator.RefundRow
	var refundWarnings []error
	if refunds != nil {
		refundRows, refundWarnings, err = ParseRefunds(refunds)
		if err != nil {
			return nil, err
		}
	}

	res := aggregator.Aggregate(itemRows, orderRows, refundRows)

	warnings := make([]error, 0, len(itemWarnings)+len(orderWarnings)+len(refundWarnings)+len(res.Warnings))
	warnings = append(warnings, itemWarnings...)
	warnings = append(warnings, orderWarnings...)
	warnings = append(warnings, refundWarnings...)
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

func (p *Provider) logStats(res *aggregator.Result) {
	s := res.Stats
	p.logger.Info("loaded reports",
		slog.Int("orders", s.Orders),
		slog.Int("items", s.Items),
		slog.Int("refunds", s.Refunds),
		slog.Int("warnings", len(res.Warnings)),
	)
	if s.Orders > 0 {
		p.logger.Info("order span",
			slog.String("first", s.FirstOrderDate.Format("2006-01-02")),
			slog.String("last", s.LastOrderDate.Format("2006-01-02")),
			slog.String("total_charged", s.TotalCharged.String()),
		)
	}
	if s.Refunds > 0 {
		p.logger.Info("refunds", slog.String("total_refunded", s.TotalRefunded.String()))
	}
	if s.QuantityAdjusted > 0 {
		p.logger.Info("adjusted item quantities for partial shipments", slog.Int("items", s.QuantityAdjusted))
	}
	for _, w := range res.Warnings {
		p.logger.Warn("skipped row", slog.String("reason", w.Error()))
	}
}
