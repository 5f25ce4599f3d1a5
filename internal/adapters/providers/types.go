// Package providers defines where order data comes from.
package providers

import (
	"context"

	"github.com/eshaffer321/amazon-tagger/internal/domain/aggregator"
)

// ReportSource is the interface that all order report sources implement
type ReportSource interface {
	// Provider identification
	Name() string        // "amazon"
	DisplayName() string // "Amazon"

	// Load reads the source and returns aggregated orders and refunds.
	// Bad rows are returned as warnings on the result; an error means the
	// source as a whole could not be read.
	Load(ctx context.Context) (*aggregator.Result, error)
}
