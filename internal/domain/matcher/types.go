package matcher

import (
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
	"github.com/eshaffer321/amazon-tagger/internal/domain/splitter"
)

// Config holds matcher configuration
type Config struct {
	DaysBefore     int    // Transaction may post this many days before the shipment (default: 3)
	DaysAfter      int    // Transaction may post this many days after the shipment (default: 7)
	MerchantFilter string // Case-insensitive merchant substring; empty matches everything
	SkipPending    bool   // Ignore pending transactions

	Splitter splitter.Options
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		DaysBefore:     3,
		DaysAfter:      7,
		MerchantFilter: "amazon",
		SkipPending:    true,
		Splitter:       splitter.DefaultOptions(),
	}
}

// MatchCandidate pairs a transaction with an order or refund it could settle.
// Candidates only live for the duration of one Match call.
type MatchCandidate struct {
	TransactionID string
	SourceKind    plan.SourceKind
	SourceKey     string
	AmountDelta   money.Money
	DateDelta     int // transaction date minus shipment/refund date, in days
}

// absDelta is the distance used for ranking.
func (c MatchCandidate) absDelta() int {
	if c.DateDelta < 0 {
		return -c.DateDelta
	}
	return c.DateDelta
}
