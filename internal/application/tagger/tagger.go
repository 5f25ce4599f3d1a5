// Package tagger runs one reconciliation: load the Amazon reports, read the
// ledger around them, build a plan and optionally apply it.
package tagger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/amazon-tagger/internal/adapters/ledger"
	"github.com/eshaffer321/amazon-tagger/internal/adapters/providers"
	"github.com/eshaffer321/amazon-tagger/internal/application/applier"
	"github.com/eshaffer321/amazon-tagger/internal/domain/aggregator"
	"github.com/eshaffer321/amazon-tagger/internal/domain/matcher"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

// Options holds per-run settings
type Options struct {
	DryRun      bool
	Concurrency int // parallel ledger mutations when applying (0 = default)
}

// Result holds run results
type Result struct {
	RunID    string
	Plan     *plan.Plan
	Outcomes []applier.Outcome // empty on dry runs
	Applied  applier.Summary
	Start    time.Time // ledger window read
	End      time.Time
}

// Tagger wires the report source, matcher, ledger and run history together
type Tagger struct {
	source          providers.ReportSource
	ledger          ledger.Ledger
	matcher         *matcher.Matcher
	config          matcher.Config
	repo            storage.Repository
	categoryVersion string
	logger          *slog.Logger
	newID           func() string
}

// NewTagger creates a tagger. repo may be nil, in which case nothing is
// recorded.
func NewTagger(
	source providers.ReportSource,
	l ledger.Ledger,
	m *matcher.Matcher,
	config matcher.Config,
	repo storage.Repository,
	categoryVersion string,
	logger *slog.Logger,
) *Tagger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tagger{
		source:          source,
		ledger:          l,
		matcher:         m,
		config:          config,
		repo:            repo,
		categoryVersion: categoryVersion,
		logger:          logger.With("system", "tagger"),
		newID:           uuid.NewString,
	}
}

// Run executes one reconciliation. An error is returned when the reports or
// the ledger cannot be read; failures of individual mutations are reported in
// Result.Outcomes.
func (t *Tagger) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{RunID: t.newID()}

	t.logger.Info("starting run",
		"run_id", result.RunID,
		"source", t.source.DisplayName(),
		"dry_run", opts.DryRun,
	)

	if t.repo != nil {
		run := &storage.Run{
			ID:              result.RunID,
			DryRun:          opts.DryRun,
			CategoryVersion: t.categoryVersion,
		}
		if err := t.repo.StartRun(run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	p, err := t.buildPlan(ctx, result)
	if err != nil {
		t.complete(result.RunID, storage.RunResult{Err: err})
		return nil, err
	}
	result.Plan = p

	if t.repo != nil {
		if err := t.repo.SaveEntries(result.RunID, p.Entries); err != nil {
			t.logger.Error("failed to save plan entries", "run_id", result.RunID, "error", err)
		}
	}

	if !opts.DryRun && len(p.Actionable()) > 0 {
		var recorder applier.Recorder
		if t.repo != nil {
			recorder = t.repo
		}
		a := applier.NewApplier(t.ledger, recorder, t.logger, opts.Concurrency)
		result.Outcomes = a.Apply(ctx, result.RunID, p)
		result.Applied = applier.Summarize(result.Outcomes)
		for _, err := range applier.Errors(result.Outcomes) {
			t.logger.Error("mutation failed", "error", err)
		}
	}

	t.logSummary(result, opts.DryRun)
	t.complete(result.RunID, storage.RunResult{
		Summary: p.Summary,
		Applied: result.Applied.Applied,
		Failed:  result.Applied.Failed,
	})
	return result, nil
}

// Plan builds the plan without recording or applying anything
func (t *Tagger) Plan(ctx context.Context) (*plan.Plan, error) {
	return t.buildPlan(ctx, &Result{})
}

func (t *Tagger) buildPlan(ctx context.Context, result *Result) (*plan.Plan, error) {
	reports, err := t.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s reports: %w", t.source.Name(), err)
	}

	var txns []model.LedgerTransaction
	if start, end, ok := Window(reports, t.config); ok {
		result.Start, result.End = start, end
		t.logger.Debug("reading ledger",
			"start", start.Format("2006-01-02"),
			"end", end.Format("2006-01-02"),
		)
		txns, err = t.ledger.Transactions(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
	}

	p := t.matcher.Match(reports.Orders, reports.Refunds, txns)
	AddReportWarnings(p, reports.Warnings)
	return p, nil
}

// Window returns the ledger date range that can hold a match for any order
// or refund in reports. ok is false when there is nothing to match.
func Window(reports *aggregator.Result, cfg matcher.Config) (start, end time.Time, ok bool) {
	consider := func(d time.Time) {
		if d.IsZero() {
			return
		}
		if !ok || d.Before(start) {
			start = d
		}
		if !ok || d.After(end) {
			end = d
		}
		ok = true
	}
	for _, o := range reports.Orders {
		consider(o.ShipmentDate)
	}
	for _, r := range reports.Refunds {
		consider(r.RefundDate)
	}
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start.AddDate(0, 0, -cfg.DaysBefore), end.AddDate(0, 0, cfg.DaysAfter), true
}

// AddReportWarnings records the rows skipped while reading the reports on
// the plan and re-sorts it.
func AddReportWarnings(p *plan.Plan, warnings []error) {
	if len(warnings) == 0 {
		return
	}
	for _, w := range warnings {
		var malformed *model.MalformedInputError
		var violation *model.InvariantViolation
		switch {
		case errors.As(w, &malformed):
			key := malformed.Source
			if malformed.Row > 0 {
				key += ":" + strconv.Itoa(malformed.Row)
			}
			p.Warn(plan.WarnMalformed, key, w.Error())
		case errors.As(w, &violation):
			p.Warn(plan.WarnInvariant, violation.Key, w.Error())
		default:
			p.Warn(plan.WarnMalformed, "", w.Error())
		}
	}
	p.Finalize()
}

func (t *Tagger) complete(runID string, res storage.RunResult) {
	if t.repo == nil {
		return
	}
	if err := t.repo.CompleteRun(runID, res); err != nil {
		t.logger.Error("failed to complete run", "run_id", runID, "error", err)
	}
}

func (t *Tagger) logSummary(result *Result, dryRun bool) {
	s := result.Plan.Summary
	t.logger.Info("run finished",
		"run_id", result.RunID,
		"dry_run", dryRun,
		"transactions", s.Transactions,
		"matched", s.Matched,
		"retags", s.Retags,
		"splits", s.Splits,
		"noops", s.NoOps,
		"unmatched", s.Unmatched,
		"skipped", s.Skipped,
	)
	if !dryRun {
		t.logger.Info("apply finished",
			"run_id", result.RunID,
			"applied", result.Applied.Applied,
			"failed", result.Applied.Failed,
			"skipped", result.Applied.Skipped,
		)
	}
}
