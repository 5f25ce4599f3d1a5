// Package applier executes a reconciliation plan against the ledger.
//
// Entries are independent: a failed entry is reported in its Outcome and the
// rest of the plan still runs. Each transaction appears in at most one entry,
// so entries can be applied concurrently.
package applier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/amazon-tagger/internal/adapters/ledger"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

// DefaultConcurrency is the number of entries applied at once
const DefaultConcurrency = 4

// Status of one applied entry
type Status string

const (
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome is the result of applying one plan entry
type Outcome struct {
	TransactionID string
	Action        plan.Action
	Status        Status
	Err           error
	Duration      time.Duration
}

// Summary counts outcomes
type Summary struct {
	Applied int
	Failed  int
	Skipped int
}

// Recorder receives the audit trail of an apply. storage.Storage satisfies it.
type Recorder interface {
	LogMutation(m *storage.Mutation) error
	UpdateEntryOutcome(runID, transactionID, outcome, errMsg string) error
}

// Applier applies plans to a ledger
type Applier struct {
	ledger      ledger.Ledger
	recorder    Recorder
	logger      *slog.Logger
	concurrency int
}

// NewApplier creates an applier. recorder may be nil.
func NewApplier(l ledger.Ledger, recorder Recorder, logger *slog.Logger, concurrency int) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Applier{
		ledger:      l,
		recorder:    recorder,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Apply executes every entry of the plan and returns one outcome per entry,
// in plan order. NoOp entries are skipped without calling the ledger.
func (a *Applier) Apply(ctx context.Context, runID string, p *plan.Plan) []Outcome {
	outcomes := make([]Outcome, len(p.Entries))

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i := range p.Entries {
		entry := p.Entries[i]
		if entry.Action == plan.ActionNoOp {
			outcomes[i] = Outcome{TransactionID: entry.TransactionID, Action: entry.Action, Status: StatusSkipped}
			continue
		}

		i := i
		g.Go(func() error {
			outcomes[i] = a.applyEntry(ctx, runID, entry)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (a *Applier) applyEntry(ctx context.Context, runID string, entry plan.Entry) Outcome {
	out := Outcome{TransactionID: entry.TransactionID, Action: entry.Action}
	start := time.Now()

	var request interface{}
	var err error
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	} else {
		switch entry.Action {
		case plan.ActionRetag:
			request = map[string]string{
				"category":    entry.Category,
				"description": entry.Description,
				"notes":       entry.Notes,
			}
			err = a.ledger.Retag(ctx, entry.TransactionID, entry.Category, entry.Description, entry.Notes)
		case plan.ActionSplit:
			request = entry.Subs
			err = a.ledger.Split(ctx, entry.TransactionID, entry.Subs)
		default:
			err = fmt.Errorf("unknown action %q", entry.Action)
		}
	}
	out.Duration = time.Since(start)

	if err != nil {
		out.Status = StatusFailed
		out.Err = &model.CollaboratorError{TransactionID: entry.TransactionID, Op: string(entry.Action), Err: err}
		a.logger.Error("failed to apply entry",
			slog.String("transaction_id", entry.TransactionID),
			slog.String("action", string(entry.Action)),
			slog.String("error", err.Error()),
		)
	} else {
		out.Status = StatusApplied
		a.logger.Debug("applied entry",
			slog.String("transaction_id", entry.TransactionID),
			slog.String("action", string(entry.Action)),
			slog.Duration("duration", out.Duration),
		)
	}

	if request != nil {
		a.record(runID, entry, request, out)
	}
	return out
}

// record writes the mutation log and entry outcome. Recording failures are
// logged and never change the outcome.
func (a *Applier) record(runID string, entry plan.Entry, request interface{}, out Outcome) {
	if a.recorder == nil {
		return
	}

	reqJSON, _ := json.Marshal(request)
	m := &storage.Mutation{
		RunID:         runID,
		TransactionID: entry.TransactionID,
		Op:            string(entry.Action),
		RequestJSON:   string(reqJSON),
		DurationMs:    out.Duration.Milliseconds(),
	}
	errMsg := ""
	if out.Err != nil {
		errMsg = out.Err.Error()
		m.Error = errMsg
	}
	if err := a.recorder.LogMutation(m); err != nil {
		a.logger.Warn("failed to log mutation", slog.String("transaction_id", entry.TransactionID), slog.String("error", err.Error()))
	}

	outcome := storage.OutcomeApplied
	if out.Status == StatusFailed {
		outcome = storage.OutcomeFailed
	}
	if runID != "" {
		if err := a.recorder.UpdateEntryOutcome(runID, entry.TransactionID, outcome, errMsg); err != nil {
			a.logger.Warn("failed to record outcome", slog.String("transaction_id", entry.TransactionID), slog.String("error", err.Error()))
		}
	}
}

// Summarize counts outcomes by status
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch o.Status {
		case StatusApplied:
			s.Applied++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// Errors returns the errors of failed outcomes
func Errors(outcomes []Outcome) []error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
