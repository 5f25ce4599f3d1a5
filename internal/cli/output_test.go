package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/amazon-tagger/internal/application/applier"
	"github.com/eshaffer321/amazon-tagger/internal/application/tagger"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

func samplePlan() *plan.Plan {
	p := plan.New()
	p.Entries = []plan.Entry{
		{
			TransactionID:   "tx1",
			Amount:          money.MustParse("-19.99"),
			SourceKind:      plan.SourceOrder,
			SourceKey:       "111-1|1Z1",
			Action:          plan.ActionRetag,
			Category:        "Toys",
			Description:     "Amazon.com: Widget",
			CurrentCategory: "Shopping",
		},
		{
			TransactionID: "tx2",
			Amount:        money.MustParse("-20.00"),
			SourceKind:    plan.SourceOrder,
			SourceKey:     "111-2|1Z2",
			Action:        plan.ActionSplit,
			Subs: []plan.SubTransaction{
				{Amount: money.MustParse("-12.00"), Category: "Toys", Description: "Amazon.com: Twelve"},
				{Amount: money.MustParse("-8.00"), Category: "Books", Description: "Amazon.com: Eight"},
			},
		},
	}
	p.Unmatched = []plan.Unmatched{{SourceKind: plan.SourceOrder, SourceKey: "111-9|1Z9", Date: "2024-01-09", Amount: money.MustParse("5.00")}}
	p.Warn(plan.WarnMalformed, "items:4", "malformed input (items row 4): bad amount")
	p.Finalize()
	return p
}

func TestRenderPlan(t *testing.T) {
	var buf bytes.Buffer

	RenderPlan(&buf, samplePlan())

	out := buf.String()
	assert.Contains(t, out, "Plan: 2 matched (1 retag, 1 split, 0 unchanged), 1 unmatched, 1 skipped")
	assert.Contains(t, out, "Shopping -> Toys")
	assert.Contains(t, out, "description: Amazon.com: Widget")
	assert.Contains(t, out, "into 2")
	assert.Contains(t, out, "Amazon.com: Eight")
	assert.Contains(t, out, "111-9|1Z9")
	assert.Contains(t, out, "bad amount")
}

func TestPrintRunSummary(t *testing.T) {
	t.Run("dry run", func(t *testing.T) {
		var buf bytes.Buffer

		PrintRunSummary(&buf, &tagger.Result{RunID: "run-1", Plan: samplePlan()}, true)

		assert.Contains(t, buf.String(), "Run run-1: Matched=2 Unmatched=1 Skipped=1")
		assert.Contains(t, buf.String(), "Re-run with -apply")
		assert.NotContains(t, buf.String(), "Applied=")
	})

	t.Run("apply with failure", func(t *testing.T) {
		var buf bytes.Buffer
		result := &tagger.Result{
			RunID: "run-2",
			Plan:  samplePlan(),
			Outcomes: []applier.Outcome{
				{TransactionID: "tx1", Status: applier.StatusApplied},
				{TransactionID: "tx2", Status: applier.StatusFailed, Err: errors.New("ledger split failed for transaction tx2")},
			},
			Applied: applier.Summary{Applied: 1, Failed: 1},
		}

		PrintRunSummary(&buf, result, false)

		assert.Contains(t, buf.String(), "Applied=1 Failed=1")
		assert.Contains(t, buf.String(), "ledger split failed for transaction tx2")
		assert.NotContains(t, buf.String(), "Ledger updated")
	})
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer

	PrintRuns(&buf, nil)
	assert.Contains(t, buf.String(), "No runs recorded yet.")

	buf.Reset()
	PrintRuns(&buf, []storage.Run{
		{ID: "run-2", StartedAt: "2024-02-01 10:00:00", Status: storage.RunStatusCompleted, Matched: 3, Applied: 3},
		{ID: "run-1", StartedAt: "2024-01-31 10:00:00", DryRun: true, Status: storage.RunStatusFailed},
	})
	out := buf.String()
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "dry-run")
	assert.Contains(t, out, storage.RunStatusFailed)
}

func TestPrintEntries(t *testing.T) {
	var buf bytes.Buffer

	PrintEntries(&buf, &storage.Run{ID: "run-1", Status: storage.RunStatusCompletedWithErrors, CategoryVersion: "2024.06"}, []storage.EntryRecord{
		{TransactionID: "tx1", Amount: "-19.99", Action: "retag", Category: "Toys", Outcome: storage.OutcomeApplied},
		{TransactionID: "tx2", Amount: "-20.00", Action: "split", SplitCount: 2, Outcome: storage.OutcomeFailed, Error: "timeout"},
	})

	out := buf.String()
	assert.Contains(t, out, "categories 2024.06")
	assert.Contains(t, out, "2 lines")
	assert.Contains(t, out, "failed: timeout")
}
