package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/eshaffer321/amazon-tagger/internal/application/applier"
	"github.com/eshaffer321/amazon-tagger/internal/application/tagger"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

const (
	colorBlue   lipgloss.Color = "#89b4fa"
	colorMauve  lipgloss.Color = "#cba6f7"
	colorGreen  lipgloss.Color = "#a6e3a1"
	colorYellow lipgloss.Color = "#f9e2af"
	colorRed    lipgloss.Color = "#f38ba8"
	colorMuted  lipgloss.Color = "#6c7086"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	retagStyle  = lipgloss.NewStyle().Foreground(colorBlue)
	splitStyle  = lipgloss.NewStyle().Foreground(colorMauve)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	idStyle     = lipgloss.NewStyle().Width(14)
	amountStyle = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	actionStyle = lipgloss.NewStyle().Width(7)
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, dryRun bool) {
	mode := "APPLY"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("amazon-tagger (%s mode)", mode)))
}

// RenderPlan prints the proposed ledger edits with their current values
func RenderPlan(w io.Writer, p *plan.Plan) {
	s := p.Summary
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf(
		"Plan: %d matched (%d retag, %d split, %d unchanged), %d unmatched, %d skipped",
		s.Matched, s.Retags, s.Splits, s.NoOps, s.Unmatched, s.Skipped)))
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for _, e := range p.Entries {
		renderEntry(w, e)
	}

	if len(p.Unmatched) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Unmatched"))
		for _, u := range p.Unmatched {
			fmt.Fprintf(w, "  %-6s %s %s %s\n", u.SourceKind, amountStyle.Render(u.Amount.Plain()), u.Date, u.SourceKey)
		}
	}

	if len(p.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Skipped"))
		for _, warning := range p.Warnings {
			fmt.Fprintf(w, "  %s %s\n", warnStyle.Render(string(warning.Kind)), warning.Message)
		}
	}
}

func renderEntry(w io.Writer, e plan.Entry) {
	row := idStyle.Render(e.TransactionID) + amountStyle.Render(e.Amount.Plain()) + "  "
	source := mutedStyle.Render(fmt.Sprintf("[%s %s]", e.SourceKind, e.SourceKey))

	switch e.Action {
	case plan.ActionNoOp:
		fmt.Fprintf(w, "%s%s %s %s\n", row, mutedStyle.Render(actionStyle.Render("noop")), e.CurrentCategory, source)
	case plan.ActionRetag:
		fmt.Fprintf(w, "%s%s %s -> %s %s\n", row, retagStyle.Render(actionStyle.Render("retag")), e.CurrentCategory, e.Category, source)
		if e.Description != "" && e.Description != e.CurrentDescription {
			fmt.Fprintf(w, "%*s description: %s\n", 26, "", e.Description)
		}
	case plan.ActionSplit:
		fmt.Fprintf(w, "%s%s into %d %s\n", row, splitStyle.Render(actionStyle.Render("split")), len(e.Subs), source)
		for _, sub := range e.Subs {
			fmt.Fprintf(w, "%*s%s  %s  %s\n", 14, "", amountStyle.Render(sub.Amount.Plain()), sub.Category, sub.Description)
		}
	}
}

// PrintRunSummary prints the counts of a finished run
func PrintRunSummary(w io.Writer, result *tagger.Result, dryRun bool) {
	s := result.Plan.Summary
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Run %s: Matched=%d Unmatched=%d Skipped=%d",
		result.RunID, s.Matched, s.Unmatched, s.Skipped)
	if !dryRun {
		fmt.Fprintf(w, " Applied=%d Failed=%d", result.Applied.Applied, result.Applied.Failed)
	}
	fmt.Fprintln(w)

	if errs := applier.Errors(result.Outcomes); len(errs) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, err := range errs {
			fmt.Fprintf(w, "  - %s\n", errorStyle.Render(err.Error()))
		}
	}

	switch {
	case dryRun && len(result.Plan.Actionable()) > 0:
		fmt.Fprintln(w, "\nDry run: no changes were made. Re-run with -apply to update the ledger.")
	case !dryRun && result.Applied.Failed == 0 && result.Applied.Applied > 0:
		fmt.Fprintln(w, okStyle.Render("\nLedger updated."))
	}
}

// PrintRuns prints run history, newest first
func PrintRuns(w io.Writer, runs []storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-36s  %-19s  %-7s  %-21s  %7s  %7s  %6s", "RUN", "STARTED", "MODE", "STATUS", "MATCHED", "APPLIED", "FAILED")))
	for _, r := range runs {
		mode := "apply"
		if r.DryRun {
			mode = "dry-run"
		}
		status := r.Status
		switch r.Status {
		case storage.RunStatusFailed:
			status = errorStyle.Render(fmt.Sprintf("%-21s", status))
		case storage.RunStatusCompletedWithErrors:
			status = warnStyle.Render(fmt.Sprintf("%-21s", status))
		default:
			status = fmt.Sprintf("%-21s", status)
		}
		fmt.Fprintf(w, "%-36s  %-19s  %-7s  %s  %7d  %7d  %6d\n", r.ID, r.StartedAt, mode, status, r.Matched, r.Applied, r.Failed)
	}
}

// PrintEntries prints the stored plan entries of one run
func PrintEntries(w io.Writer, run *storage.Run, entries []storage.EntryRecord) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Run %s (%s, categories %s)", run.ID, run.Status, run.CategoryVersion)))
	for _, e := range entries {
		outcome := e.Outcome
		switch e.Outcome {
		case storage.OutcomeFailed:
			outcome = errorStyle.Render(outcome + ": " + e.Error)
		case storage.OutcomeApplied:
			outcome = okStyle.Render(outcome)
		}
		target := e.Category
		if e.Action == string(plan.ActionSplit) {
			target = fmt.Sprintf("%d lines", e.SplitCount)
		}
		fmt.Fprintf(w, "%s%s  %s %s  %s\n", idStyle.Render(e.TransactionID), amountStyle.Render(e.Amount), actionStyle.Render(e.Action), target, outcome)
	}
}
