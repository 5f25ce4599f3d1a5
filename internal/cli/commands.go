package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/amazon-tagger/internal/adapters/ledger"
	"github.com/eshaffer321/amazon-tagger/internal/application/tagger"
	"github.com/eshaffer321/amazon-tagger/internal/domain/matcher"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/config"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

// RunReconcile builds a plan from the Amazon reports and the ledger, prints
// it, and applies it when flags.Apply is set.
func RunReconcile(ctx context.Context, cfg *config.Config, flags RunFlags, out io.Writer, logger *slog.Logger) error {
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	resolver, table, err := NewResolver(cfg.Categories)
	if err != nil {
		return err
	}

	l, err := NewLedger(cfg.Ledger, store, cfg.GetAPIKey(cfg.Ledger.APIKey, "LEDGER_TOKEN"), logger)
	if err != nil {
		return err
	}

	mc := cfg.MatcherConfig()
	if cfg.Matching.RefundCategory == "" {
		mc.Splitter.RefundCategory = table.Refund()
	}
	m := matcher.NewMatcher(mc, resolver)
	source := NewReportSource(cfg.Reports, flags, logger)
	t := tagger.NewTagger(source, l, m, mc, store, table.Version(), logger)

	concurrency := cfg.Ledger.Concurrency
	if flags.Concurrency > 0 {
		concurrency = flags.Concurrency
	}
	dryRun := !flags.Apply

	result, err := t.Run(ctx, tagger.Options{DryRun: dryRun, Concurrency: concurrency})
	if err != nil {
		return err
	}

	if flags.JSON {
		data, err := result.Plan.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	PrintHeader(out, dryRun)
	RenderPlan(out, result.Plan)
	PrintRunSummary(out, result, dryRun)

	if result.Applied.Failed > 0 {
		return fmt.Errorf("%d of %d ledger mutations failed", result.Applied.Failed, result.Applied.Applied+result.Applied.Failed)
	}
	return nil
}

// RunImportLedger loads a bank or card statement into the local ledger.
// Transactions already present keep their current state.
func RunImportLedger(cfg *config.Config, flags ImportFlags, out io.Writer, logger *slog.Logger) error {
	f, err := os.Open(flags.Path)
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	format := strings.ToLower(flags.Format)
	if format == "" {
		format = formatFromExtension(flags.Path)
	}

	var txns []model.LedgerTransaction
	var warnings []error
	switch format {
	case "ofx":
		txns, err = ledger.ParseOFX(f)
	case "csv":
		txns, warnings, err = ledger.ParseCSV(f)
	default:
		return fmt.Errorf("unknown statement format %q (use -format ofx or csv)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to parse statement: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("skipped statement row", "reason", w.Error())
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	inserted, err := store.UpsertLedgerTransactions(txns)
	if err != nil {
		return fmt.Errorf("failed to import transactions: %w", err)
	}

	logger.Info("imported statement",
		"file", filepath.Base(flags.Path),
		"format", format,
		"read", len(txns),
		"inserted", inserted,
		"skipped_rows", len(warnings),
	)
	fmt.Fprintf(out, "Imported %d new transactions (%d already present, %d rows skipped)\n",
		inserted, len(txns)-inserted, len(warnings))
	return nil
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return "ofx"
	case ".csv":
		return "csv"
	default:
		return ""
	}
}

// RunHistory prints recorded runs, or the entries of one run
func RunHistory(cfg *config.Config, flags RunsFlags, out io.Writer) error {
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if flags.RunID != "" {
		run, err := store.GetRun(flags.RunID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", flags.RunID)
		}
		entries, err := store.ListEntries(run.ID)
		if err != nil {
			return err
		}
		PrintEntries(out, run, entries)
		return nil
	}

	runs, err := store.ListRuns(flags.Limit)
	if err != nil {
		return err
	}
	PrintRuns(out, runs)
	return nil
}
