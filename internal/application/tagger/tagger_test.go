package tagger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/amazon-tagger/internal/adapters/ledger/mocks"
	"github.com/eshaffer321/amazon-tagger/internal/application/applier"
	"github.com/eshaffer321/amazon-tagger/internal/domain/aggregator"
	"github.com/eshaffer321/amazon-tagger/internal/domain/categorizer"
	"github.com/eshaffer321/amazon-tagger/internal/domain/matcher"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

type fakeSource struct {
	result *aggregator.Result
	err    error
}

func (f *fakeSource) Name() string        { return "fake" }
func (f *fakeSource) DisplayName() string { return "Fake" }
func (f *fakeSource) Load(ctx context.Context) (*aggregator.Result, error) {
	return f.result, f.err
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func reports() *aggregator.Result {
	return &aggregator.Result{
		Orders: []model.Order{
			{
				OrderID:      "111-1",
				ShipmentDate: day("2024-01-05"),
				Items: []model.Item{
					{OrderID: "111-1", Title: "Widget", CategoryRaw: "Toy", Quantity: 1, ItemTotal: money.MustParse("19.99")},
				},
				TotalCharged: money.MustParse("19.99"),
			},
			{
				OrderID:      "111-2",
				ShipmentDate: day("2024-01-10"),
				Items: []model.Item{
					{OrderID: "111-2", Title: "Twelve", CategoryRaw: "Toy", Quantity: 1, ItemTotal: money.MustParse("12.00")},
					{OrderID: "111-2", Title: "Eight", CategoryRaw: "Book", Quantity: 1, ItemTotal: money.MustParse("8.00")},
				},
				TotalCharged: money.MustParse("20.00"),
			},
		},
		Warnings: []error{
			&model.MalformedInputError{Source: "items", Row: 4, Field: "Item Subtotal", Err: errors.New("bad amount")},
		},
	}
}

func ledgerSnapshot() []model.LedgerTransaction {
	return []model.LedgerTransaction{
		{ID: "tx1", Date: day("2024-01-06"), MerchantName: "Amazon", Amount: money.MustParse("-19.99"), Category: "Shopping"},
		{ID: "tx2", Date: day("2024-01-11"), MerchantName: "Amazon", Amount: money.MustParse("-20.00"), Category: "Shopping"},
		{ID: "tx9", Date: day("2024-01-08"), MerchantName: "Grocer", Amount: money.MustParse("-50.00"), Category: "Groceries"},
	}
}

func newTestTagger(t *testing.T, source *fakeSource, l *mocks.MockLedger, repo storage.Repository) *Tagger {
	t.Helper()
	table, err := categorizer.DefaultTable()
	require.NoError(t, err)
	cfg := matcher.DefaultConfig()
	m := matcher.NewMatcher(cfg, categorizer.NewStandardResolver(table))

	tg := NewTagger(source, l, m, cfg, repo, table.Version(), nil)
	tg.newID = func() string { return "run-1" }
	return tg
}

func TestTagger_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mLedger := mocks.NewMockLedger(ctrl)
	mLedger.EXPECT().
		Transactions(gomock.Any(), day("2024-01-02"), day("2024-01-17")).
		Return(ledgerSnapshot(), nil)
	// No Retag or Split calls expected

	repo := storage.NewMockRepository()
	tg := newTestTagger(t, &fakeSource{result: reports()}, mLedger, repo)

	result, err := tg.Run(context.Background(), Options{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 2, result.Plan.Summary.Matched)
	assert.Equal(t, 1, result.Plan.Summary.Retags)
	assert.Equal(t, 1, result.Plan.Summary.Splits)

	require.Len(t, result.Plan.Warnings, 1)
	assert.Equal(t, plan.WarnMalformed, result.Plan.Warnings[0].Kind)
	assert.Equal(t, "items:4", result.Plan.Warnings[0].Key)

	run, err := repo.GetRun("run-1")
	require.NoError(t, err)
	assert.True(t, run.DryRun)
	assert.Equal(t, storage.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Matched)

	entries, err := repo.ListEntries("run-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestTagger_Apply(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mLedger := mocks.NewMockLedger(ctrl)
	mLedger.EXPECT().Transactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(ledgerSnapshot(), nil)
	mLedger.EXPECT().Retag(gomock.Any(), "tx1", "Toys", gomock.Any(), gomock.Any()).Return(nil)
	mLedger.EXPECT().Split(gomock.Any(), "tx2", gomock.Len(2)).Return(nil)

	repo := storage.NewMockRepository()
	tg := newTestTagger(t, &fakeSource{result: reports()}, mLedger, repo)

	result, err := tg.Run(context.Background(), Options{})

	require.NoError(t, err)
	assert.Equal(t, applier.Summary{Applied: 2}, result.Applied)
	assert.Len(t, repo.GetAllMutations(), 2)

	run, err := repo.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, storage.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Applied)
}

func TestTagger_ApplyFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mLedger := mocks.NewMockLedger(ctrl)
	mLedger.EXPECT().Transactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(ledgerSnapshot(), nil)
	mLedger.EXPECT().Retag(gomock.Any(), "tx1", gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("503"))
	mLedger.EXPECT().Split(gomock.Any(), "tx2", gomock.Any()).Return(nil)

	repo := storage.NewMockRepository()
	tg := newTestTagger(t, &fakeSource{result: reports()}, mLedger, repo)

	result, err := tg.Run(context.Background(), Options{Concurrency: 1})

	require.NoError(t, err, "entry failures do not fail the run")
	assert.Equal(t, applier.Summary{Applied: 1, Failed: 1}, result.Applied)

	run, err := repo.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, storage.RunStatusCompletedWithErrors, run.Status)
}

func TestTagger_SourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := storage.NewMockRepository()
	tg := newTestTagger(t, &fakeSource{err: errors.New("no such file")}, mocks.NewMockLedger(ctrl), repo)

	_, err := tg.Run(context.Background(), Options{DryRun: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
	require.NotNil(t, repo.LastRunResult)
	assert.Error(t, repo.LastRunResult.Err)

	run, err := repo.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, storage.RunStatusFailed, run.Status)
}

func TestTagger_LedgerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mLedger := mocks.NewMockLedger(ctrl)
	mLedger.EXPECT().Transactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	tg := newTestTagger(t, &fakeSource{result: reports()}, mLedger, nil)

	_, err := tg.Run(context.Background(), Options{DryRun: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read ledger")
}

func TestTagger_StartRunError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := storage.NewMockRepository()
	repo.StartRunErr = errors.New("disk full")
	tg := newTestTagger(t, &fakeSource{result: reports()}, mocks.NewMockLedger(ctrl), repo)

	_, err := tg.Run(context.Background(), Options{DryRun: true})

	require.Error(t, err)
	assert.False(t, repo.CompleteRunCalled)
}

func TestTagger_NothingToMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// The ledger is not read when there are no orders or refunds
	tg := newTestTagger(t, &fakeSource{result: &aggregator.Result{}}, mocks.NewMockLedger(ctrl), nil)

	result, err := tg.Run(context.Background(), Options{})

	require.NoError(t, err)
	assert.Empty(t, result.Plan.Entries)
	assert.True(t, result.Start.IsZero())
}

func TestTagger_Plan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mLedger := mocks.NewMockLedger(ctrl)
	mLedger.EXPECT().Transactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(ledgerSnapshot(), nil)

	repo := storage.NewMockRepository()
	tg := newTestTagger(t, &fakeSource{result: reports()}, mLedger, repo)

	p, err := tg.Plan(context.Background())

	require.NoError(t, err)
	assert.Len(t, p.Entries, 2)
	assert.False(t, repo.StartRunCalled)
}

func TestWindow(t *testing.T) {
	cfg := matcher.DefaultConfig()
	res := &aggregator.Result{
		Orders:  []model.Order{{ShipmentDate: day("2024-03-10")}, {ShipmentDate: day("2024-03-01")}},
		Refunds: []model.Refund{{RefundDate: day("2024-03-20")}},
	}

	start, end, ok := Window(res, cfg)

	require.True(t, ok)
	assert.Equal(t, day("2024-02-27"), start)
	assert.Equal(t, day("2024-03-27"), end)

	_, _, ok = Window(&aggregator.Result{}, cfg)
	assert.False(t, ok)
}

func TestAddReportWarnings(t *testing.T) {
	p := plan.New()

	AddReportWarnings(p, []error{
		&model.InvariantViolation{Key: "111-5", Reason: "items do not reconcile"},
		&model.MalformedInputError{Source: "orders", Row: 2, Field: "Total Charged", Err: errors.New("empty")},
	})

	require.Len(t, p.Warnings, 2)
	assert.Equal(t, plan.WarnInvariant, p.Warnings[0].Kind)
	assert.Equal(t, "111-5", p.Warnings[0].Key)
	assert.Equal(t, plan.WarnMalformed, p.Warnings[1].Kind)
	assert.Equal(t, "orders:2", p.Warnings[1].Key)
	assert.Equal(t, 2, p.Summary.Skipped)
}
