package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/amazon-tagger/internal/api/dto"
	"github.com/eshaffer321/amazon-tagger/internal/api/handlers"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

func seedLedger(t *testing.T) *storage.MockRepository {
	t.Helper()
	repo := storage.NewMockRepository()
	_, err := repo.UpsertLedgerTransactions([]model.LedgerTransaction{
		{ID: "tx1", Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), MerchantName: "Amazon", Amount: money.MustParse("-19.99"), Category: "Toys", IsEditedByTool: true},
		{ID: "tx2", Date: time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), MerchantName: "AMAZON MKTPLACE", Amount: money.MustParse("-20.00"), Category: "Shopping"},
		{ID: "tx3", Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), MerchantName: "Grocer", Amount: money.MustParse("-50.00"), Category: "Groceries"},
	})
	require.NoError(t, err)
	return repo
}

func TestLedgerHandler_List(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "all, newest first", query: "", wantIDs: []string{"tx3", "tx2", "tx1"}},
		{name: "merchant filter", query: "?merchant=amazon", wantIDs: []string{"tx2", "tx1"}},
		{name: "unedited only", query: "?merchant=amazon&unedited=true", wantIDs: []string{"tx2"}},
		{name: "date range", query: "?start=2024-01-01&end=2024-01-11", wantIDs: []string{"tx2", "tx1"}},
		{name: "pagination", query: "?limit=1&offset=1", wantIDs: []string{"tx2"}},
		{name: "exact amount", query: "?amount=19.99", wantIDs: []string{"tx1"}},
		{name: "exact amount, signed", query: "?amount=-20.00&merchant=amazon", wantIDs: []string{"tx2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewLedgerHandler(seedLedger(t))

			req := httptest.NewRequest(http.MethodGet, "/api/ledger/transactions"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler.List(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)

			var response dto.LedgerListResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

			ids := make([]string, 0, len(response.Transactions))
			for _, txn := range response.Transactions {
				ids = append(ids, txn.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestLedgerHandler_List_Fields(t *testing.T) {
	handler := handlers.NewLedgerHandler(seedLedger(t))

	req := httptest.NewRequest(http.MethodGet, "/api/ledger/transactions?end=2024-01-06", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	var response dto.LedgerListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Len(t, response.Transactions, 1)

	txn := response.Transactions[0]
	assert.Equal(t, "2024-01-06", txn.Date)
	assert.Equal(t, "-19.99", txn.Amount)
	assert.Equal(t, "Amazon", txn.Merchant)
	assert.True(t, txn.EditedByTool)
	assert.Equal(t, 1, response.TotalCount)
	assert.Equal(t, 50, response.Limit)
}

func TestLedgerHandler_List_BadDate(t *testing.T) {
	handler := handlers.NewLedgerHandler(storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/ledger/transactions?start=01/05/2024", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var response dto.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, dto.ErrCodeBadRequest, response.Code)
}

func TestLedgerHandler_List_BadAmount(t *testing.T) {
	handler := handlers.NewLedgerHandler(storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/ledger/transactions?amount=twenty", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerHandler_Mutations(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.LogMutation(&storage.Mutation{RunID: "run-1", TransactionID: "tx1", Op: "retag", Error: "timeout"}))
	require.NoError(t, repo.LogMutation(&storage.Mutation{RunID: "run-2", TransactionID: "tx1", Op: "retag"}))
	require.NoError(t, repo.LogMutation(&storage.Mutation{RunID: "run-2", TransactionID: "tx2", Op: "split"}))

	handler := handlers.NewLedgerHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/ledger/transactions/tx1/mutations", nil)
	req = req.WithContext(setChiURLParam(req.Context(), "id", "tx1"))
	rec := httptest.NewRecorder()

	handler.Mutations(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.MutationListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Equal(t, 2, response.Count)
	assert.Equal(t, "timeout", response.Mutations[0].Error)
}
