package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/amazon-tagger/internal/api/dto"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

// LedgerHandler handles local ledger HTTP requests.
type LedgerHandler struct {
	*Base
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(repo storage.Repository) *LedgerHandler {
	return &LedgerHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/ledger/transactions - returns paginated local ledger transactions.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultLedgerListParams()
	params.Merchant = r.URL.Query().Get("merchant")
	params.Unedited = ParseBoolParam(r, "unedited", false)
	params.Amount = r.URL.Query().Get("amount")
	params.Limit = ParseIntParam(r, "limit", params.Limit)
	params.Offset = ParseIntParam(r, "offset", params.Offset)

	start, ok := ParseDateParam(r, "start")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("start must be YYYY-MM-DD"))
		return
	}
	end, ok := ParseDateParam(r, "end")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("end must be YYYY-MM-DD"))
		return
	}

	var amount *money.Money
	if params.Amount != "" {
		m, err := money.Parse(params.Amount)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("amount must be a decimal amount"))
			return
		}
		amount = &m
	}

	// Enforce reasonable limits
	if params.Limit > 500 {
		params.Limit = 500
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	result, err := h.repo.ListLedgerTransactions(storage.LedgerFilters{
		Start:    start,
		End:      end,
		Merchant: params.Merchant,
		Unedited: params.Unedited,
		Amount:   amount,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.LedgerListResponse{
		Transactions: make([]dto.LedgerTransactionResponse, 0, len(result.Transactions)),
		TotalCount:   result.TotalCount,
		Limit:        result.Limit,
		Offset:       result.Offset,
	}
	for _, t := range result.Transactions {
		response.Transactions = append(response.Transactions, toLedgerTransactionResponse(t))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Mutations handles GET /api/ledger/transactions/{id}/mutations - returns
// every ledger call made for one transaction.
func (h *LedgerHandler) Mutations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transaction ID is required"))
		return
	}

	mutations, err := h.repo.GetMutationsByTransactionID(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toMutationListResponse(mutations))
}

func toLedgerTransactionResponse(t model.LedgerTransaction) dto.LedgerTransactionResponse {
	return dto.LedgerTransactionResponse{
		ID:           t.ID,
		Date:         t.Date.Format("2006-01-02"),
		Merchant:     t.MerchantName,
		Amount:       t.Amount.Plain(),
		Category:     t.Category,
		Description:  t.Description,
		Notes:        t.Notes,
		Pending:      t.Pending,
		IsSplit:      t.IsSplit,
		EditedByTool: t.IsEditedByTool,
		ParentID:     t.ParentID,
	}
}
