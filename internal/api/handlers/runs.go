package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/amazon-tagger/internal/api/dto"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

// RunsHandler handles run history HTTP requests.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/runs - returns recent runs, newest first.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultRunListParams()
	params.Limit = ParseIntParam(r, "limit", params.Limit)

	runs, err := h.repo.ListRuns(params.Limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}

	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a single run by ID.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}

	h.WriteJSON(w, http.StatusOK, toRunResponse(*run))
}

// Entries handles GET /api/runs/{id}/entries - returns the plan of a run.
func (h *RunsHandler) Entries(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}

	entries, err := h.repo.ListEntries(run.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.EntryListResponse{
		RunID:   run.ID,
		Entries: make([]dto.EntryResponse, 0, len(entries)),
		Count:   len(entries),
	}
	for _, e := range entries {
		response.Entries = append(response.Entries, toEntryResponse(e))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Mutations handles GET /api/runs/{id}/mutations - returns the ledger calls of a run.
func (h *RunsHandler) Mutations(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}

	mutations, err := h.repo.GetMutationsByRunID(run.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toMutationListResponse(mutations))
}

// lookup resolves the {id} URL parameter, writing the error response itself
// when the run cannot be returned.
func (h *RunsHandler) lookup(w http.ResponseWriter, r *http.Request) (*storage.Run, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return nil, false
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return nil, false
	}

	if run == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("run"))
		return nil, false
	}

	return run, true
}

// toRunResponse converts a storage Run to an API response.
func toRunResponse(run storage.Run) dto.RunResponse {
	return dto.RunResponse{
		ID:              run.ID,
		StartedAt:       run.StartedAt,
		CompletedAt:     run.CompletedAt,
		DryRun:          run.DryRun,
		Status:          run.Status,
		CategoryVersion: run.CategoryVersion,
		ErrorMessage:    run.ErrorMessage,
		Orders:          run.Orders,
		Refunds:         run.Refunds,
		Transactions:    run.Transactions,
		Matched:         run.Matched,
		Unmatched:       run.Unmatched,
		Retags:          run.Retags,
		Splits:          run.Splits,
		NoOps:           run.NoOps,
		Skipped:         run.Skipped,
		Applied:         run.Applied,
		Failed:          run.Failed,
	}
}

func toEntryResponse(e storage.EntryRecord) dto.EntryResponse {
	resp := dto.EntryResponse{
		TransactionID: e.TransactionID,
		SourceKind:    e.SourceKind,
		SourceKey:     e.SourceKey,
		Action:        e.Action,
		Amount:        e.Amount,
		Category:      e.Category,
		Description:   e.Description,
		Notes:         e.Notes,
		Rationale:     e.Rationale,
		Outcome:       e.Outcome,
		Error:         e.Error,
	}
	for _, s := range e.Subs {
		resp.Splits = append(resp.Splits, dto.SubTransactionResponse{
			Amount:      s.Amount.Plain(),
			Category:    s.Category,
			Description: s.Description,
			Notes:       s.Notes,
		})
	}
	return resp
}

func toMutationListResponse(mutations []storage.Mutation) dto.MutationListResponse {
	response := dto.MutationListResponse{
		Mutations: make([]dto.MutationResponse, 0, len(mutations)),
		Count:     len(mutations),
	}
	for _, m := range mutations {
		response.Mutations = append(response.Mutations, dto.MutationResponse{
			RunID:         m.RunID,
			TransactionID: m.TransactionID,
			Op:            m.Op,
			Request:       m.RequestJSON,
			Error:         m.Error,
			DurationMs:    m.DurationMs,
			CreatedAt:     m.CreatedAt,
		})
	}
	return response
}
