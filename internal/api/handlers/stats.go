package handlers

import (
	"net/http"

	"github.com/eshaffer321/amazon-tagger/internal/api/dto"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage"
)

// StatsHandler handles stats-related HTTP requests.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/stats - returns aggregate statistics.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.StatsResponse{
		TotalRuns:          stats.TotalRuns,
		AppliedRuns:        stats.AppliedRuns,
		DryRuns:            stats.DryRuns,
		FailedRuns:         stats.FailedRuns,
		TotalMatched:       stats.TotalMatched,
		TotalRetags:        stats.TotalRetags,
		TotalSplits:        stats.TotalSplits,
		TotalApplyFailures: stats.TotalApplyFailures,
		LedgerTransactions: stats.LedgerTransactions,
		EditedTransactions: stats.EditedTransactions,
		LastRunAt:          stats.LastRunAt,
	}

	h.WriteJSON(w, http.StatusOK, response)
}
