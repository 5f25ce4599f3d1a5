package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eshaffer321/amazon-tagger/internal/api/dto"
)

// SchemaReporter is implemented by storage that can report its migration
// version. Reading the version doubles as a database round trip.
type SchemaReporter interface {
	SchemaVersion() (int64, error)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	schema SchemaReporter
}

// NewHealthHandler creates a new health handler. A nil reporter skips the
// database check.
func NewHealthHandler(schema SchemaReporter) *HealthHandler {
	return &HealthHandler{schema: schema}
}

// ServeHTTP reports "ok", or "degraded" with 503 when the database cannot
// be read.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := dto.NewHealthResponse()
	status := http.StatusOK

	if h.schema != nil {
		version, err := h.schema.SchemaVersion()
		if err != nil {
			response.Status = "degraded"
			response.Database = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			response.Database = "ok"
			response.SchemaVersion = version
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
