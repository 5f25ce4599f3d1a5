package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eshaffer321/amazon-tagger/internal/api/dto"
	"github.com/eshaffer321/amazon-tagger/internal/api/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSchema struct {
	version int64
	err     error
}

func (f fakeSchema) SchemaVersion() (int64, error) { return f.version, f.err }

func serveHealth(t *testing.T, handler *handlers.HealthHandler) (*httptest.ResponseRecorder, dto.HealthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var response dto.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	return rec, response
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	t.Run("returns 200 OK without a database check", func(t *testing.T) {
		rec, response := serveHealth(t, handlers.NewHealthHandler(nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "ok", response.Status)
		assert.NotEmpty(t, response.Timestamp)
		assert.Empty(t, response.Database)
	})

	t.Run("reports the schema version", func(t *testing.T) {
		rec, response := serveHealth(t, handlers.NewHealthHandler(fakeSchema{version: 5}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", response.Database)
		assert.Equal(t, int64(5), response.SchemaVersion)
	})

	t.Run("returns 503 when the database is unreadable", func(t *testing.T) {
		rec, response := serveHealth(t, handlers.NewHealthHandler(fakeSchema{err: errors.New("database is locked")}))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "database is locked", response.Database)
	})
}
