package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(HTTPConfig{BaseURL: srv.URL + "/", Token: "secret", RetryMax: 2}, nil)
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{}, nil)
	assert.Error(t, err)
}

func TestHTTPClient_Transactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("end"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions":[{"id":"tx1","date":"2024-01-07T00:00:00Z","merchant_name":"Amazon","amount":"-19.99","category":"Shopping","description":"AMZN","is_split":false,"is_edited_by_tool":false,"pending":false}]}`))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txns, err := c.Transactions(context.Background(), start, start.AddDate(0, 0, 30))

	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "tx1", txns[0].ID)
	assert.Equal(t, "-19.99", txns[0].Amount.Plain())
	assert.True(t, txns[0].IsDebit())
}

func TestHTTPClient_Retag(t *testing.T) {
	var got retagRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions/tx1/retag", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.Retag(context.Background(), "tx1", "Toys", "Amazon.com: Widget", "Amazon order id: 111-1")

	require.NoError(t, err)
	assert.Equal(t, "Toys", got.Category)
	assert.Equal(t, "Amazon.com: Widget", got.Description)
	assert.Equal(t, "Amazon order id: 111-1", got.Notes)
}

func TestHTTPClient_Split(t *testing.T) {
	var got splitRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/tx2/split", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	subs := []plan.SubTransaction{
		{Amount: money.MustParse("-12.00"), Category: "Toys", Description: "Amazon.com: Twelve"},
		{Amount: money.MustParse("-8.00"), Category: "Books", Description: "Amazon.com: Eight"},
	}
	err := c.Split(context.Background(), "tx2", subs)

	require.NoError(t, err)
	require.Len(t, got.Splits, 2)
	assert.Equal(t, "-12.00", got.Splits[0].Amount.Plain())
	assert.Equal(t, "Books", got.Splits[1].Category)
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.Retag(context.Background(), "tx1", "Toys", "d", "n")

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPClient_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		err := c.Retag(context.Background(), "missing", "Toys", "d", "n")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("error body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"split does not sum to amount"}`))
		})
		err := c.Split(context.Background(), "tx1", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "split does not sum to amount")
	})

	t.Run("bad json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		})
		_, err := c.Transactions(context.Background(), time.Now(), time.Now())
		assert.Error(t, err)
	})
}
