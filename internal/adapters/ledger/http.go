package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
)

// HTTPConfig configures the REST ledger client
type HTTPConfig struct {
	BaseURL  string
	Token    string
	RetryMax int
	Timeout  time.Duration
}

// HTTPClient talks to a ledger service over REST:
//
//	GET  /transactions?start=2024-01-01&end=2024-01-31
//	POST /transactions/{id}/retag  {"category", "description", "notes"}
//	POST /transactions/{id}/split  {"splits": [...]}
//
// Requests are retried on connection errors, 429 and 5xx responses.
type HTTPClient struct {
	baseURL *url.URL
	token   string
	client  *retryablehttp.Client
	logger  *slog.Logger
}

// Compile-time check that HTTPClient implements Ledger
var _ Ledger = (*HTTPClient)(nil)

// NewHTTPClient creates a REST ledger client
func NewHTTPClient(cfg HTTPConfig, logger *slog.Logger) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ledger base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ledger base URL: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = logger.With(slog.String("component", "ledger-http"))
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}

	return &HTTPClient{
		baseURL: base,
		token:   cfg.Token,
		client:  rc,
		logger:  logger,
	}, nil
}

type transactionsResponse struct {
	Transactions []model.LedgerTransaction `json:"transactions"`
}

type retagRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

type splitRequest struct {
	Splits []plan.SubTransaction `json:"splits"`
}

// Transactions fetches the ledger snapshot for a date range
func (c *HTTPClient) Transactions(ctx context.Context, start, end time.Time) ([]model.LedgerTransaction, error) {
	q := url.Values{}
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))

	var out transactionsResponse
	if err := c.do(ctx, http.MethodGet, "/transactions?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	c.logger.Debug("fetched ledger transactions", slog.Int("count", len(out.Transactions)))
	return out.Transactions, nil
}

// Retag updates one transaction in place
func (c *HTTPClient) Retag(ctx context.Context, id, category, description, notes string) error {
	body := retagRequest{Category: category, Description: description, Notes: notes}
	return c.do(ctx, http.MethodPost, "/transactions/"+url.PathEscape(id)+"/retag", body, nil)
}

// Split replaces one transaction with its split lines
func (c *HTTPClient) Split(ctx context.Context, id string, subs []plan.SubTransaction) error {
	return c.do(ctx, http.MethodPost, "/transactions/"+url.PathEscape(id)+"/split", splitRequest{Splits: subs}, nil)
}

// apiError is the error body returned by the ledger service
type apiError struct {
	Error string `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var reqBody interface{}
	if payload != nil {
		reqBody = payload
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return model.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("ledger returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("ledger returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
