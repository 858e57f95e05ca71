// Package api is the authenticated transport to the remote collection
// endpoint. Health probe, registration and receipt submission all share the
// same contract: JSON in, JSON out, bearer auth, bounded timeout.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/posbridge/receipt-interceptor/internal/common"
	"github.com/posbridge/receipt-interceptor/internal/receipt"
)

// Client sends authenticated JSON requests to the collection API.
type Client struct {
	http       *http.Client
	baseURL    string
	terminalID string
	logger     *slog.Logger

	mu     sync.RWMutex
	apiKey string
}

// NewClient builds a Client for the given endpoint. A zero timeout falls back
// to 5 seconds.
func NewClient(endpoint, apiKey, terminalID string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(endpoint, "/"),
		terminalID: terminalID,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// SetAPIKey swaps the bearer credential, used after auto-registration.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

// Configured reports whether an endpoint has been set at all.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Send issues a request to path and decodes the JSON response. Non-GET
// requests carry payload as a JSON body. A 2xx with an unparsable body
// resolves to {"status":"ok"}; a non-2xx is an *HTTPError; no response within
// the timeout is a *TimeoutError.
func (c *Client) Send(ctx context.Context, path string, payload any, method string) (map[string]any, error) {
	if c.baseURL == "" {
		return nil, common.ErrConfigMissing
	}

	reqID := uuid.New().String()
	start := time.Now()

	var body io.Reader
	var contentLen int
	if method != http.MethodGet && payload != nil {
		bs, err := json.Marshal(payload)
		if err != nil {
			c.logger.Error("api.encode_error", "req_id", reqID, "error", err)
			return nil, common.WrapError(err, "encode json")
		}
		body = bytes.NewReader(bs)
		contentLen = len(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		c.logger.Error("api.build_request_error", "req_id", reqID, "error", err)
		return nil, common.WrapError(err, "build request")
	}

	c.mu.RLock()
	key := c.apiKey
	c.mu.RUnlock()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("X-Terminal-ID", c.terminalID)
	req.Header.Set("X-Interceptor-Version", common.Version)
	req.Header.Set("User-Agent", "ReceiptInterceptor/"+common.Version)

	c.logger.Debug("api.request",
		"req_id", reqID,
		"method", method,
		"path", path,
		"content_length", contentLen,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("api.timeout", "req_id", reqID, "path", path, "elapsed_ms", time.Since(start).Milliseconds())
			return nil, &TimeoutError{Err: err}
		}
		c.logger.Error("api.send_error", "req_id", reqID, "path", path, "error", err)
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("api.response_body_close_error", "req_id", reqID, "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Debug("api.response",
		"req_id", reqID,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]any{"status": "ok"}, nil
	}
	return decoded, nil
}

// SubmitReceipt delivers one parsed receipt.
func (c *Client) SubmitReceipt(ctx context.Context, r *receipt.Receipt) (map[string]any, error) {
	return c.Send(ctx, "/receipt", r, http.MethodPost)
}

// Health probes the remote endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.Send(ctx, "/health", nil, http.MethodGet)
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Timeout()
	}
	return false
}
