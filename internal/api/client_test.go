package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posbridge/receipt-interceptor/internal/common"
	"github.com/posbridge/receipt-interceptor/internal/receipt"
)

func TestSend_HeadersAndBody(t *testing.T) {
	var got *http.Request
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"received"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret-key", "T-ABCD1234", time.Second, nil)
	resp, err := c.Send(context.Background(), "/receipt", map[string]string{"hello": "world"}, http.MethodPost)
	require.NoError(t, err)

	assert.Equal(t, "received", resp["status"])
	assert.Equal(t, "/receipt", got.URL.Path)
	assert.Equal(t, "Bearer secret-key", got.Header.Get("Authorization"))
	assert.Equal(t, "T-ABCD1234", got.Header.Get("X-Terminal-ID"))
	assert.Equal(t, common.Version, got.Header.Get("X-Interceptor-Version"))
	assert.Equal(t, "ReceiptInterceptor/"+common.Version, got.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "world", body["hello"])
}

func TestSend_2xxWithUnparsableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created, thanks"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", "T-1", time.Second, nil)
	resp, err := c.Send(context.Background(), "/receipt", nil, http.MethodPost)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok"}, resp)
}

func TestSend_Non2xxIsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", "T-1", time.Second, nil)
	_, err := c.Send(context.Background(), "/receipt", nil, http.MethodPost)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "boom")
}

func TestSend_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", "T-1", 50*time.Millisecond, nil)
	_, err := c.Send(context.Background(), "/health", nil, http.MethodGet)
	require.Error(t, err)

	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestSend_NoEndpointConfigured(t *testing.T) {
	c := NewClient("", "", "T-1", time.Second, nil)
	_, err := c.Send(context.Background(), "/health", nil, http.MethodGet)
	assert.ErrorIs(t, err, common.ErrConfigMissing)
	assert.False(t, c.Configured())
}

func TestSend_TrailingSlashEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "", "T-1", time.Second, nil)
	require.NoError(t, c.Health(context.Background()))
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/register", r.URL.Path)
		assert.Equal(t, "T-ABCD1234", req["terminalId"])
		assert.NotEmpty(t, req["hostname"])
		assert.NotEmpty(t, req["platform"])
		assert.NotEmpty(t, req["version"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"apiKey":     "issued-key",
			"locationId": "LOC-42",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", "T-ABCD1234", time.Second, nil)
	resp, err := c.Register(context.Background(), RegistrationRequest{
		TerminalID: "T-ABCD1234",
		Hostname:   "till-7",
		Platform:   "windows",
		Version:    common.Version,
		MACAddress: "aa:bb:cc:dd:ee:ff",
	})
	require.NoError(t, err)
	assert.Equal(t, "issued-key", resp.APIKey)
	assert.Equal(t, "LOC-42", resp.LocationID)
}

func TestSetAPIKey(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, "old", "T-1", time.Second, nil)
	c.SetAPIKey("new")
	require.NoError(t, c.Health(context.Background()))
	assert.Equal(t, "Bearer new", auth)
}

func TestSubmitReceipt(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "stored"})
	}))
	defer server.Close()

	rec := &receipt.Receipt{
		ReceiptID: "5001",
		Items:     []receipt.Item{{Name: "Juice", Quantity: 2, Price: 10}},
		Total:     27,
		ItemCount: 1,
	}
	rec.Stamp("T-1", "LOC-1")

	c := NewClient(server.URL, "k", "T-1", time.Second, nil)
	resp, err := c.SubmitReceipt(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "stored", resp["status"])
	assert.Equal(t, "5001", body["receiptId"])
	assert.Equal(t, "T-1", body["terminalId"])
	assert.Equal(t, float64(27), body["total"])
}
