package sandbox_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/sandbox"
)

const testKey = "sandbox-api-key-0123456789"

func newTestServer() *sandbox.Server {
	config := &sandbox.Config{
		Address:          ":0",
		APIKey:           testKey,
		Stickers:         3,
		WarningThreshold: 2,
		Now:              func() time.Time { return time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC) },
	}
	return sandbox.NewServer(config)
}

func newInvoice() *model.Invoice {
	return model.NewInvoice(
		model.InvoiceTypeSale,
		model.PaymentCash,
		model.TemplateB2C,
		"Caisse 1",
		"Magasin",
		model.Party{CompanyName: "Jean Dupont", Phone: "0709123456", Email: "jean.dupont@example.ci"},
	).AddItem(model.NewItem("Ordinateur portable", 2, 650000, model.TaxTVA))
}

func do(t *testing.T, srv *sandbox.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testKey)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	decode(t, w, &response)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "2025-01-14T10:00:00Z", response["time"])
	assert.Equal(t, 3.0, response["balance_sticker"])
}

func TestSignEndpoint(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, http.MethodPost, "/external/invoices/sign", newInvoice())
	require.Equal(t, http.StatusOK, w.Code)

	var response sandbox.SignResponse
	decode(t, w, &response)

	assert.Equal(t, sandbox.DefaultNCC, response.NCC)
	assert.Equal(t, "9606123E25000000001", response.Reference)
	assert.Equal(t, 2, response.BalanceSticker)
	assert.False(t, response.Warning)
	assert.Equal(t, int64(1300000), response.Invoice.TotalHT)
	assert.Equal(t, int64(234000), response.Invoice.TotalVAT)
	assert.Equal(t, int64(1534000), response.Invoice.TotalTTC)
	require.Len(t, response.Invoice.Items, 1)
	assert.NotEmpty(t, response.Invoice.Items[0].ID)
	assert.Equal(t, 2.0, response.Invoice.Items[0].Quantity)

	token, err := model.ExtractToken(response.Token)
	require.NoError(t, err)
	assert.Len(t, token, 36)
}

func TestSignEndpoint_TestEnvironmentPrefix(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, http.MethodPost, "/ws/external/invoices/sign", newInvoice())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignEndpoint_StickerWarning(t *testing.T) {
	srv := newTestServer()

	var last sandbox.SignResponse
	for i := 0; i < 2; i++ {
		w := do(t, srv, http.MethodPost, "/external/invoices/sign", newInvoice())
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &last)
	}
	assert.Equal(t, 1, last.BalanceSticker)
	assert.True(t, last.Warning)
	assert.Equal(t, "9606123E25000000002", last.Reference)

	w := do(t, srv, http.MethodPost, "/external/invoices/sign", newInvoice())
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodPost, "/external/invoices/sign", newInvoice())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var refused sandbox.ErrorResponse
	decode(t, w, &refused)
	assert.Equal(t, "Stock de stickers épuisé", refused.Message)
	assert.Equal(t, "STICKERS", refused.Error)
	assert.Equal(t, 0, srv.Balance())
}

func TestSignEndpoint_Unauthorized(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic " + testKey},
		{"wrong key", "Bearer another-key-0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/external/invoices/sign", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var response sandbox.ErrorResponse
			decode(t, w, &response)
			assert.NotEmpty(t, response.Message)
		})
	}
	assert.Equal(t, 3, srv.Balance())
}

func TestSignEndpoint_EmptyBody(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, http.MethodPost, "/external/invoices/sign", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignEndpoint_InvalidJSON(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, http.MethodPost, "/external/invoices/sign", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignEndpoint_ValidationErrors(t *testing.T) {
	srv := newTestServer()

	inv := model.NewInvoice(model.InvoiceTypeSale, model.PaymentCash, model.TemplateB2B,
		"Caisse 1", "Magasin", model.Party{CompanyName: "ACME", Phone: "0709123456", Email: "acme@example.ci"}).
		AddItem(model.NewItem("Service", 1, 1000, model.TaxTVA))

	w := do(t, srv, http.MethodPost, "/external/invoices/sign", inv)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var response sandbox.ErrorResponse
	decode(t, w, &response)
	assert.Contains(t, response.Errors, "clientNcc")
	assert.Equal(t, 3, srv.Balance())
}

func TestRefundEndpoint(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, http.MethodPost, "/external/invoices/sign", newInvoice())
	require.Equal(t, http.StatusOK, w.Code)
	var signed sandbox.SignResponse
	decode(t, w, &signed)
	itemID := signed.Invoice.Items[0].ID

	refund := model.NewRefundRequest().AddItem(itemID, 1).Payload()
	w = do(t, srv, http.MethodPost, "/external/invoices/"+signed.Invoice.ID+"/refund", refund)
	require.Equal(t, http.StatusOK, w.Code)

	var credit sandbox.SignResponse
	decode(t, w, &credit)
	assert.Equal(t, "refund", credit.Invoice.Type)
	assert.Equal(t, signed.Invoice.ID, credit.Invoice.ParentID)
	assert.Equal(t, 1, credit.BalanceSticker)

	// second unit is still refundable, a third is not
	w = do(t, srv, http.MethodPost, "/external/invoices/"+signed.Invoice.ID+"/refund",
		model.NewRefundRequest().AddItem(itemID, 2).Payload())
	require.Equal(t, http.StatusBadRequest, w.Code)
	var rejected sandbox.ErrorResponse
	decode(t, w, &rejected)
	assert.Contains(t, rejected.Errors, "item_0_quantity")

	w = do(t, srv, http.MethodPost, "/external/invoices/"+signed.Invoice.ID+"/refund",
		model.NewRefundRequest().AddItem(itemID, 1).Payload())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefundEndpoint_Errors(t *testing.T) {
	srv := newTestServer()

	w := do(t, srv, http.MethodPost, "/external/invoices/sign", newInvoice())
	require.Equal(t, http.StatusOK, w.Code)
	var signed sandbox.SignResponse
	decode(t, w, &signed)

	tests := []struct {
		name     string
		id       string
		body     any
		status   int
		errorKey string
	}{
		{
			name:   "unknown invoice",
			id:     "00000000-0000-0000-0000-000000000000",
			body:   model.NewRefundRequest().AddItem("x", 1).Payload(),
			status: http.StatusNotFound,
		},
		{
			name:     "unknown item",
			id:       signed.Invoice.ID,
			body:     model.NewRefundRequest().AddItem("x", 1).Payload(),
			status:   http.StatusBadRequest,
			errorKey: "item_0_id",
		},
		{
			name:     "no items",
			id:       signed.Invoice.ID,
			body:     model.NewRefundRequest().Payload(),
			status:   http.StatusBadRequest,
			errorKey: "items",
		},
		{
			name:     "zero quantity",
			id:       signed.Invoice.ID,
			body:     model.NewRefundRequest().AddItem(signed.Invoice.Items[0].ID, 0).Payload(),
			status:   http.StatusBadRequest,
			errorKey: "item_0_quantity",
		},
		{
			name:   "invalid json",
			id:     signed.Invoice.ID,
			body:   "[",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/external/invoices/"+tt.id+"/refund", tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.errorKey != "" {
				var response sandbox.ErrorResponse
				decode(t, w, &response)
				assert.Contains(t, response.Errors, tt.errorKey)
			}
		})
	}
	assert.Equal(t, 2, srv.Balance())
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "sandbox_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := sandbox.NewServer(&sandbox.Config{Metrics: reg})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sandbox_test_total 1")

	w = httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func BenchmarkSign(b *testing.B) {
	srv := sandbox.NewServer(&sandbox.Config{Stickers: b.N + 1})
	data, _ := json.Marshal(newInvoice())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/external/invoices/sign", bytes.NewReader(data))
		req.Header.Set("Authorization", "Bearer any")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
	}
}
