package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/service"
	"github.com/prodestic/fne-sdk-go/internal/transport"
)

func signTwoLines(t *testing.T, c *transport.Client) *model.Result {
	t.Helper()
	svc := service.NewInvoiceService(c)
	inv := svc.NewSaleInvoice("Caisse 1", "Magasin", client, "", "").
		AddItem(model.NewItem("Clavier", 3, 15000, model.TaxTVA)).
		AddItem(model.NewItem("Souris", 2, 8000, model.TaxTVA))

	res, err := svc.Sign(context.Background(), inv)
	require.NoError(t, err)
	require.Len(t, res.Items(), 2)
	return res
}

func TestRefundService_CreateFullRefund(t *testing.T) {
	c, sb := newSandboxClient(t, testKey)
	signed := signTwoLines(t, c)
	svc := service.NewRefundService(c)

	res, err := svc.CreateFullRefund(context.Background(), signed.InvoiceID(), signed.Items())
	require.NoError(t, err)

	assert.True(t, res.IsSuccess())
	assert.Equal(t, signed.InvoiceID(), res.Invoice()["parentId"])
	assert.Equal(t, signed.ItemQuantities(), res.ItemQuantities())
	assert.Equal(t, 98, sb.Balance())

	// nothing left to refund
	_, err = svc.CreateFullRefund(context.Background(), signed.InvoiceID(), signed.Items())
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("item_0_quantity"))
}

func TestRefundService_CreatePartialRefund(t *testing.T) {
	c, _ := newSandboxClient(t, testKey)
	signed := signTwoLines(t, c)
	svc := service.NewRefundService(c)

	first := signed.Items()[0].ID
	res, err := svc.CreatePartialRefund(context.Background(), signed.InvoiceID(), map[string]float64{first: 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{first: 1}, res.ItemQuantities())
}

func TestRefundService_PartialRefundOrdersItems(t *testing.T) {
	var got model.RefundPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/external/invoices/inv-1/refund", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reference":"R1","invoice":{"id":"cn-1"}}`))
	}))
	defer ts.Close()

	svc := service.NewRefundService(transport.NewClient(transport.WithBaseURL(ts.URL)))
	res, err := svc.CreatePartialRefund(context.Background(), "inv-1", map[string]float64{"c": 1, "a": 2, "b": 0.5})
	require.NoError(t, err)
	assert.Equal(t, "R1", res.Reference())

	require.Len(t, got.Items, 3)
	assert.Equal(t, "a", got.Items[0].ID)
	assert.Equal(t, "b", got.Items[1].ID)
	assert.Equal(t, "c", got.Items[2].ID)
	assert.Equal(t, 0.5, got.Items[1].Quantity)
}

func TestRefundService_LocalValidationSendsNothing(t *testing.T) {
	tests := []struct {
		name      string
		invoiceID string
		req       *model.RefundRequest
		field     string
	}{
		{"empty request", "inv-1", model.NewRefundRequest(), "items"},
		{"nil request", "inv-1", nil, "items"},
		{"missing invoice id", " ", model.NewRefundRequest().AddItem("a", 1), "invoiceId"},
		{"zero quantity", "inv-1", model.NewRefundRequest().AddItem("a", 0), "item_0_quantity"},
		{"negative quantity", "inv-1", model.NewRefundRequest().AddItem("a", 1).AddItem("b", -2), "item_1_quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poster := &countingPoster{}
			svc := service.NewRefundService(poster)

			_, err := svc.CreateRefund(context.Background(), tt.invoiceID, tt.req)

			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.True(t, ve.Has(tt.field), "errors: %v", ve.Errors)
			assert.Equal(t, int32(0), poster.calls.Load())
		})
	}
}

func TestRefundService_UnknownInvoice(t *testing.T) {
	c, _ := newSandboxClient(t, testKey)
	svc := service.NewRefundService(c)

	_, err := svc.CreatePartialRefund(context.Background(), "missing", map[string]float64{"a": 1})

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Facture introuvable", apiErr.Message)
}

func TestRefundService_FullRefundSkipsLinesWithoutID(t *testing.T) {
	poster := &countingPoster{}
	svc := service.NewRefundService(poster)

	_, err := svc.CreateFullRefund(context.Background(), "inv-1", []model.CertifiedItem{{Quantity: 1}})

	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("items"))
	assert.Equal(t, int32(0), poster.calls.Load())
}

func TestRefundEndpoint(t *testing.T) {
	assert.Equal(t, "/external/invoices/abc/refund", service.RefundEndpoint("abc"))
	assert.Equal(t, "/external/invoices/a%2Fb/refund", service.RefundEndpoint("a/b"))
}
