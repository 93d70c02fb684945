package service

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/validator"
)

// RefundService issues credit notes against certified invoices
type RefundService struct {
	client Poster
	log    zerolog.Logger
}

func NewRefundService(client Poster, opts ...Option) *RefundService {
	o := newOptions(opts)
	return &RefundService{
		client: client,
		log:    o.logger.With().Str("service", "refunds").Logger(),
	}
}

func (s *RefundService) NewRefundRequest() *model.RefundRequest {
	return model.NewRefundRequest()
}

// CreateRefund submits req against the invoice identified by invoiceID.
// Nothing is sent when the request is empty or has a non-positive quantity.
func (s *RefundService) CreateRefund(ctx context.Context, invoiceID string, req *model.RefundRequest) (*model.Result, error) {
	const op = "RefundService.CreateRefund"

	if err := validator.ValidateRefund(invoiceID, req); err != nil {
		s.log.Debug().Err(err).Str("op", op).Msg("refund rejected locally")
		return nil, err
	}

	s.log.Info().Str("op", op).Str("invoice_id", invoiceID).Int("items", req.Len()).Msg("submitting refund")

	res, err := submit(ctx, s.client, RefundEndpoint(invoiceID), req.Payload(),
		"Erreur lors de la création de l'avoir", s.log)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Str("invoice_id", invoiceID).Msg("refund failed")
		return nil, err
	}

	s.log.Info().Str("op", op).Str("reference", res.Reference()).Msg("refund certified")
	return res, nil
}

// CreateFullRefund refunds every certified line at its full quantity.
// Lines without an id are skipped.
func (s *RefundService) CreateFullRefund(ctx context.Context, invoiceID string, items []model.CertifiedItem) (*model.Result, error) {
	req := model.NewRefundRequest()
	for _, it := range items {
		if it.ID != "" {
			req.AddItem(it.ID, it.Quantity)
		}
	}
	return s.CreateRefund(ctx, invoiceID, req)
}

// CreatePartialRefund refunds the given quantity per item id. Lines are
// sent in item id order.
func (s *RefundService) CreatePartialRefund(ctx context.Context, invoiceID string, quantities map[string]float64) (*model.Result, error) {
	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	req := model.NewRefundRequest()
	for _, id := range ids {
		req.AddItem(id, quantities[id])
	}
	return s.CreateRefund(ctx, invoiceID, req)
}

// RefundEndpoint returns the refund path of an invoice
func RefundEndpoint(invoiceID string) string {
	return strings.Replace(model.EndpointRefundInvoice, "{id}", url.PathEscape(invoiceID), 1)
}
