package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/validator"
)

const cooperativeMessage = "Achat de produits agricoles via coopérative"

// PurchaseService certifies purchase slips issued to suppliers
type PurchaseService struct {
	client    Poster
	validator *validator.InvoiceValidator
	log       zerolog.Logger
}

func NewPurchaseService(client Poster, opts ...Option) *PurchaseService {
	o := newOptions(opts)
	return &PurchaseService{
		client:    client,
		validator: o.validator,
		log:       o.logger.With().Str("service", "purchases").Logger(),
	}
}

// Sign submits a purchase slip. Sale invoices are refused before any
// other rule is checked.
func (s *PurchaseService) Sign(ctx context.Context, inv *model.Invoice) (*model.Result, error) {
	const op = "PurchaseService.Sign"

	if inv != nil && inv.InvoiceType() != model.InvoiceTypePurchase {
		return nil, model.NewValidationError(map[string]string{
			"invoiceType": `Le type de facture doit être "purchase" pour les bordereaux d'achat`,
		})
	}
	if err := s.validator.Validate(inv); err != nil {
		s.log.Debug().Err(err).Str("op", op).Msg("purchase slip rejected locally")
		return nil, err
	}

	s.log.Info().Str("op", op).Int("items", len(inv.Items())).Msg("submitting purchase slip")

	res, err := submit(ctx, s.client, model.EndpointSignInvoice, inv.Payload(),
		"Erreur lors de la certification du bordereau d'achat", s.log)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("certification failed")
		return nil, err
	}

	s.log.Info().Str("op", op).Str("reference", res.Reference()).Msg("purchase slip certified")
	return res, nil
}

// NewPurchaseInvoice builds a purchase slip. payment defaults to cash and
// template to B2C.
func (s *PurchaseService) NewPurchaseInvoice(pointOfSale, establishment string, supplier model.Party, payment model.PaymentMethod, template model.Template) *model.Invoice {
	if payment == "" {
		payment = model.PaymentCash
	}
	if template == "" {
		template = model.TemplateB2C
	}
	return model.NewInvoice(model.InvoiceTypePurchase, payment, template, pointOfSale, establishment, supplier)
}

// NewB2BPurchaseInvoice builds a purchase slip from a registered supplier
func (s *PurchaseService) NewB2BPurchaseInvoice(pointOfSale, establishment string, supplier model.Party, supplierNcc string, payment model.PaymentMethod) *model.Invoice {
	if payment == "" {
		payment = model.PaymentCash
	}
	return model.NewInvoice(model.InvoiceTypePurchase, payment, model.TemplateB2B, pointOfSale, establishment, supplier).
		SetClientNcc(supplierNcc)
}

// NewCooperativePurchase builds a B2C purchase slip for farm produce bought
// through a cooperative. payment defaults to mobile money.
func (s *PurchaseService) NewCooperativePurchase(pointOfSale, establishment string, cooperative model.Party, payment model.PaymentMethod) *model.Invoice {
	if payment == "" {
		payment = model.PaymentMobileMoney
	}
	return s.NewPurchaseInvoice(pointOfSale, establishment, cooperative, payment, model.TemplateB2C).
		SetCommercialMessage(cooperativeMessage)
}
