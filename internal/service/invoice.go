package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/validator"
)

// InvoiceService certifies sale invoices
type InvoiceService struct {
	client    Poster
	validator *validator.InvoiceValidator
	log       zerolog.Logger
}

func NewInvoiceService(client Poster, opts ...Option) *InvoiceService {
	o := newOptions(opts)
	return &InvoiceService{
		client:    client,
		validator: o.validator,
		log:       o.logger.With().Str("service", "invoices").Logger(),
	}
}

// Sign validates the invoice and submits it for certification
func (s *InvoiceService) Sign(ctx context.Context, inv *model.Invoice) (*model.Result, error) {
	const op = "InvoiceService.Sign"

	if err := s.validator.Validate(inv); err != nil {
		s.log.Debug().Err(err).Str("op", op).Msg("invoice rejected locally")
		return nil, err
	}

	s.log.Info().
		Str("op", op).
		Str("template", string(inv.Template())).
		Int("items", len(inv.Items())).
		Msg("submitting invoice")

	res, err := submit(ctx, s.client, model.EndpointSignInvoice, inv.Payload(),
		"Erreur lors de la certification de la facture", s.log)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("certification failed")
		return nil, err
	}

	s.log.Info().
		Str("op", op).
		Str("reference", res.Reference()).
		Int("balance_sticker", res.BalanceSticker()).
		Bool("warning", res.HasWarning()).
		Msg("invoice certified")
	return res, nil
}

// NewSaleInvoice builds a sale invoice. payment defaults to cash and
// template to B2C.
func (s *InvoiceService) NewSaleInvoice(pointOfSale, establishment string, client model.Party, payment model.PaymentMethod, template model.Template) *model.Invoice {
	if payment == "" {
		payment = model.PaymentCash
	}
	if template == "" {
		template = model.TemplateB2C
	}
	return model.NewInvoice(model.InvoiceTypeSale, payment, template, pointOfSale, establishment, client)
}

// NewB2BInvoice builds a sale invoice to a registered business.
// payment defaults to transfer.
func (s *InvoiceService) NewB2BInvoice(pointOfSale, establishment string, client model.Party, clientNcc string, payment model.PaymentMethod) *model.Invoice {
	if payment == "" {
		payment = model.PaymentTransfer
	}
	return model.NewInvoice(model.InvoiceTypeSale, payment, model.TemplateB2B, pointOfSale, establishment, client).
		SetClientNcc(clientNcc)
}

// NewB2FInvoice builds a sale invoice to a foreign client billed in
// currency at rate XOF per unit. payment defaults to transfer.
func (s *InvoiceService) NewB2FInvoice(pointOfSale, establishment string, client model.Party, currency model.Currency, rate float64, payment model.PaymentMethod) *model.Invoice {
	if payment == "" {
		payment = model.PaymentTransfer
	}
	return model.NewInvoice(model.InvoiceTypeSale, payment, model.TemplateB2F, pointOfSale, establishment, client).
		SetForeignCurrency(currency, rate)
}

// NewInvoiceFromRNE builds a B2C invoice linked to a normalized receipt.
// payment defaults to cash.
func (s *InvoiceService) NewInvoiceFromRNE(rne, pointOfSale, establishment string, client model.Party, payment model.PaymentMethod) *model.Invoice {
	if payment == "" {
		payment = model.PaymentCash
	}
	return model.NewInvoice(model.InvoiceTypeSale, payment, model.TemplateB2C, pointOfSale, establishment, client).
		SetRne(true, rne)
}
