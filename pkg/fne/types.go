// Package fne is the public API for certifying documents with the Ivorian
// FNE (Facture Normalisée Électronique) service.
//
// Example usage:
//
//	client := fne.NewTest(os.Getenv("FNE_API_KEY"))
//	inv := client.Invoices().NewSaleInvoice("Caisse 1", "Magasin", fne.Party{
//	    CompanyName: "Jean Dupont",
//	    Phone:       "0709123456",
//	    Email:       "jean.dupont@example.ci",
//	}, "", "").AddItem(fne.NewItem("Ordinateur portable", 1, 650000, fne.TaxTVA))
//
//	res, err := client.Invoices().Sign(ctx, inv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Reference(), res.VerificationURL())
package fne

import (
	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/service"
)

// Re-export core types for public API
type (
	Invoice       = model.Invoice
	Item          = model.Item
	Party         = model.Party
	CustomTax     = model.CustomTax
	InvoiceTotals = model.InvoiceTotals
	RefundRequest = model.RefundRequest
	Result        = model.Result
	CertifiedItem = model.CertifiedItem
	InvoiceType   = model.InvoiceType
	PaymentMethod = model.PaymentMethod
	Template      = model.Template
	TaxType       = model.TaxType
	Currency      = model.Currency

	InvoiceService  = service.InvoiceService
	PurchaseService = service.PurchaseService
	RefundService   = service.RefundService
)

// Re-export error types
type (
	ValidationError     = model.ValidationError
	AuthenticationError = model.AuthenticationError
	NetworkError        = model.NetworkError
	APIError            = model.APIError
	ErrorKind           = model.ErrorKind
)

// Re-export error sentinels and kinds
var (
	ErrBadRequest          = model.ErrBadRequest
	ErrUnauthorized        = model.ErrUnauthorized
	ErrInternalServer      = model.ErrInternalServer
	ErrNoVerificationToken = model.ErrNoVerificationToken
)

const (
	KindBadRequest     = model.KindBadRequest
	KindUnauthorized   = model.KindUnauthorized
	KindInternalServer = model.KindInternalServer
	KindAPI            = model.KindAPI
)

// Re-export enumerations
const (
	InvoiceTypeSale     = model.InvoiceTypeSale
	InvoiceTypePurchase = model.InvoiceTypePurchase

	PaymentCash        = model.PaymentCash
	PaymentCard        = model.PaymentCard
	PaymentCheck       = model.PaymentCheck
	PaymentMobileMoney = model.PaymentMobileMoney
	PaymentTransfer    = model.PaymentTransfer
	PaymentDeferred    = model.PaymentDeferred

	TemplateB2B = model.TemplateB2B
	TemplateB2C = model.TemplateB2C
	TemplateB2F = model.TemplateB2F
	TemplateB2G = model.TemplateB2G

	TaxTVA  = model.TaxTVA
	TaxTVAB = model.TaxTVAB
	TaxTVAC = model.TaxTVAC
	TaxTVAD = model.TaxTVAD

	CurrencyXOF = model.CurrencyXOF
	CurrencyUSD = model.CurrencyUSD
	CurrencyEUR = model.CurrencyEUR
	CurrencyGBP = model.CurrencyGBP

	TestBaseURL = model.TestBaseURL
)

// NewItem creates an invoice line
func NewItem(description string, quantity, amount float64, taxes ...TaxType) *Item {
	return model.NewItem(description, quantity, amount, taxes...)
}

// NewRefundRequest creates an empty credit note request
func NewRefundRequest() *RefundRequest {
	return model.NewRefundRequest()
}

// ExtractToken returns the verification UUID of a certified document URL
func ExtractToken(verificationURL string) (string, error) {
	return model.ExtractToken(verificationURL)
}

// BuildVerificationURL builds the public verification page of a token
func BuildVerificationURL(token string, testMode bool, productionURL string) string {
	return model.BuildVerificationURL(token, testMode, productionURL)
}
