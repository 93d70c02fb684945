package model

import "github.com/shopspring/decimal"

// InvoiceType distinguishes sales invoices from purchase slips
type InvoiceType string

const (
	InvoiceTypeSale     InvoiceType = "sale"
	InvoiceTypePurchase InvoiceType = "purchase"
)

// Valid reports whether t is a known invoice type
func (t InvoiceType) Valid() bool {
	return t == InvoiceTypeSale || t == InvoiceTypePurchase
}

// AllInvoiceTypes lists the accepted invoice types
func AllInvoiceTypes() []InvoiceType {
	return []InvoiceType{InvoiceTypeSale, InvoiceTypePurchase}
}

// PaymentMethod is the settlement method declared on the invoice
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentCheck       PaymentMethod = "check"
	PaymentMobileMoney PaymentMethod = "mobile-money"
	PaymentTransfer    PaymentMethod = "transfer"
	PaymentDeferred    PaymentMethod = "deferred"
)

// AllPaymentMethods lists the accepted payment methods
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentCash,
		PaymentCard,
		PaymentCheck,
		PaymentMobileMoney,
		PaymentTransfer,
		PaymentDeferred,
	}
}

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	for _, v := range AllPaymentMethods() {
		if m == v {
			return true
		}
	}
	return false
}

// Template classifies the counterparty of the invoice
type Template string

const (
	TemplateB2B Template = "B2B" // business, client NCC required
	TemplateB2C Template = "B2C" // consumer
	TemplateB2F Template = "B2F" // foreign client, exchange rate required
	TemplateB2G Template = "B2G" // government
)

// AllTemplates lists the accepted templates
func AllTemplates() []Template {
	return []Template{TemplateB2B, TemplateB2C, TemplateB2F, TemplateB2G}
}

// Valid reports whether t is a known template
func (t Template) Valid() bool {
	for _, v := range AllTemplates() {
		if t == v {
			return true
		}
	}
	return false
}

// TaxType is a VAT category code
type TaxType string

const (
	TaxTVA  TaxType = "TVA"  // normal rate, 18%
	TaxTVAB TaxType = "TVAB" // reduced rate, 9%
	TaxTVAC TaxType = "TVAC" // conventional exemption, 0%
	TaxTVAD TaxType = "TVAD" // legal exemption, 0%
)

var taxRates = map[TaxType]int64{
	TaxTVA:  18,
	TaxTVAB: 9,
	TaxTVAC: 0,
	TaxTVAD: 0,
}

// AllTaxTypes lists the accepted tax codes
func AllTaxTypes() []TaxType {
	return []TaxType{TaxTVA, TaxTVAB, TaxTVAC, TaxTVAD}
}

// Valid reports whether t is a known tax code
func (t TaxType) Valid() bool {
	_, ok := taxRates[t]
	return ok
}

// Rate returns the statutory rate in percent, zero for unknown codes
func (t TaxType) Rate() decimal.Decimal {
	return decimal.NewFromInt(taxRates[t])
}

// Currency is an ISO 4217 code accepted for foreign-currency invoices
type Currency string

const (
	CurrencyXOF Currency = "XOF"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// AllCurrencies lists the accepted currencies
func AllCurrencies() []Currency {
	return []Currency{CurrencyXOF, CurrencyUSD, CurrencyEUR, CurrencyGBP}
}

// Valid reports whether c is an accepted currency
func (c Currency) Valid() bool {
	for _, v := range AllCurrencies() {
		if c == v {
			return true
		}
	}
	return false
}

// Service base URLs and endpoints
const (
	TestBaseURL = "http://54.247.95.108/ws"

	// TestVerificationBaseURL hosts the public verification pages of the test environment
	TestVerificationBaseURL = "http://54.247.95.108"

	EndpointSignInvoice   = "/external/invoices/sign"
	EndpointRefundInvoice = "/external/invoices/{id}/refund"
)
