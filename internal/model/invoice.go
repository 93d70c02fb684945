package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	money "github.com/prodestic/fne-sdk-go/internal/decimal"
)

// Invoice is a sale invoice or purchase slip awaiting certification.
// Fields change only through the setters; services validate it on every
// submission.
type Invoice struct {
	invoiceType       InvoiceType
	paymentMethod     PaymentMethod
	template          Template
	pointOfSale       string
	establishment     string
	clientCompanyName string
	clientPhone       string
	clientEmail       string

	clientNcc           *string
	clientSellerName    *string
	commercialMessage   *string
	footer              *string
	foreignCurrency     *Currency
	foreignCurrencyRate decimal.Decimal
	isRne               bool
	rne                 *string
	discount            decimal.Decimal
	customTaxes         []CustomTax
	items               []*Item
	nonFinite           nonFinite
}

// Party identifies the invoice counterparty
type Party struct {
	CompanyName string
	Phone       string
	Email       string
}

// NewInvoice creates an invoice with its mandatory fields
func NewInvoice(
	invoiceType InvoiceType,
	paymentMethod PaymentMethod,
	template Template,
	pointOfSale string,
	establishment string,
	client Party,
) *Invoice {
	return &Invoice{
		invoiceType:       invoiceType,
		paymentMethod:     paymentMethod,
		template:          template,
		pointOfSale:       pointOfSale,
		establishment:     establishment,
		clientCompanyName: client.CompanyName,
		clientPhone:       client.Phone,
		clientEmail:       client.Email,
	}
}

func (inv *Invoice) SetClientNcc(ncc string) *Invoice {
	inv.clientNcc = &ncc
	return inv
}

func (inv *Invoice) SetClientSellerName(name string) *Invoice {
	inv.clientSellerName = &name
	return inv
}

func (inv *Invoice) SetCommercialMessage(message string) *Invoice {
	inv.commercialMessage = &message
	return inv
}

func (inv *Invoice) SetFooter(footer string) *Invoice {
	inv.footer = &footer
	return inv
}

// SetForeignCurrency sets the invoice currency and its rate against XOF
func (inv *Invoice) SetForeignCurrency(currency Currency, rate float64) *Invoice {
	inv.foreignCurrency = &currency
	inv.foreignCurrencyRate = inv.nonFinite.set("foreignCurrencyRate", rate)
	return inv
}

// SetRne links the invoice to a normalized receipt
func (inv *Invoice) SetRne(isRne bool, rne string) *Invoice {
	inv.isRne = isRne
	if rne == "" {
		inv.rne = nil
	} else {
		inv.rne = &rne
	}
	return inv
}

// SetDiscount sets the global discount in percent
func (inv *Invoice) SetDiscount(percent float64) *Invoice {
	inv.discount = inv.nonFinite.set("discount", percent)
	return inv
}

func (inv *Invoice) AddItem(item *Item) *Invoice {
	inv.items = append(inv.items, item)
	return inv
}

func (inv *Invoice) AddCustomTax(name string, amount float64) *Invoice {
	field := fmt.Sprintf("customTax_%d_amount", len(inv.customTaxes))
	inv.customTaxes = append(inv.customTaxes, CustomTax{Name: name, Amount: inv.nonFinite.set(field, amount)})
	return inv
}

func (inv *Invoice) InvoiceType() InvoiceType     { return inv.invoiceType }
func (inv *Invoice) PaymentMethod() PaymentMethod { return inv.paymentMethod }
func (inv *Invoice) Template() Template           { return inv.template }
func (inv *Invoice) PointOfSale() string          { return inv.pointOfSale }
func (inv *Invoice) Establishment() string        { return inv.establishment }
func (inv *Invoice) ClientCompanyName() string    { return inv.clientCompanyName }
func (inv *Invoice) ClientPhone() string          { return inv.clientPhone }
func (inv *Invoice) ClientEmail() string          { return inv.clientEmail }
func (inv *Invoice) ClientNcc() string            { return deref(inv.clientNcc) }
func (inv *Invoice) ClientSellerName() string     { return deref(inv.clientSellerName) }
func (inv *Invoice) CommercialMessage() string    { return deref(inv.commercialMessage) }
func (inv *Invoice) Footer() string               { return deref(inv.footer) }
func (inv *Invoice) IsRne() bool                  { return inv.isRne }
func (inv *Invoice) Rne() string                  { return deref(inv.rne) }

// NonFiniteFields lists the invoice-level fields that were given NaN or ±Inf
func (inv *Invoice) NonFiniteFields() []string { return inv.nonFinite.fields() }
func (inv *Invoice) Discount() decimal.Decimal    { return inv.discount }

// ForeignCurrency returns "" when no currency was set
func (inv *Invoice) ForeignCurrency() Currency {
	if inv.foreignCurrency == nil {
		return ""
	}
	return *inv.foreignCurrency
}

func (inv *Invoice) ForeignCurrencyRate() decimal.Decimal { return inv.foreignCurrencyRate }

// Items returns a copy of the line slice; the lines themselves are shared
func (inv *Invoice) Items() []*Item {
	return append([]*Item(nil), inv.items...)
}

// CustomTaxes returns a copy of the invoice-level custom taxes
func (inv *Invoice) CustomTaxes() []CustomTax {
	return append([]CustomTax(nil), inv.customTaxes...)
}

// InvoiceTotals is the computed breakdown of an invoice, in whole francs
type InvoiceTotals struct {
	HT          decimal.Decimal // lines HT after line discounts
	DiscountAmt decimal.Decimal // global discount applied to HT
	VAT         decimal.Decimal
	CustomTaxes decimal.Decimal // line and invoice-level custom taxes
	TTC         decimal.Decimal
}

// CalculateTotals sums the lines and applies the global discount.
// VAT is recomputed on the discounted base of each line.
func (inv *Invoice) CalculateTotals() InvoiceTotals {
	var t InvoiceTotals
	t.HT, t.DiscountAmt, t.VAT, t.CustomTaxes = money.Zero, money.Zero, money.Zero, money.Zero

	for _, item := range inv.items {
		if item == nil {
			continue
		}
		lt := item.Totals()
		lineDiscount := money.Percent(lt.HT, inv.discount)
		base := lt.HT.Sub(lineDiscount)

		t.HT = t.HT.Add(lt.HT)
		t.DiscountAmt = t.DiscountAmt.Add(lineDiscount)
		for _, tax := range item.taxes {
			t.VAT = t.VAT.Add(money.CalculateVAT(base, tax.Rate()))
		}
		t.CustomTaxes = t.CustomTaxes.Add(lt.CustomTaxes)
	}
	for _, ct := range inv.customTaxes {
		t.CustomTaxes = t.CustomTaxes.Add(ct.Amount)
	}

	t.TTC = t.HT.Sub(t.DiscountAmt).Add(t.VAT).Add(t.CustomTaxes)
	return t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
