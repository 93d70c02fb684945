package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	money "github.com/prodestic/fne-sdk-go/internal/decimal"
)

// CustomTax is a named extra tax with a non-negative amount
type CustomTax struct {
	Name   string
	Amount decimal.Decimal
}

// Item is an invoice line
type Item struct {
	description     string
	quantity        decimal.Decimal
	amount          decimal.Decimal
	discount        decimal.Decimal
	reference       *string
	measurementUnit *string
	taxes           []TaxType
	customTaxes     []CustomTax
	nonFinite       nonFinite
}

// NewItem creates a line. amount is the unit price; taxes may be empty
// for purchase slips.
func NewItem(description string, quantity, amount float64, taxes ...TaxType) *Item {
	i := NewItemDecimal(description, decimal.Zero, decimal.Zero, taxes...)
	i.quantity = i.nonFinite.set("quantity", quantity)
	i.amount = i.nonFinite.set("amount", amount)
	return i
}

// NewItemDecimal is NewItem with exact amounts
func NewItemDecimal(description string, quantity, amount decimal.Decimal, taxes ...TaxType) *Item {
	return &Item{
		description: description,
		quantity:    quantity,
		amount:      amount,
		taxes:       append([]TaxType(nil), taxes...),
	}
}

func (i *Item) SetReference(reference string) *Item {
	i.reference = &reference
	return i
}

// SetDiscount sets the line discount in percent
func (i *Item) SetDiscount(percent float64) *Item {
	i.discount = i.nonFinite.set("discount", percent)
	return i
}

func (i *Item) SetMeasurementUnit(unit string) *Item {
	i.measurementUnit = &unit
	return i
}

func (i *Item) AddTax(tax TaxType) *Item {
	i.taxes = append(i.taxes, tax)
	return i
}

func (i *Item) AddCustomTax(name string, amount float64) *Item {
	field := fmt.Sprintf("customTax_%d_amount", len(i.customTaxes))
	i.customTaxes = append(i.customTaxes, CustomTax{Name: name, Amount: i.nonFinite.set(field, amount)})
	return i
}

func (i *Item) Description() string       { return i.description }
func (i *Item) Quantity() decimal.Decimal { return i.quantity }
func (i *Item) Amount() decimal.Decimal   { return i.amount }
func (i *Item) Discount() decimal.Decimal { return i.discount }

// NonFiniteFields lists the fields that were given NaN or ±Inf, e.g.
// "quantity" or "customTax_0_amount". Those fields hold zero.
func (i *Item) NonFiniteFields() []string { return i.nonFinite.fields() }

func (i *Item) Reference() string {
	if i.reference == nil {
		return ""
	}
	return *i.reference
}

func (i *Item) MeasurementUnit() string {
	if i.measurementUnit == nil {
		return ""
	}
	return *i.measurementUnit
}

// Taxes returns a copy of the tax codes
func (i *Item) Taxes() []TaxType {
	return append([]TaxType(nil), i.taxes...)
}

// CustomTaxes returns a copy of the custom taxes
func (i *Item) CustomTaxes() []CustomTax {
	return append([]CustomTax(nil), i.customTaxes...)
}

// LineTotals is the computed breakdown of a line, in whole francs
type LineTotals struct {
	Gross       decimal.Decimal // quantity * unit price
	DiscountAmt decimal.Decimal
	HT          decimal.Decimal // gross - discount
	VAT         decimal.Decimal // sum over the line's tax codes
	CustomTaxes decimal.Decimal
	TTC         decimal.Decimal // HT + VAT + custom taxes
}

// Totals computes the line breakdown. Unknown tax codes count as 0%.
func (i *Item) Totals() LineTotals {
	gross := money.RoundXOF(i.quantity.Mul(i.amount))
	discountAmt := money.Percent(gross, i.discount)
	ht := gross.Sub(discountAmt)

	vat := money.Zero
	for _, tax := range i.taxes {
		vat = vat.Add(money.CalculateVAT(ht, tax.Rate()))
	}

	custom := money.Zero
	for _, ct := range i.customTaxes {
		custom = custom.Add(ct.Amount)
	}

	return LineTotals{
		Gross:       gross,
		DiscountAmt: discountAmt,
		HT:          ht,
		VAT:         vat,
		CustomTaxes: custom,
		TTC:         ht.Add(vat).Add(custom),
	}
}
