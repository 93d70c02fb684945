package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CustomTaxPayload is the wire form of a custom tax
type CustomTaxPayload struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// ItemPayload is the wire form of an invoice line
type ItemPayload struct {
	Description     string             `json:"description"`
	Quantity        float64            `json:"quantity"`
	Amount          float64            `json:"amount"`
	Taxes           []TaxType          `json:"taxes"`
	Reference       *string            `json:"reference,omitempty"`
	Discount        *float64           `json:"discount,omitempty"`
	MeasurementUnit *string            `json:"measurementUnit,omitempty"`
	CustomTaxes     []CustomTaxPayload `json:"customTaxes,omitempty"`
}

// InvoicePayload is the body of POST /external/invoices/sign.
// Optional keys are pointers so that absent and empty stay distinct;
// the foreign currency pair is always sent.
type InvoicePayload struct {
	InvoiceType         InvoiceType        `json:"invoiceType"`
	PaymentMethod       PaymentMethod      `json:"paymentMethod"`
	Template            Template           `json:"template"`
	PointOfSale         string             `json:"pointOfSale"`
	Establishment       string             `json:"establishment"`
	ClientCompanyName   string             `json:"clientCompanyName"`
	ClientPhone         string             `json:"clientPhone"`
	ClientEmail         string             `json:"clientEmail"`
	IsRne               bool               `json:"isRne"`
	Items               []ItemPayload      `json:"items"`
	ClientNcc           *string            `json:"clientNcc,omitempty"`
	ClientSellerName    *string            `json:"clientSellerName,omitempty"`
	CommercialMessage   *string            `json:"commercialMessage,omitempty"`
	Footer              *string            `json:"footer,omitempty"`
	ForeignCurrency     Currency           `json:"foreignCurrency"`
	ForeignCurrencyRate float64            `json:"foreignCurrencyRate"`
	Rne                 *string            `json:"rne,omitempty"`
	Discount            *float64           `json:"discount,omitempty"`
	CustomTaxes         []CustomTaxPayload `json:"customTaxes,omitempty"`
}

// Payload projects the item onto its wire form
func (i *Item) Payload() ItemPayload {
	p := ItemPayload{
		Description:     i.description,
		Quantity:        i.quantity.InexactFloat64(),
		Amount:          i.amount.InexactFloat64(),
		Taxes:           append([]TaxType{}, i.taxes...),
		Reference:       cloneString(i.reference),
		MeasurementUnit: cloneString(i.measurementUnit),
		CustomTaxes:     customTaxPayloads(i.customTaxes),
	}
	if i.discount.IsPositive() {
		d := i.discount.InexactFloat64()
		p.Discount = &d
	}
	return p
}

// Payload projects the invoice onto its wire form. Nil items are skipped;
// the validator reports them before anything is sent.
func (inv *Invoice) Payload() InvoicePayload {
	p := InvoicePayload{
		InvoiceType:       inv.invoiceType,
		PaymentMethod:     inv.paymentMethod,
		Template:          inv.template,
		PointOfSale:       inv.pointOfSale,
		Establishment:     inv.establishment,
		ClientCompanyName: inv.clientCompanyName,
		ClientPhone:       inv.clientPhone,
		ClientEmail:       inv.clientEmail,
		IsRne:             inv.isRne,
		Items:             make([]ItemPayload, 0, len(inv.items)),
		ClientNcc:         cloneString(inv.clientNcc),
		ClientSellerName:  cloneString(inv.clientSellerName),
		CommercialMessage: cloneString(inv.commercialMessage),
		Footer:            cloneString(inv.footer),
		CustomTaxes:       customTaxPayloads(inv.customTaxes),
	}
	for _, item := range inv.items {
		if item != nil {
			p.Items = append(p.Items, item.Payload())
		}
	}
	if inv.foreignCurrency != nil {
		p.ForeignCurrency = *inv.foreignCurrency
		p.ForeignCurrencyRate = inv.foreignCurrencyRate.InexactFloat64()
	}
	if inv.isRne && inv.rne != nil {
		p.Rne = cloneString(inv.rne)
	}
	if inv.discount.IsPositive() {
		d := inv.discount.InexactFloat64()
		p.Discount = &d
	}
	return p
}

// MarshalJSON serializes the invoice as its wire payload
func (inv *Invoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(inv.Payload())
}

// Invoice rebuilds a document from a decoded payload. An empty
// foreignCurrency is read back as unset.
func (p InvoicePayload) Invoice() *Invoice {
	inv := NewInvoice(p.InvoiceType, p.PaymentMethod, p.Template, p.PointOfSale, p.Establishment, Party{
		CompanyName: p.ClientCompanyName,
		Phone:       p.ClientPhone,
		Email:       p.ClientEmail,
	})
	inv.clientNcc = cloneString(p.ClientNcc)
	inv.clientSellerName = cloneString(p.ClientSellerName)
	inv.commercialMessage = cloneString(p.CommercialMessage)
	inv.footer = cloneString(p.Footer)
	if p.ForeignCurrency != "" {
		inv.SetForeignCurrency(p.ForeignCurrency, p.ForeignCurrencyRate)
	} else {
		inv.foreignCurrencyRate = decimal.NewFromFloat(p.ForeignCurrencyRate)
	}
	inv.isRne = p.IsRne
	inv.rne = cloneString(p.Rne)
	if p.Discount != nil {
		inv.SetDiscount(*p.Discount)
	}
	for _, ct := range p.CustomTaxes {
		inv.AddCustomTax(ct.Name, ct.Amount)
	}
	for _, ip := range p.Items {
		inv.AddItem(ip.Item())
	}
	return inv
}

// Item rebuilds a line from its wire form
func (p ItemPayload) Item() *Item {
	item := NewItem(p.Description, p.Quantity, p.Amount, p.Taxes...)
	item.reference = cloneString(p.Reference)
	item.measurementUnit = cloneString(p.MeasurementUnit)
	if p.Discount != nil {
		item.SetDiscount(*p.Discount)
	}
	for _, ct := range p.CustomTaxes {
		item.AddCustomTax(ct.Name, ct.Amount)
	}
	return item
}

// DecodeInvoice parses a sign request body
func DecodeInvoice(data []byte) (*Invoice, error) {
	var p InvoicePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode invoice payload: %w", err)
	}
	return p.Invoice(), nil
}

func customTaxPayloads(taxes []CustomTax) []CustomTaxPayload {
	if len(taxes) == 0 {
		return nil
	}
	out := make([]CustomTaxPayload, len(taxes))
	for i, ct := range taxes {
		out[i] = CustomTaxPayload{Name: ct.Name, Amount: ct.Amount.InexactFloat64()}
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
