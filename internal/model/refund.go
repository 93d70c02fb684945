package model

import "github.com/shopspring/decimal"

// RefundLine references an item of a certified invoice and the quantity
// returned
type RefundLine struct {
	ItemID   string
	Quantity decimal.Decimal

	nonFinite bool
}

// Finite is false when the quantity was given as NaN or ±Inf
func (l RefundLine) Finite() bool { return !l.nonFinite }

// RefundRequest is a credit note against a certified invoice
type RefundRequest struct {
	lines []RefundLine
}

func NewRefundRequest() *RefundRequest {
	return &RefundRequest{}
}

// AddItem appends a refunded line
func (r *RefundRequest) AddItem(itemID string, quantity float64) *RefundRequest {
	q, ok := fromFloat(quantity)
	r.lines = append(r.lines, RefundLine{ItemID: itemID, Quantity: q, nonFinite: !ok})
	return r
}

// Items returns a copy of the refunded lines in insertion order
func (r *RefundRequest) Items() []RefundLine {
	return append([]RefundLine(nil), r.lines...)
}

func (r *RefundRequest) Len() int { return len(r.lines) }

// RefundItemPayload is the wire form of a refunded line
type RefundItemPayload struct {
	ID       string  `json:"id"`
	Quantity float64 `json:"quantity"`
}

// RefundPayload is the body of POST /external/invoices/{id}/refund
type RefundPayload struct {
	Items []RefundItemPayload `json:"items"`
}

func (r *RefundRequest) Payload() RefundPayload {
	p := RefundPayload{Items: make([]RefundItemPayload, len(r.lines))}
	for i, l := range r.lines {
		p.Items[i] = RefundItemPayload{ID: l.ItemID, Quantity: l.Quantity.InexactFloat64()}
	}
	return p
}

// RefundRequest rebuilds a request from its wire form
func (p RefundPayload) RefundRequest() *RefundRequest {
	r := NewRefundRequest()
	for _, it := range p.Items {
		r.AddItem(it.ID, it.Quantity)
	}
	return r
}
