package model

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// Result is the certification answer of the service
type Result struct {
	ncc            string
	reference      string
	token          string
	warning        bool
	balanceSticker int
	invoice        map[string]any
	statusCode     int
}

// NewResult reads a decoded response body. Missing keys take their zero
// value.
func NewResult(data map[string]any, statusCode int) *Result {
	r := &Result{
		invoice:    map[string]any{},
		statusCode: statusCode,
	}
	r.ncc, _ = data["ncc"].(string)
	r.reference, _ = data["reference"].(string)
	r.token, _ = data["token"].(string)
	r.warning, _ = data["warning"].(bool)
	if n, ok := data["balance_sticker"].(float64); ok {
		r.balanceSticker = int(n)
	}
	if inv, ok := data["invoice"].(map[string]any); ok {
		r.invoice = inv
	}
	return r
}

// DecodeResult parses a raw response body
func DecodeResult(body []byte, statusCode int) (*Result, error) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode certification result: %w", err)
	}
	return NewResult(data, statusCode), nil
}

func (r *Result) NCC() string         { return r.ncc }
func (r *Result) Reference() string   { return r.reference }
func (r *Result) Token() string       { return r.token }
func (r *Result) HasWarning() bool    { return r.warning }
func (r *Result) BalanceSticker() int { return r.balanceSticker }
func (r *Result) StatusCode() int     { return r.statusCode }

// VerificationURL is the public page encoded in the invoice QR code
func (r *Result) VerificationURL() string { return r.token }

// Invoice returns the invoice echoed by the service
func (r *Result) Invoice() map[string]any { return r.invoice }

func (r *Result) IsSuccess() bool {
	return r.statusCode == http.StatusOK || r.statusCode == http.StatusCreated
}

// VerificationToken extracts the UUID of the verification URL, or ""
func (r *Result) VerificationToken() string {
	token, _ := ExtractToken(r.token)
	return token
}

// InvoiceID is the identifier of the certified invoice, used for refunds
func (r *Result) InvoiceID() string {
	id, _ := r.invoice["id"].(string)
	return id
}

// CertifiedItem is an item line as recorded by the service
type CertifiedItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Amount      float64 `json:"amount"`
}

// Items lists the certified lines echoed by the service
func (r *Result) Items() []CertifiedItem {
	raw, _ := r.invoice["items"].([]any)
	items := make([]CertifiedItem, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		var ci CertifiedItem
		ci.ID, _ = m["id"].(string)
		ci.Description, _ = m["description"].(string)
		ci.Quantity, _ = m["quantity"].(float64)
		ci.Amount, _ = m["amount"].(float64)
		items = append(items, ci)
	}
	return items
}

// ItemQuantities maps certified item ids to their quantity
func (r *Result) ItemQuantities() map[string]float64 {
	out := make(map[string]float64)
	for _, it := range r.Items() {
		if it.ID != "" {
			out[it.ID] = it.Quantity
		}
	}
	return out
}

// ItemIDs returns the certified item ids in sorted order
func (r *Result) ItemIDs() []string {
	q := r.ItemQuantities()
	ids := make([]string, 0, len(q))
	for id := range q {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
