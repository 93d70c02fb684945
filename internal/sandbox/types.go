package sandbox

// CertifiedItem is a line of a certified invoice as returned by the API
type CertifiedItem struct {
	ID              string   `json:"id"`
	Description     string   `json:"description"`
	Quantity        float64  `json:"quantity"`
	Amount          float64  `json:"amount"`
	Taxes           []string `json:"taxes,omitempty"`
	Reference       string   `json:"reference,omitempty"`
	MeasurementUnit string   `json:"measurementUnit,omitempty"`
}

// CertifiedInvoice is the invoice echo of a certification answer
type CertifiedInvoice struct {
	ID                string          `json:"id"`
	ParentID          string          `json:"parentId,omitempty"`
	Reference         string          `json:"reference"`
	Type              string          `json:"type"`
	Template          string          `json:"template,omitempty"`
	ClientCompanyName string          `json:"clientCompanyName,omitempty"`
	TotalHT           int64           `json:"totalBeforeTaxes"`
	TotalVAT          int64           `json:"totalTaxes"`
	TotalTTC          int64           `json:"totalAfterTaxes"`
	Items             []CertifiedItem `json:"items"`
}

// SignResponse is the answer of the sign and refund endpoints
type SignResponse struct {
	NCC            string           `json:"ncc"`
	Reference      string           `json:"reference"`
	Token          string           `json:"token"`
	Warning        bool             `json:"warning"`
	BalanceSticker int              `json:"balance_sticker"`
	Invoice        CertifiedInvoice `json:"invoice"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}
