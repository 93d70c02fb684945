package validator

import (
	"fmt"
	"strings"

	"github.com/prodestic/fne-sdk-go/internal/model"
)

// ValidateRefund checks a credit note before it is sent against invoiceID
func ValidateRefund(invoiceID string, req *model.RefundRequest) error {
	fe := fieldErrors{}
	fe.required("invoiceId", invoiceID, "Identifiant de la facture")

	var lines []model.RefundLine
	if req != nil {
		lines = req.Items()
	}
	if len(lines) == 0 {
		fe.add("items", "Au moins un article à rembourser est requis")
	}

	for i, line := range lines {
		if strings.TrimSpace(line.ItemID) == "" {
			fe.add(fmt.Sprintf("item_%d_id", i), "L'identifiant de l'article est obligatoire")
		}
		if !line.Finite() {
			fe.add(fmt.Sprintf("item_%d_quantity", i), nonFiniteMessage)
		}
		if !line.Quantity.IsPositive() {
			fe.add(fmt.Sprintf("item_%d_quantity", i), "La quantité à rembourser doit être supérieure à 0")
		}
	}

	return fe.err()
}
