package validator

import (
	"fmt"
	"strings"

	"github.com/prodestic/fne-sdk-go/internal/model"
)

// InvoiceValidator checks invoices and purchase slips. It holds no per-call
// state and is safe for concurrent use.
type InvoiceValidator struct {
	email emailChecker
}

func NewInvoiceValidator() *InvoiceValidator {
	return &InvoiceValidator{email: newEmailChecker()}
}

// Validate returns nil when the invoice may be submitted, or a
// *model.ValidationError listing every violated field.
func (v *InvoiceValidator) Validate(inv *model.Invoice) error {
	if inv == nil {
		return model.NewValidationError(map[string]string{"invoice": "Facture manquante"})
	}

	fe := fieldErrors{}
	fe.finite("", inv.NonFiniteFields())
	fe.oneOf("invoiceType", inv.InvoiceType().Valid(), "Type de facture", names(model.AllInvoiceTypes()))
	fe.oneOf("paymentMethod", inv.PaymentMethod().Valid(), "Méthode de paiement", names(model.AllPaymentMethods()))
	v.checkTemplate(fe, inv)
	v.checkClient(fe, inv)
	fe.required("pointOfSale", inv.PointOfSale(), "Point de vente")
	fe.required("establishment", inv.Establishment(), "Établissement")
	v.checkItems(fe, inv)
	v.checkForeignCurrency(fe, inv)
	if inv.IsRne() && strings.TrimSpace(inv.Rne()) == "" {
		fe.add("rne", "Le numéro du reçu est obligatoire lorsque isRne est true")
	}
	fe.percentage("discount", inv.Discount(), "La remise globale")
	fe.customTaxes("customTax", inv.CustomTaxes())

	return fe.err()
}

func (v *InvoiceValidator) checkTemplate(fe fieldErrors, inv *model.Invoice) {
	fe.oneOf("template", inv.Template().Valid(), "Type de facturation", names(model.AllTemplates()))

	if inv.Template() != model.TemplateB2B {
		return
	}
	switch ncc := inv.ClientNcc(); {
	case ncc == "":
		fe.add("clientNcc", "Le NCC client est obligatoire pour les factures B2B")
	case !ValidNCC(ncc):
		fe.add("clientNcc", "Le NCC doit être composé de 7 chiffres suivis d'une lettre majuscule")
	}
}

func (v *InvoiceValidator) checkClient(fe fieldErrors, inv *model.Invoice) {
	fe.required("clientCompanyName", inv.ClientCompanyName(), "Nom du client")

	if fe.required("clientPhone", inv.ClientPhone(), "Téléphone client") && !ValidPhone(inv.ClientPhone()) {
		fe.add("clientPhone", "Le numéro de téléphone doit contenir entre 8 et 10 chiffres")
	}
	if fe.required("clientEmail", inv.ClientEmail(), "Email client") && !v.email.valid(inv.ClientEmail()) {
		fe.add("clientEmail", "L'adresse email n'est pas valide")
	}
}

func (v *InvoiceValidator) checkItems(fe fieldErrors, inv *model.Invoice) {
	items := inv.Items()
	if len(items) == 0 {
		fe.add("items", "Au moins un article est requis")
		return
	}

	sale := inv.InvoiceType() == model.InvoiceTypeSale
	for i, item := range items {
		if item == nil {
			fe.add(fmt.Sprintf("items.%d", i), "Article invalide")
			continue
		}
		prefix := fmt.Sprintf("item_%d", i)
		fe.finite(prefix+"_", item.NonFiniteFields())

		fe.required(prefix+"_description", item.Description(), "Description")
		fe.nonNegative(prefix+"_quantity", item.Quantity(), "Quantité")
		fe.nonNegative(prefix+"_amount", item.Amount(), "Prix unitaire")
		fe.percentage(prefix+"_discount", item.Discount(), "La remise")

		if sale {
			checkTaxes(fe, prefix, item.Taxes())
		}
		fe.customTaxes(prefix+"_customTax", item.CustomTaxes())
	}
}

// checkTaxes applies to sale lines only; purchase slips carry no VAT
func checkTaxes(fe fieldErrors, prefix string, taxes []model.TaxType) {
	if len(taxes) == 0 {
		fe.add(prefix+"_taxes", "Au moins un type de taxe est requis pour les factures de vente")
		return
	}

	var invalid []string
	for _, tax := range taxes {
		if !tax.Valid() {
			invalid = append(invalid, string(tax))
		}
	}
	if len(invalid) > 0 {
		fe.add(prefix+"_tax", fmt.Sprintf("Type de taxe invalide: %s. Valeurs autorisées: %s",
			strings.Join(invalid, ", "), strings.Join(names(model.AllTaxTypes()), ", ")))
	}
}

func (v *InvoiceValidator) checkForeignCurrency(fe fieldErrors, inv *model.Invoice) {
	currency := inv.ForeignCurrency()
	rate := inv.ForeignCurrencyRate()

	if currency != "" {
		fe.oneOf("foreignCurrency", currency.Valid(), "Devise étrangère", names(model.AllCurrencies()))

		if inv.Template() == model.TemplateB2F && !rate.IsPositive() {
			fe.add("foreignCurrencyRate",
				"Le taux de change est obligatoire et doit être supérieur à 0 pour les transactions B2F avec devise étrangère")
		}
	}
	if rate.IsNegative() {
		fe.add("foreignCurrencyRate", "Le taux de change ne peut pas être négatif")
	}
}
