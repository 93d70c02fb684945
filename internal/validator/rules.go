// Package validator checks FNE documents before they are submitted.
// Every rule runs on every call; violations are collected per field so the
// caller gets the complete list in one pass.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/prodestic/fne-sdk-go/internal/model"
)

var (
	nccPattern    = regexp.MustCompile(`^[0-9]{7}[A-Z]$`)
	phoneDigits   = regexp.MustCompile(`^[0-9]{8,10}$`)
	phoneNoise    = strings.NewReplacer(" ", "", ".", "", "-", "")
	phonePrefixes = []string{"+225", "00225"}
	hundred       = decimal.NewFromInt(100)
)

// ValidNCC reports whether ncc is a taxpayer account number: seven digits
// followed by an uppercase letter, e.g. 9502363N
func ValidNCC(ncc string) bool {
	return nccPattern.MatchString(ncc)
}

// ValidPhone accepts Ivorian numbers of 8 to 10 digits. Spaces, dots and
// dashes are ignored, as is a leading +225 or 00225.
func ValidPhone(phone string) bool {
	cleaned := phoneNoise.Replace(strings.TrimSpace(phone))
	for _, p := range phonePrefixes {
		if strings.HasPrefix(cleaned, p) {
			cleaned = strings.TrimPrefix(cleaned, p)
			break
		}
	}
	return phoneDigits.MatchString(cleaned)
}

// fieldErrors accumulates violations keyed by field path. The first
// message recorded for a key wins.
type fieldErrors map[string]string

func (fe fieldErrors) add(field, message string) {
	if _, exists := fe[field]; !exists {
		fe[field] = message
	}
}

const nonFiniteMessage = "La valeur doit être un nombre fini"

// finite rejects fields that were set from NaN or ±Inf. It runs before the
// range checks so their message wins.
func (fe fieldErrors) finite(prefix string, fields []string) {
	for _, f := range fields {
		fe.add(prefix+f, nonFiniteMessage)
	}
}

func (fe fieldErrors) required(field, value, label string) bool {
	if strings.TrimSpace(value) == "" {
		fe.add(field, fmt.Sprintf("Le champ '%s' est obligatoire", label))
		return false
	}
	return true
}

func (fe fieldErrors) nonNegative(field string, value decimal.Decimal, label string) {
	if value.IsNegative() {
		fe.add(field, fmt.Sprintf("Le champ '%s' doit être un nombre positif", label))
	}
}

func (fe fieldErrors) percentage(field string, value decimal.Decimal, subject string) {
	switch {
	case value.IsNegative():
		fe.add(field, fmt.Sprintf("%s ne peut pas être négative", subject))
	case value.GreaterThan(hundred):
		fe.add(field, fmt.Sprintf("%s ne peut pas dépasser 100%%", subject))
	}
}

func (fe fieldErrors) oneOf(field string, valid bool, label string, allowed []string) {
	if !valid {
		fe.add(field, fmt.Sprintf("Le champ '%s' doit être l'une des valeurs suivantes: %s", label, strings.Join(allowed, ", ")))
	}
}

func (fe fieldErrors) customTaxes(prefix string, taxes []model.CustomTax) {
	for j, ct := range taxes {
		if strings.TrimSpace(ct.Name) == "" {
			fe.add(fmt.Sprintf("%s_%d_name", prefix, j), "Le nom de la taxe personnalisée est requis")
		}
		if ct.Amount.IsNegative() {
			fe.add(fmt.Sprintf("%s_%d_amount", prefix, j), "Le montant de la taxe doit être un nombre positif")
		}
	}
}

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return model.NewValidationError(fe)
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// emailChecker wraps the tag validator for the single rule that needs it
type emailChecker struct {
	v *validator.Validate
}

func newEmailChecker() emailChecker {
	return emailChecker{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (c emailChecker) valid(email string) bool {
	return c.v.Var(email, "required,email") == nil
}
