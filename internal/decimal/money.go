package decimal

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

var (
	hundred = decimal.NewFromInt(100)

	// ErrDiscountOutOfRange is returned when a discount is outside [0,100]
	ErrDiscountOutOfRange = errors.New("discount percentage must be between 0 and 100")

	// ErrInvalidExchangeRate is returned when an exchange rate is not strictly positive
	ErrInvalidExchangeRate = errors.New("exchange rate must be greater than 0")
)

// CurrencySymbol is appended by FormatAmount
const CurrencySymbol = "FCFA"

// Percent computes: amount * (rate/100), rounded to whole francs
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return Zero
	}
	return amount.Mul(rate).Div(hundred).Round(0)
}

// CalculateVAT computes the VAT part of an HT amount
func CalculateVAT(amountHT, ratePercent decimal.Decimal) decimal.Decimal {
	return Percent(amountHT, ratePercent)
}

// CalculateTTC computes: HT * (1 + rate/100)
func CalculateTTC(amountHT, ratePercent decimal.Decimal) decimal.Decimal {
	return amountHT.Add(CalculateVAT(amountHT, ratePercent)).Round(0)
}

// CalculateHT computes: TTC / (1 + rate/100)
func CalculateHT(amountTTC, ratePercent decimal.Decimal) decimal.Decimal {
	factor := hundred.Add(ratePercent).Div(hundred)
	return amountTTC.Div(factor).Round(0)
}

// ApplyDiscount returns amount minus discountPercent
func ApplyDiscount(amount, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if !InRange(discountPercent, Zero, hundred) {
		return Zero, ErrDiscountOutOfRange
	}
	return amount.Sub(Percent(amount, discountPercent)), nil
}

// ConvertCurrency converts between XOF and a foreign currency.
// fromXOF=true divides by the rate, false multiplies.
func ConvertCurrency(amount, rate decimal.Decimal, fromXOF bool) (decimal.Decimal, error) {
	if !IsPositive(rate) {
		return Zero, ErrInvalidExchangeRate
	}
	if fromXOF {
		return amount.Div(rate).Round(2), nil
	}
	return amount.Mul(rate).Round(2), nil
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// InRange reports lo <= d <= hi
func InRange(d, lo, hi decimal.Decimal) bool {
	return d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi)
}

// RoundXOF rounds to whole number (XOF has no subunit in use)
func RoundXOF(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// FormatAmount formats a whole-franc amount with space thousands separators,
// e.g. "1 250 000 FCFA".
func FormatAmount(d decimal.Decimal, withSymbol bool) string {
	return FormatAmountWithDecimals(d, 0, withSymbol)
}

// FormatAmountWithDecimals formats with a comma decimal separator,
// e.g. "1 250,50 FCFA".
func FormatAmountWithDecimals(d decimal.Decimal, places int32, withSymbol bool) string {
	s := d.StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	if withSymbol {
		b.WriteByte(' ')
		b.WriteString(CurrencySymbol)
	}
	return b.String()
}
