package fne

import (
	"github.com/shopspring/decimal"

	money "github.com/prodestic/fne-sdk-go/internal/decimal"
)

// Money errors
var (
	ErrDiscountOutOfRange  = money.ErrDiscountOutOfRange
	ErrInvalidExchangeRate = money.ErrInvalidExchangeRate
)

// CurrencySymbol is appended by FormatAmount when requested
const CurrencySymbol = money.CurrencySymbol

// CalculateVAT returns the tax part of an HT amount for the given tax type,
// rounded to whole francs.
func CalculateVAT(amountHT decimal.Decimal, tax TaxType) decimal.Decimal {
	return money.CalculateVAT(amountHT, tax.Rate())
}

// CalculateTTC returns the HT amount plus its tax
func CalculateTTC(amountHT decimal.Decimal, tax TaxType) decimal.Decimal {
	return money.CalculateTTC(amountHT, tax.Rate())
}

// CalculateHT recovers the HT amount from a TTC amount
func CalculateHT(amountTTC decimal.Decimal, tax TaxType) decimal.Decimal {
	return money.CalculateHT(amountTTC, tax.Rate())
}

// ApplyDiscount subtracts a percentage in [0,100] from amount.
func ApplyDiscount(amount, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	return money.ApplyDiscount(amount, discountPercent)
}

// ConvertCurrency converts between XOF and a foreign currency at rate
// (XOF per unit). fromXOF divides, otherwise the amount is multiplied.
func ConvertCurrency(amount, rate decimal.Decimal, fromXOF bool) (decimal.Decimal, error) {
	return money.ConvertCurrency(amount, rate, fromXOF)
}

// FormatAmount renders whole francs as "1 250 000 FCFA"
func FormatAmount(amount decimal.Decimal, withSymbol bool) string {
	return money.FormatAmount(amount, withSymbol)
}

func FormatAmountWithDecimals(amount decimal.Decimal, places int32, withSymbol bool) string {
	return money.FormatAmountWithDecimals(amount, places, withSymbol)
}
