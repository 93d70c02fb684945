package model

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// fromFloat converts f, reporting false for NaN and ±Inf which have no
// decimal form. The returned value is zero in that case.
func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// nonFinite records fields set from NaN or ±Inf
type nonFinite map[string]bool

func (n *nonFinite) set(field string, f float64) decimal.Decimal {
	d, ok := fromFloat(f)
	if ok {
		delete(*n, field)
		return d
	}
	if *n == nil {
		*n = nonFinite{}
	}
	(*n)[field] = true
	return d
}

func (n nonFinite) fields() []string {
	fields := make([]string, 0, len(n))
	for f := range n {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
