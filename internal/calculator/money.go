package calculator

import "github.com/shopspring/decimal"

// Epsilon is the tolerance (one cent) below which a balance or transfer is
// treated as zero.
const Epsilon = 0.01

var epsilon = decimal.New(1, -2)

// Round2 rounds an amount to two decimal places, half away from zero.
func Round2(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// IsZero reports whether amount is within Epsilon of zero.
func IsZero(amount float64) bool {
	return decimal.NewFromFloat(amount).Abs().LessThan(epsilon)
}

func toDecimal(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount)
}
