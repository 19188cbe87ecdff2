package aggregate

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole*100 rounded half away from zero, or 0 when whole
// is zero.
func Percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(part)).Mul(hundred).
		Div(decimal.NewFromInt(int64(whole))).Round(0).IntPart())
}

// PercentOneDecimal is Percent with one decimal place, used for target
// achievement where 99.5 and 100 read differently.
func PercentOneDecimal(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).
		Div(decimal.NewFromInt(int64(whole))).Round(1).InexactFloat64()
}

// roundedRatio returns round(a/b), or 0 when b is zero.
func roundedRatio(a, b int) int {
	if b == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(a)).Div(decimal.NewFromInt(int64(b))).Round(0).IntPart())
}
