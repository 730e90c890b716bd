package models

import "github.com/shopspring/decimal"

// RoundMoney rounds to 2 decimal places, half away from zero. All amounts in
// this service are non-negative, so this is the half-up rounding billing
// regulations expect.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
