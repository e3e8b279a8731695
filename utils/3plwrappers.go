package utils

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func GetUUID() string {
	return uuid.New().String()
}

// Money rounds a decimal amount to cents and returns it as float64 for storage.
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// LineTotal is quantity × unit price in decimal arithmetic.
func LineTotal(quantity int, unitPrice float64) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
}
