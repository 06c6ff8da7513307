package service

import (
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the precision amounts are normalised to on commit
const moneyPlaces = 2

// roundMoney rounds half away from zero to two places
func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(moneyPlaces).InexactFloat64()
}

// Total sums the amount of every item in the view
func Total(items []entity.ExpenseLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Amount))
	}
	return sum
}
