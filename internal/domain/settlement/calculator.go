// Package settlement holds the pure arithmetic of a mess period: the meal
// rate, each member's share of shared costs and their net balance.
package settlement

import (
	"github.com/shopspring/decimal"
)

// MealRate is the price of one meal unit: total purchases over total meal
// units. It is zero when no meal units were recorded. No rounding is applied.
func MealRate(purchases []decimal.Decimal, mealUnits []int64) decimal.Decimal {
	total := Sum(purchases)
	var units int64
	for _, u := range mealUnits {
		units += u
	}
	return rate(total, units)
}

func rate(totalPurchases decimal.Decimal, totalUnits int64) decimal.Decimal {
	if totalUnits <= 0 || totalPurchases.IsNegative() {
		return decimal.Zero
	}
	return totalPurchases.Div(decimal.NewFromInt(totalUnits))
}

// AdditionalShare is the per-head part of the additional costs.
// It is zero when there are no active members.
func AdditionalShare(totalAdditional decimal.Decimal, activeCount int) decimal.Decimal {
	if activeCount <= 0 {
		return decimal.Zero
	}
	return totalAdditional.Div(decimal.NewFromInt(int64(activeCount)))
}

// Allocation is a member's allocated cost split into its two parts
type Allocation struct {
	MealCost       decimal.Decimal
	AdditionalCost decimal.Decimal
	Total          decimal.Decimal
}

// AllocateCost computes mealUnits x mealRate + totalAdditional / activeCount
func AllocateCost(mealUnits int64, mealRate, totalAdditional decimal.Decimal, activeCount int) Allocation {
	mealCost := decimal.NewFromInt(mealUnits).Mul(mealRate)
	additional := AdditionalShare(totalAdditional, activeCount)
	return Allocation{
		MealCost:       mealCost,
		AdditionalCost: additional,
		Total:          mealCost.Add(additional),
	}
}

// NetBalance is deposits minus allocated cost. Positive is a credit owed to
// the member, negative is what the member owes. Never clamped.
func NetBalance(deposits, allocatedCost decimal.Decimal) decimal.Decimal {
	return deposits.Sub(allocatedCost)
}

// Sum adds up amounts
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
