package pricing

import "github.com/shopspring/decimal"

type RecipeLine struct {
	StockItemID string
	Quantity    float64
}

type RecipeCost struct {
	Cost   decimal.Decimal
	Profit decimal.Decimal
	Margin decimal.Decimal
}

// RecipeCostFor prices the recipe against costPerUnit, keyed by stock item id.
// Lines whose stock item is missing cost nothing. The cost is rounded to the
// cent once, after summing.
func RecipeCostFor(lines []RecipeLine, costPerUnit map[string]float64, sellingPrice float64) RecipeCost {
	cost := decimal.Zero
	for _, line := range lines {
		unit, ok := costPerUnit[line.StockItemID]
		if !ok {
			continue
		}
		cost = cost.Add(num(line.Quantity).Mul(num(unit)))
	}
	cost = RoundCents(cost)

	price := num(sellingPrice)
	profit := price.Sub(cost)
	margin := decimal.Zero
	if price.IsPositive() {
		margin = profit.Mul(hundred).Div(price)
	}
	return RecipeCost{Cost: cost, Profit: profit, Margin: margin}
}

// CostEntry is one stock item's unit cost as the recipe rollup sees it.
type CostEntry struct {
	ID          string
	CostPerUnit float64
}

// Catalogue indexes entries by id for RecipeCostFor. Later duplicates win.
func Catalogue(entries []CostEntry) map[string]float64 {
	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.ID] = e.CostPerUnit
	}
	return out
}
