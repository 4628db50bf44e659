package pricing

import "strings"

type StockStatus string

const (
	OutOfStock StockStatus = "OutOfStock"
	LowStock   StockStatus = "LowStock"
	InStock    StockStatus = "InStock"
)

// StockStatusFor checks the empty case before the threshold, so an item at
// zero with a positive threshold is OutOfStock.
func StockStatusFor(quantity, lowStockThreshold float64) StockStatus {
	q := num(quantity)
	switch {
	case !q.IsPositive():
		return OutOfStock
	case q.LessThanOrEqual(num(lowStockThreshold)):
		return LowStock
	default:
		return InStock
	}
}

// ParseStockStatus accepts "LowStock", "low stock", "low-stock" and so on.
func ParseStockStatus(s string) (StockStatus, bool) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	switch key {
	case "outofstock":
		return OutOfStock, true
	case "lowstock":
		return LowStock, true
	case "instock":
		return InStock, true
	}
	return "", false
}

// WeightedAverageCost applies a purchase to a stock line. A non-positive
// quantity leaves both values unchanged.
func WeightedAverageCost(oldQty, oldCost, addQty, addCost float64) (quantity, costPerUnit float64) {
	add := num(addQty)
	if !add.IsPositive() {
		return oldQty, oldCost
	}
	old := num(oldQty)
	total := old.Add(add)
	if !total.IsPositive() {
		return total.InexactFloat64(), addCost
	}
	value := old.Mul(num(oldCost)).Add(add.Mul(num(addCost)))
	return total.InexactFloat64(), value.Div(total).InexactFloat64()
}
