// Package dashboard turns snapshots of invoices, stock, customers and recipes
// into the headline numbers shown on the shop dashboard. Every figure comes
// from the pricing engine, so the server endpoint and the CLI report agree.
package dashboard

import (
	"sort"
	"strconv"
	"time"

	"whisk-system/internal/api"
	"whisk-system/internal/pricing"

	"github.com/shopspring/decimal"
)

const (
	EventBirthday    = "birthday"
	EventAnniversary = "anniversary"
)

// Snapshot is whatever the caller currently holds for each collection.
type Snapshot struct {
	Invoices   []api.Invoice
	StockItems []api.StockItem
	Customers  []api.Customer
	Recipes    []api.Recipe
}

type StockCounts struct {
	InStock    int `json:"inStock"`
	LowStock   int `json:"lowStock"`
	OutOfStock int `json:"outOfStock"`
}

type Summary struct {
	Revenue          float64             `json:"revenue"`
	Outstanding      float64             `json:"outstanding"`
	InvoiceCount     int                 `json:"invoiceCount"`
	PaidCount        int                 `json:"paidCount"`
	PendingCount     int                 `json:"pendingCount"`
	OverdueCount     int                 `json:"overdueCount"`
	Stock            StockCounts         `json:"stock"`
	LowStockItems    []string            `json:"lowStockItems"`
	CustomerCount    int                 `json:"customerCount"`
	RecipeCount      int                 `json:"recipeCount"`
	AverageMargin    float64             `json:"averageMargin"`
	UpcomingEvents   []api.UpcomingEvent `json:"upcomingEvents"`
	UpcomingWindow   int                 `json:"upcomingWindowDays"`
	GeneratedForDate string              `json:"date"`
}

func invoiceLines(items []api.InvoiceItem) []pricing.InvoiceLine {
	lines := make([]pricing.InvoiceLine, len(items))
	for i, it := range items {
		lines[i] = pricing.InvoiceLine{
			Quantity: it.Quantity.Float64(),
			Price:    it.Price.Float64(),
			Discount: it.Discount.Float64(),
			GST:      it.GST.Float64(),
		}
	}
	return lines
}

// Summarize recomputes invoice totals from their items, stock status from
// quantity and threshold, and recipe margins against the stock snapshot.
// Statuses and costs sent along with the entities are ignored.
func Summarize(s Snapshot, today time.Time, windowDays int) Summary {
	if windowDays <= 0 {
		windowDays = pricing.DefaultUpcomingWindowDays
	}
	out := Summary{
		InvoiceCount:     len(s.Invoices),
		CustomerCount:    len(s.Customers),
		RecipeCount:      len(s.Recipes),
		LowStockItems:    []string{},
		UpcomingWindow:   windowDays,
		GeneratedForDate: today.Format(pricing.DateLayout),
	}

	revenue, outstanding := decimal.Zero, decimal.Zero
	for _, inv := range s.Invoices {
		totals := pricing.InvoiceTotalsFor(invoiceLines(inv.Items), inv.AmountPaid)
		revenue = revenue.Add(totals.GrandTotal)
		if !totals.Settled() {
			outstanding = outstanding.Add(totals.BalanceDue)
		}

		st, ok := pricing.ParsePaymentStatus(inv.PaymentStatus)
		if !ok {
			st = pricing.PaymentStatusFor(totals, inv.AmountPaid)
		}
		switch st {
		case pricing.PaymentPaid:
			out.PaidCount++
		case pricing.PaymentOverdue:
			out.OverdueCount++
		default:
			out.PendingCount++
		}
	}
	out.Revenue = pricing.Float64(pricing.RoundCents(revenue))
	out.Outstanding = pricing.Float64(pricing.RoundCents(outstanding))

	costs := make([]pricing.CostEntry, len(s.StockItems))
	for i, item := range s.StockItems {
		costs[i] = pricing.CostEntry{ID: strconv.FormatInt(item.ID, 10), CostPerUnit: item.CostPerUnit}
		switch pricing.StockStatusFor(item.Quantity, item.LowStockThreshold) {
		case pricing.OutOfStock:
			out.Stock.OutOfStock++
			out.LowStockItems = append(out.LowStockItems, item.Name)
		case pricing.LowStock:
			out.Stock.LowStock++
			out.LowStockItems = append(out.LowStockItems, item.Name)
		default:
			out.Stock.InStock++
		}
	}
	sort.Strings(out.LowStockItems)

	if len(s.Recipes) > 0 {
		catalogue := pricing.Catalogue(costs)
		margins := decimal.Zero
		for _, r := range s.Recipes {
			lines := make([]pricing.RecipeLine, len(r.Ingredients))
			for i, ing := range r.Ingredients {
				lines[i] = pricing.RecipeLine{StockItemID: ing.StockItemID.String(), Quantity: ing.Quantity.Float64()}
			}
			margins = margins.Add(pricing.RecipeCostFor(lines, catalogue, r.SellingPrice).Margin)
		}
		avg := margins.Div(decimal.NewFromInt(int64(len(s.Recipes))))
		out.AverageMargin = pricing.Float64(pricing.RoundCents(avg))
	}

	out.UpcomingEvents = UpcomingEvents(s.Customers, today, windowDays)
	return out
}

// UpcomingEvents returns each birthday and anniversary whose next occurrence
// is within days of today, soonest first. Unparseable dates are skipped.
func UpcomingEvents(customers []api.Customer, today time.Time, days int) []api.UpcomingEvent {
	events := []api.UpcomingEvent{}
	add := func(c api.Customer, kind, stored string) {
		if stored == "" {
			return
		}
		d, err := pricing.ParseDate(stored)
		if err != nil || !pricing.UpcomingWithin(d, today, days) {
			return
		}
		events = append(events, api.UpcomingEvent{
			CustomerID:   c.ID,
			CustomerName: c.Name,
			Phone:        c.Phone,
			Kind:         kind,
			Date:         stored,
			NextDate:     pricing.NextOccurrence(d, today).Format(pricing.DateLayout),
			DaysUntil:    pricing.DaysUntil(d, today),
		})
	}
	for _, c := range customers {
		add(c, EventBirthday, c.Birthday)
		add(c, EventAnniversary, c.Anniversary)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].DaysUntil != events[j].DaysUntil {
			return events[i].DaysUntil < events[j].DaysUntil
		}
		return events[i].CustomerName < events[j].CustomerName
	})
	return events
}
