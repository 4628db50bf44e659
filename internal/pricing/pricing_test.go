package pricing

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestInvoiceTotalsSingleLine(t *testing.T) {
	totals := InvoiceTotalsFor([]InvoiceLine{{Quantity: 2, Price: 100, Discount: 10, GST: 18}}, 0)

	assertDecimal(t, "subtotal", totals.Subtotal, "200")
	assertDecimal(t, "discount", totals.DiscountAmount, "20")
	assertDecimal(t, "gst", totals.GSTAmount, "32.4")
	assertDecimal(t, "grand total", totals.GrandTotal, "212.4")
	assertDecimal(t, "balance", totals.BalanceDue, "212.4")
}

func TestInvoiceTotalsPerLineRates(t *testing.T) {
	lines := []InvoiceLine{
		{Quantity: 1, Price: 100, Discount: 50, GST: 0},
		{Quantity: 1, Price: 100, Discount: 0, GST: 10},
	}
	totals := InvoiceTotalsFor(lines, 50)

	// Line one taxes 50 at 0%, line two taxes 100 at 10%.
	assertDecimal(t, "gst", totals.GSTAmount, "10")
	assertDecimal(t, "grand total", totals.GrandTotal, "160")
	assertDecimal(t, "balance", totals.BalanceDue, "110")
}

func TestInvoiceTotalsIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := r.Intn(6)
		lines := make([]InvoiceLine, n)
		sub, disc, gst := decimal.Zero, decimal.Zero, decimal.Zero
		for j := range lines {
			lines[j] = InvoiceLine{
				Quantity: float64(r.Intn(20)),
				Price:    math.Round(r.Float64()*100000) / 100,
				Discount: float64(r.Intn(101)),
				GST:      float64(r.Intn(29)),
			}
			ls := decimal.NewFromFloat(lines[j].Quantity).Mul(decimal.NewFromFloat(lines[j].Price))
			ld := ls.Mul(decimal.NewFromFloat(lines[j].Discount)).Div(hundred)
			sub = sub.Add(ls)
			disc = disc.Add(ld)
			gst = gst.Add(ls.Sub(ld).Mul(decimal.NewFromFloat(lines[j].GST)).Div(hundred))
		}
		paid := float64(r.Intn(5000))
		totals := InvoiceTotalsFor(lines, paid)

		want := sub.Sub(disc).Add(gst)
		if !totals.GrandTotal.Equal(want) {
			t.Fatalf("case %d: grand total %s, want %s", i, totals.GrandTotal, want)
		}
		if !totals.BalanceDue.Equal(want.Sub(decimal.NewFromFloat(paid))) {
			t.Fatalf("case %d: balance %s", i, totals.BalanceDue)
		}
	}
}

func TestInvoiceTotalsCoercesBadNumbers(t *testing.T) {
	lines := []InvoiceLine{
		{Quantity: math.NaN(), Price: 10},
		{Quantity: 1, Price: math.Inf(1), Discount: 5},
		{Quantity: 3, Price: 10, Discount: math.NaN(), GST: math.Inf(-1)},
	}
	totals := InvoiceTotalsFor(lines, math.NaN())

	assertDecimal(t, "grand total", totals.GrandTotal, "30")
	assertDecimal(t, "balance", totals.BalanceDue, "30")
}

func TestInvoiceTotalsEmpty(t *testing.T) {
	totals := InvoiceTotalsFor(nil, 0)
	if !totals.GrandTotal.IsZero() || !totals.Settled() {
		t.Fatalf("empty invoice: %+v", totals)
	}
	if !totals.EffectiveDiscountPercent().IsZero() || !totals.EffectiveGSTPercent().IsZero() {
		t.Fatal("effective rates must be zero on an empty invoice")
	}
}

func TestEffectivePercentages(t *testing.T) {
	totals := InvoiceTotalsFor([]InvoiceLine{{Quantity: 2, Price: 100, Discount: 10, GST: 18}}, 0)
	assertDecimal(t, "discount%", totals.EffectiveDiscountPercent(), "10")
	assertDecimal(t, "gst%", totals.EffectiveGSTPercent(), "18")

	full := InvoiceTotalsFor([]InvoiceLine{{Quantity: 1, Price: 40, Discount: 100, GST: 12}}, 0)
	if !full.EffectiveGSTPercent().IsZero() {
		t.Errorf("gst%% on fully discounted invoice = %s, want 0", full.EffectiveGSTPercent())
	}
}

func TestSettledAndPaymentStatus(t *testing.T) {
	lines := []InvoiceLine{{Quantity: 1, Price: 100}}
	tests := []struct {
		paid    float64
		settled bool
		status  PaymentStatus
	}{
		{0, false, PaymentPending},
		{99.99, false, PaymentPending},
		{100, true, PaymentPaid},
		{150, true, PaymentPaid},
	}
	for _, tt := range tests {
		totals := InvoiceTotalsFor(lines, tt.paid)
		if totals.Settled() != tt.settled {
			t.Errorf("paid %v: settled = %v", tt.paid, totals.Settled())
		}
		if got := PaymentStatusFor(totals, tt.paid); got != tt.status {
			t.Errorf("paid %v: status = %s, want %s", tt.paid, got, tt.status)
		}
	}

	zero := InvoiceTotalsFor(nil, 10)
	if got := PaymentStatusFor(zero, 10); got != PaymentPending {
		t.Errorf("zero total invoice status = %s, want Pending", got)
	}
	if !zero.BalanceDue.Equal(dec("-10")) {
		t.Errorf("overpaid balance = %s", zero.BalanceDue)
	}
}

func TestRecipeCost(t *testing.T) {
	costs := map[string]float64{"A": 50, "B": 10}
	got := RecipeCostFor([]RecipeLine{{"A", 2}, {"B", 5}}, costs, 200)

	assertDecimal(t, "cost", got.Cost, "150")
	assertDecimal(t, "profit", got.Profit, "50")
	assertDecimal(t, "margin", got.Margin, "25")
}

func TestRecipeCostFromCatalogue(t *testing.T) {
	costs := Catalogue([]CostEntry{{"A", 40}, {"B", 10}, {"A", 50}})
	got := RecipeCostFor([]RecipeLine{{"A", 2}, {"B", 5}}, costs, 200)
	assertDecimal(t, "cost", got.Cost, "150")
}

func TestRecipeCostUnmatchedAndZeroPrice(t *testing.T) {
	got := RecipeCostFor([]RecipeLine{{"missing", 3}, {"A", 1}}, map[string]float64{"A": 12.5}, 0)

	assertDecimal(t, "cost", got.Cost, "12.5")
	assertDecimal(t, "profit", got.Profit, "-12.5")
	if !got.Margin.IsZero() {
		t.Errorf("margin with zero selling price = %s, want 0", got.Margin)
	}
}

func TestRecipeCostRoundsAfterSumming(t *testing.T) {
	// 3 × 0.335 = 1.005 rounds up to 1.01; rounding each line first would give 1.02.
	costs := map[string]float64{"A": 0.335}
	lines := []RecipeLine{{"A", 1}, {"A", 1}, {"A", 1}}
	got := RecipeCostFor(lines, costs, 10)
	assertDecimal(t, "cost", got.Cost, "1.01")
}

func TestRecipeCostMonotonic(t *testing.T) {
	lines := []RecipeLine{{"A", 1.5}, {"B", 0.25}}
	prev := decimal.NewFromInt(-1)
	for c := 0.0; c <= 100; c += 7.3 {
		got := RecipeCostFor(lines, map[string]float64{"A": c, "B": 4}, 100).Cost
		if got.LessThan(prev) {
			t.Fatalf("cost decreased from %s to %s at unit cost %v", prev, got, c)
		}
		prev = got
	}
}

func TestStockStatus(t *testing.T) {
	tests := []struct {
		name      string
		qty       float64
		threshold float64
		want      StockStatus
	}{
		{"zero with threshold", 0, 5, OutOfStock},
		{"negative", -2, 5, OutOfStock},
		{"at threshold", 5, 5, LowStock},
		{"just above threshold", 5.0001, 5, InStock},
		{"below threshold", 1, 5, LowStock},
		{"negative threshold", 1, -3, InStock},
		{"nan quantity", math.NaN(), 5, OutOfStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StockStatusFor(tt.qty, tt.threshold); got != tt.want {
				t.Errorf("StockStatusFor(%v, %v) = %s, want %s", tt.qty, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestParseStockStatus(t *testing.T) {
	for in, want := range map[string]StockStatus{
		"Out of Stock": OutOfStock,
		"lowstock":     LowStock,
		"in-stock":     InStock,
	} {
		got, ok := ParseStockStatus(in)
		if !ok || got != want {
			t.Errorf("ParseStockStatus(%q) = %s, %v", in, got, ok)
		}
	}
	if _, ok := ParseStockStatus("discontinued"); ok {
		t.Error("unknown status parsed")
	}
}

func TestWeightedAverageCost(t *testing.T) {
	qty, cost := WeightedAverageCost(10, 40, 10, 60)
	if qty != 20 || cost != 50 {
		t.Errorf("got %v @ %v, want 20 @ 50", qty, cost)
	}

	qty, cost = WeightedAverageCost(10, 40, 0, 99)
	if qty != 10 || cost != 40 {
		t.Errorf("zero purchase changed stock: %v @ %v", qty, cost)
	}

	qty, cost = WeightedAverageCost(-5, 40, 5, 30)
	if qty != 0 || cost != 30 {
		t.Errorf("non-positive total: %v @ %v, want 0 @ 30", qty, cost)
	}
}

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextOccurrence(t *testing.T) {
	today := day("2026-10-14")
	tests := []struct {
		stored string
		want   string
	}{
		{"1990-10-14", "2026-10-14"},
		{"1990-10-20", "2026-10-20"},
		{"1990-08-15", "2027-08-15"},
		{"1992-01-01", "2027-01-01"},
	}
	for _, tt := range tests {
		got := NextOccurrence(day(tt.stored), today)
		if got.Format(DateLayout) != tt.want {
			t.Errorf("NextOccurrence(%s) = %s, want %s", tt.stored, got.Format(DateLayout), tt.want)
		}
	}
}

func TestNextOccurrenceLeapDay(t *testing.T) {
	got := NextOccurrence(day("2000-02-29"), day("2026-02-10"))
	if got.Format(DateLayout) != "2026-03-01" {
		t.Errorf("leap day in non-leap year = %s", got.Format(DateLayout))
	}
	got = NextOccurrence(day("2000-02-29"), day("2027-06-01"))
	if got.Format(DateLayout) != "2028-02-29" {
		t.Errorf("leap day before leap year = %s", got.Format(DateLayout))
	}
}

func TestUpcomingWithin(t *testing.T) {
	today := day("2026-10-14")
	if !UpcomingWithin(day("1980-10-14"), today, DefaultUpcomingWindowDays) {
		t.Error("today should be upcoming")
	}
	if !UpcomingWithin(day("1980-11-13"), today, DefaultUpcomingWindowDays) {
		t.Error("day 30 should be upcoming")
	}
	if UpcomingWithin(day("1980-11-14"), today, DefaultUpcomingWindowDays) {
		t.Error("day 31 should not be upcoming")
	}
	if UpcomingWithin(day("1980-10-13"), today, DefaultUpcomingWindowDays) {
		t.Error("yesterday rolls to next year")
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(dec("212.4")); got != "₹212.40" {
		t.Errorf("FormatCurrency = %q", got)
	}
	if got := FormatCurrencyWith("$", dec("-3.456")); got != "$-3.46" {
		t.Errorf("FormatCurrencyWith = %q", got)
	}
}

func TestValidateInvoiceDraftLineRanges(t *testing.T) {
	valid := InvoiceDraftLine{ProductID: "1", Quantity: 2, Price: 50, Discount: 10, GST: 18}

	cases := []struct {
		name string
		edit func(*InvoiceDraftLine)
		want string
	}{
		{"valid", func(*InvoiceDraftLine) {}, ""},
		{"free item", func(l *InvoiceDraftLine) { l.Price = 0 }, ""},
		{"full discount", func(l *InvoiceDraftLine) { l.Discount = 100 }, ""},
		{"negative price", func(l *InvoiceDraftLine) { l.Price = -1 }, "price must not be negative"},
		{"discount over 100", func(l *InvoiceDraftLine) { l.Discount = 101 }, "discount must be between 0 and 100"},
		{"negative discount", func(l *InvoiceDraftLine) { l.Discount = -5 }, "discount must be between 0 and 100"},
		{"negative gst", func(l *InvoiceDraftLine) { l.GST = -0.5 }, "gst must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := valid
			tc.edit(&line)
			err := ValidateInvoiceDraft(InvoiceDraft{CustomerID: "7", Lines: []InvoiceDraftLine{line}})
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			errs, ok := err.(ValidationErrors)
			if !ok || len(errs) != 1 {
				t.Fatalf("err = %v, want one validation error", err)
			}
			if errs[0].Field != "items[0]" || errs[0].Message != tc.want {
				t.Errorf("got %s, want items[0]: %s", errs[0], tc.want)
			}
		})
	}
}
