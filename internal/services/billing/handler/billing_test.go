package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"whisk-system/internal/api"
	"whisk-system/internal/database"
	"whisk-system/internal/database/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	rdb   *redis.Client
	h     *BillingHandler
	arun  models.Customer
	cake  models.StockItem
	today string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	arun := models.Customer{Name: "Arun Kumar", Phone: "9876543210"}
	price := 850.0
	cake := models.StockItem{Name: "Chocolate Cake", Category: models.CategoryFinishedProduct, Quantity: 10, SellingPrice: &price}
	if err := db.Create(&arun).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if err := db.Create(&cake).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	h := NewBillingHandler(db, rdb, "")
	h.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return &fixture{db: db, rdb: rdb, h: h, arun: arun, cake: cake, today: "2026-03-14"}
}

func (f *fixture) input() *api.InvoiceInput {
	return &api.InvoiceInput{
		CustomerID: api.ID(f.arun.ID),
		Date:       "2026-03-01",
		Items: []api.InvoiceItem{
			{ProductID: api.ID(f.cake.ID), ProductName: "Chocolate Cake", Quantity: 2, Price: 100, Discount: 10, GST: 18},
		},
		Subtotal:   200,
		Discount:   10,
		GST:        18,
		Total:      212.4,
		OrderType:  "InStore",
		AmountPaid: 100,
		Notes:      "birthday order",
	}
}

func TestCreateInvoiceNumbersAndSummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.h.CreateInvoice(ctx, f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := f.h.CreateInvoice(ctx, f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.InvoiceNumber != "WHISK-01" || second.InvoiceNumber != "WHISK-02" {
		t.Errorf("numbers = %s, %s", first.InvoiceNumber, second.InvoiceNumber)
	}

	if first.CustomerName != "Arun Kumar" || first.CustomerID != f.arun.ID {
		t.Errorf("customer = %d %s", first.CustomerID, first.CustomerName)
	}
	if first.PaymentStatus != "Pending" {
		t.Errorf("derived payment status = %s", first.PaymentStatus)
	}
	sum := first.Summary
	if sum.Subtotal != 200 || sum.DiscountAmount != 20 || sum.GSTAmount != 32.4 || sum.GrandTotal != 212.4 || sum.BalanceDue != 112.4 || sum.Settled {
		t.Errorf("summary = %+v", sum)
	}
}

// collideOnInsert fails the next n invoice inserts the way a unique index
// does when another writer has already taken the number.
func (f *fixture) collideOnInsert(t *testing.T, n int) *int {
	t.Helper()
	attempts := 0
	err := f.db.Callback().Create().Before("gorm:create").Register("test:collide", func(db *gorm.DB) {
		if db.Statement.Schema == nil || db.Statement.Schema.Table != "invoices" {
			return
		}
		attempts++
		if attempts <= n {
			db.AddError(errors.New("UNIQUE constraint failed: invoices.invoice_number"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	return &attempts
}

func TestCreateInvoiceRetriesTakenNumber(t *testing.T) {
	f := setup(t)
	attempts := f.collideOnInsert(t, 1)

	in := f.input()
	in.CustomerID = 0
	in.CustomerName = "Meera"
	in.CustomerPhone = "9000000001"
	inv, err := f.h.CreateInvoice(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if *attempts != 2 {
		t.Errorf("insert attempts = %d, want 2", *attempts)
	}
	if inv.InvoiceNumber != "WHISK-01" {
		t.Errorf("number = %s", inv.InvoiceNumber)
	}

	var invoices, walkIns int64
	f.db.Model(&models.Invoice{}).Count(&invoices)
	f.db.Model(&models.Customer{}).Where("name = ?", "Meera").Count(&walkIns)
	if invoices != 1 || walkIns != 1 {
		t.Errorf("stored %d invoices, %d walk-in customers; want 1 each", invoices, walkIns)
	}
}

func TestCreateInvoiceGivesUpAfterOneRetry(t *testing.T) {
	f := setup(t)
	attempts := f.collideOnInsert(t, 2)

	_, err := f.h.CreateInvoice(context.Background(), f.input())
	if status.Code(err) != codes.AlreadyExists {
		t.Fatalf("code = %v (%v)", status.Code(err), err)
	}
	if *attempts != 2 {
		t.Errorf("insert attempts = %d, want 2", *attempts)
	}
	var count int64
	f.db.Model(&models.Invoice{}).Count(&count)
	if count != 0 {
		t.Errorf("%d invoices stored", count)
	}
}

func TestInvoiceRoundTripKeepsSnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := f.input()
	in.Items = append(in.Items, api.InvoiceItem{ProductID: api.ID(f.cake.ID), ProductName: "Croissant", Quantity: 3, Price: 75, Discount: 0, GST: 5})
	// A snapshot that disagrees with the items is stored as sent.
	in.Subtotal, in.Total = 999.99, 1234.56

	created, err := f.h.CreateInvoice(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := f.h.GetInvoice(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Subtotal != 999.99 || got.Total != 1234.56 {
			t.Fatalf("snapshot drifted: subtotal=%v total=%v", got.Subtotal, got.Total)
		}
		if len(got.Items) != 2 || got.Items[0].ProductName != "Chocolate Cake" || got.Items[1].ProductName != "Croissant" {
			t.Fatalf("items = %+v", got.Items)
		}
		if got.Items[1].Quantity != 3 || got.Items[1].Price != 75 || got.Items[1].GST != 5 {
			t.Fatalf("item values = %+v", got.Items[1])
		}

		next := f.input()
		next.Items = make([]api.InvoiceItem, len(got.Items))
		copy(next.Items, got.Items)
		next.Subtotal, next.Total = api.Number(got.Subtotal), api.Number(got.Total)
		if _, err := f.h.UpdateInvoice(ctx, created.ID, next); err != nil {
			t.Fatalf("resave: %v", err)
		}
	}

	var rows int64
	f.db.Model(&models.InvoiceItem{}).Where("invoice_id = ?", created.ID).Count(&rows)
	if rows != 2 {
		t.Errorf("%d item rows after resaves", rows)
	}
}

func TestWalkInCustomerIsRegistered(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := f.input()
	in.CustomerID = 0
	in.CustomerName = "Meena"
	in.CustomerPhone = "9000000001"
	in.CustomerBirthday = "1995-06-02"
	in.CustomerAnniversary = "2020-11-20"
	in.CustomerAddress = "12 Baker Lane"
	in.Date = ""
	in.PaymentStatus = ""
	in.AmountPaid = 212.4

	got, err := f.h.CreateInvoice(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var customer models.Customer
	if err := f.db.First(&customer, got.CustomerID).Error; err != nil {
		t.Fatalf("walk-in not registered: %v", err)
	}
	if customer.Name != "Meena" || customer.Phone != "9000000001" || customer.Birthday != "1995-06-02" {
		t.Errorf("customer = %+v", customer)
	}
	if got.CustomerPhone != "9000000001" {
		t.Errorf("invoice phone = %s", got.CustomerPhone)
	}

	reloaded, err := f.h.GetInvoice(ctx, got.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.CustomerAddress != "12 Baker Lane" || reloaded.CustomerBirthday != "1995-06-02" ||
		reloaded.CustomerAnniversary != "2020-11-20" || reloaded.CustomerPhone != "9000000001" {
		t.Errorf("reloaded bundle = %+v", reloaded)
	}
	if got.Date != f.today {
		t.Errorf("blank date became %s", got.Date)
	}
	if got.PaymentStatus != "Paid" || !got.Summary.Settled {
		t.Errorf("status=%s settled=%v", got.PaymentStatus, got.Summary.Settled)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	noItems := f.input()
	noItems.Items = nil

	noProduct := f.input()
	noProduct.Items[0].ProductID = 0

	zeroQty := f.input()
	zeroQty.Items[0].Quantity = 0

	noCustomer := f.input()
	noCustomer.CustomerID = 0
	noCustomer.CustomerName = "Walk-in"

	unknownCustomer := f.input()
	unknownCustomer.CustomerID = 999

	badDate := f.input()
	badDate.Date = "14/03/2026"

	badOrder := f.input()
	badOrder.OrderType = "Drone"

	badStatus := f.input()
	badStatus.PaymentStatus = "Maybe"

	negativePrice := f.input()
	negativePrice.Items[0].Price = -10

	bigDiscount := f.input()
	bigDiscount.Items[0].Discount = 150

	negativeGST := f.input()
	negativeGST.Items[0].GST = -5

	cases := map[string]*api.InvoiceInput{
		"no items": noItems, "no product": noProduct, "zero qty": zeroQty,
		"no customer": noCustomer, "unknown customer": unknownCustomer,
		"bad date": badDate, "bad order type": badOrder, "bad status": badStatus,
		"negative price": negativePrice, "discount over 100": bigDiscount, "negative gst": negativeGST,
	}
	for name, in := range cases {
		if _, err := f.h.CreateInvoice(ctx, in); status.Code(err) != codes.InvalidArgument {
			t.Errorf("%s: code = %v (%v)", name, status.Code(err), err)
		}
	}

	var count int64
	f.db.Model(&models.Invoice{}).Count(&count)
	if count != 0 {
		t.Errorf("%d invalid invoices stored", count)
	}
}

func TestUpdateInvoicePreservesNumber(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.h.CreateInvoice(ctx, f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	in := f.input()
	in.PaymentStatus = "overdue"
	in.OrderType = "take away"
	updated, err := f.h.UpdateInvoice(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.InvoiceNumber != created.InvoiceNumber {
		t.Errorf("number changed from %s to %s", created.InvoiceNumber, updated.InvoiceNumber)
	}
	if updated.PaymentStatus != "Overdue" || updated.OrderType != models.OrderTakeaway {
		t.Errorf("status=%s order=%s", updated.PaymentStatus, updated.OrderType)
	}

	if _, err := f.h.UpdateInvoice(ctx, 999, f.input()); status.Code(err) != codes.NotFound {
		t.Errorf("missing invoice code = %v", status.Code(err))
	}
}

func TestNumberingContinuesAfterBackfill(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.h.CreateInvoice(ctx, f.input()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	f.db.Model(&models.Invoice{}).Where("1 = 1").Update("invoice_number", gorm.Expr("NULL"))
	if _, err := database.BackfillInvoiceNumbers(f.db, "WHISK"); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	got, err := f.h.CreateInvoice(ctx, f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.InvoiceNumber != "WHISK-03" {
		t.Errorf("number = %s", got.InvoiceNumber)
	}
}

func TestListInvoicesOrderAndFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, d := range []string{"2026-01-05", "2026-03-01", "2026-02-10"} {
		in := f.input()
		in.Date = d
		if d == "2026-02-10" {
			in.PaymentStatus = "Paid"
		}
		if _, err := f.h.CreateInvoice(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, err := f.h.ListInvoices(ctx, &api.ListInvoicesRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var dates []string
	for _, inv := range res.Results {
		dates = append(dates, inv.Date)
	}
	if strings.Join(dates, ",") != "2026-03-01,2026-02-10,2026-01-05" || res.Total != 3 {
		t.Errorf("dates = %v total = %d", dates, res.Total)
	}

	res, _ = f.h.ListInvoices(ctx, &api.ListInvoicesRequest{Status: "paid"})
	if res.Total != 1 || res.Results[0].Date != "2026-02-10" {
		t.Errorf("paid filter = %+v", res)
	}

	res, _ = f.h.ListInvoices(ctx, &api.ListInvoicesRequest{Search: "whisk-03"})
	if res.Total != 1 || res.Results[0].InvoiceNumber != "WHISK-03" {
		t.Errorf("number search = %+v", res)
	}

	res, _ = f.h.ListInvoices(ctx, &api.ListInvoicesRequest{Search: "arun", Page: api.Page{Limit: 500}})
	if res.Total != 3 || len(res.Results) != 3 {
		t.Errorf("name search = %d", res.Total)
	}
}

func TestDeleteInvoice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.h.CreateInvoice(ctx, f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.h.DeleteInvoice(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.h.GetInvoice(ctx, created.ID); status.Code(err) != codes.NotFound {
		t.Errorf("get after delete code = %v", status.Code(err))
	}
	if err := f.h.DeleteInvoice(ctx, created.ID); status.Code(err) != codes.NotFound {
		t.Errorf("second delete code = %v", status.Code(err))
	}
}

func TestInvoiceEventsPublished(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub := f.rdb.Subscribe(ctx, EventChannelAll, EventChannelPrefix+EventInvoiceCreated)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	created, err := f.h.CreateInvoice(ctx, f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	channels := map[string]bool{}
	for i := 0; i < 2; i++ {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		channels[msg.Channel] = true

		var ev InvoiceEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.EventType != EventInvoiceCreated || ev.InvoiceID != created.ID || ev.InvoiceNumber != "WHISK-01" {
			t.Errorf("event = %+v", ev)
		}
	}
	if !channels[EventChannelAll] || !channels[EventChannelPrefix+EventInvoiceCreated] {
		t.Errorf("channels = %v", channels)
	}
}

func TestExportInvoices(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.h.CreateInvoice(ctx, f.input()); err != nil {
		t.Fatalf("create: %v", err)
	}

	data, err := f.h.ExportInvoices(ctx, &api.ListInvoicesRequest{}, ExportXLSX)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer book.Close()
	rows, err := book.GetRows("Invoices")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "Invoice" || rows[1][0] != "WHISK-01" || rows[1][2] != "Arun Kumar" {
		t.Errorf("rows = %v", rows)
	}

	csvData, err := f.h.ExportInvoices(ctx, &api.ListInvoicesRequest{}, ExportCSV)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "WHISK-01,2026-03-01,Arun Kumar,InStore,1,200.00") {
		t.Errorf("csv = %q", csvData)
	}

	if _, err := f.h.ExportInvoices(ctx, &api.ListInvoicesRequest{}, "pdf"); status.Code(err) != codes.InvalidArgument {
		t.Errorf("pdf code = %v", status.Code(err))
	}
}
