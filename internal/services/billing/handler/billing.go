package handler

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"whisk-system/internal/api"
	"whisk-system/internal/cache"
	"whisk-system/internal/database"
	"whisk-system/internal/database/models"
	"whisk-system/internal/metrics"
	"whisk-system/internal/pricing"

	"github.com/go-redis/redis/v8"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const (
	DefaultInvoicePrefix = "WHISK"

	defaultPageSize = 10
	maxPageSize     = 100
)

type BillingHandler struct {
	db     *gorm.DB
	cache  *cache.Cache
	prefix string
	now    func() time.Time
}

func NewBillingHandler(db *gorm.DB, redisClient *redis.Client, invoicePrefix string) *BillingHandler {
	if invoicePrefix == "" {
		invoicePrefix = DefaultInvoicePrefix
	}
	return &BillingHandler{
		db:     db,
		cache:  cache.New(redisClient),
		prefix: invoicePrefix,
		now:    time.Now,
	}
}

func (s *BillingHandler) InvalidateBillingCaches(ctx context.Context, customersChanged bool) {
	if customersChanged {
		s.cache.Invalidate(ctx, cache.NamespaceInvoices, cache.NamespaceCustomers)
		return
	}
	s.cache.Invalidate(ctx, cache.NamespaceInvoices)
}

func invoiceLines(items []models.InvoiceItem) []pricing.InvoiceLine {
	lines := make([]pricing.InvoiceLine, len(items))
	for i, it := range items {
		lines[i] = pricing.InvoiceLine{Quantity: it.Quantity, Price: it.Price, Discount: it.Discount, GST: it.GST}
	}
	return lines
}

// invoiceToAPI returns the stored snapshot untouched and adds a summary
// recomputed from the stored items.
func invoiceToAPI(inv models.Invoice) api.Invoice {
	out := api.Invoice{
		ID:                  inv.ID,
		InvoiceNumber:       inv.InvoiceNumber,
		CustomerID:          inv.CustomerID,
		CustomerName:        inv.CustomerName,
		CustomerPhone:       inv.CustomerPhone,
		CustomerEmail:       inv.CustomerEmail,
		CustomerAddress:     inv.CustomerAddress,
		CustomerBirthday:    inv.CustomerBirthday,
		CustomerAnniversary: inv.CustomerAnniversary,
		Date:                inv.Date,
		Items:               make([]api.InvoiceItem, len(inv.Items)),
		Subtotal:            inv.Subtotal,
		Discount:            inv.Discount,
		GST:                 inv.GST,
		Total:               inv.Total,
		PaymentStatus:       inv.PaymentStatus,
		OrderType:           inv.OrderType,
		Notes:               inv.Notes,
		AmountPaid:          inv.AmountPaid,
	}
	for i, it := range inv.Items {
		out.Items[i] = api.InvoiceItem{
			ProductID:   api.ID(it.ProductID),
			ProductName: it.ProductName,
			Quantity:    api.Number(it.Quantity),
			Price:       api.Number(it.Price),
			Discount:    api.Number(it.Discount),
			GST:         api.Number(it.GST),
		}
	}

	totals := pricing.InvoiceTotalsFor(invoiceLines(inv.Items), inv.AmountPaid)
	out.Summary = api.InvoiceSummary{
		Subtotal:       pricing.Float64(totals.Subtotal),
		DiscountAmount: pricing.Float64(totals.DiscountAmount),
		GSTAmount:      pricing.Float64(totals.GSTAmount),
		GrandTotal:     pricing.Float64(totals.GrandTotal),
		BalanceDue:     pricing.Float64(totals.BalanceDue),
		Settled:        totals.Settled(),
	}
	return out
}

func idString(id api.ID) string {
	if id <= 0 {
		return ""
	}
	return id.String()
}

// buildInvoice validates the request and fills everything but the customer
// and the invoice number.
func (s *BillingHandler) buildInvoice(req *api.InvoiceInput) (models.Invoice, error) {
	draft := pricing.InvoiceDraft{
		CustomerID:    idString(req.CustomerID),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Lines:         make([]pricing.InvoiceDraftLine, len(req.Items)),
	}
	for i, it := range req.Items {
		draft.Lines[i] = pricing.InvoiceDraftLine{
			ProductID: idString(it.ProductID),
			Quantity:  it.Quantity.Float64(),
			Price:     it.Price.Float64(),
			Discount:  it.Discount.Float64(),
			GST:       it.GST.Float64(),
		}
	}
	if err := pricing.ValidateInvoiceDraft(draft); err != nil {
		return models.Invoice{}, status.Error(codes.InvalidArgument, err.Error())
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().Format(pricing.DateLayout)
	} else if _, err := pricing.ParseDate(date); err != nil {
		return models.Invoice{}, status.Errorf(codes.InvalidArgument, "date: expected YYYY-MM-DD, got %q", req.Date)
	}

	orderType := models.OrderInStore
	if strings.TrimSpace(req.OrderType) != "" {
		ot, ok := models.ParseOrderType(req.OrderType)
		if !ok {
			return models.Invoice{}, status.Errorf(codes.InvalidArgument, "orderType: unknown order type %q", req.OrderType)
		}
		orderType = ot
	}

	inv := models.Invoice{
		Date:       date,
		Subtotal:   req.Subtotal.Float64(),
		Discount:   req.Discount.Float64(),
		GST:        req.GST.Float64(),
		Total:      req.Total.Float64(),
		AmountPaid: req.AmountPaid.Float64(),
		OrderType:  orderType,
		Notes:      req.Notes,
		Items:      make([]models.InvoiceItem, len(req.Items)),
	}
	for i, it := range req.Items {
		inv.Items[i] = models.InvoiceItem{
			Position:    i,
			ProductID:   int64(it.ProductID),
			ProductName: strings.TrimSpace(it.ProductName),
			Quantity:    it.Quantity.Float64(),
			Price:       it.Price.Float64(),
			Discount:    it.Discount.Float64(),
			GST:         it.GST.Float64(),
		}
	}

	if strings.TrimSpace(req.PaymentStatus) == "" {
		totals := pricing.InvoiceTotalsFor(invoiceLines(inv.Items), inv.AmountPaid)
		inv.PaymentStatus = string(pricing.PaymentStatusFor(totals, inv.AmountPaid))
	} else {
		ps, ok := pricing.ParsePaymentStatus(req.PaymentStatus)
		if !ok {
			return models.Invoice{}, status.Errorf(codes.InvalidArgument, "paymentStatus: unknown payment status %q", req.PaymentStatus)
		}
		inv.PaymentStatus = string(ps)
	}
	return inv, nil
}

// resolveCustomer links inv to an existing customer or registers the walk-in
// customer described by the request. It reports whether a customer was
// created.
func resolveCustomer(tx *gorm.DB, inv *models.Invoice, req *api.InvoiceInput) (bool, error) {
	inv.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	inv.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	inv.CustomerAddress = strings.TrimSpace(req.CustomerAddress)
	inv.CustomerBirthday = strings.TrimSpace(req.CustomerBirthday)
	inv.CustomerAnniversary = strings.TrimSpace(req.CustomerAnniversary)

	if req.CustomerID > 0 {
		var customer models.Customer
		if err := tx.First(&customer, int64(req.CustomerID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, status.Errorf(codes.InvalidArgument, "Customer not found")
			}
			return false, err
		}
		inv.CustomerID = customer.ID
		inv.CustomerName = customer.Name
		return false, nil
	}

	customer := models.Customer{
		Name:        strings.TrimSpace(req.CustomerName),
		Email:       inv.CustomerEmail,
		Phone:       inv.CustomerPhone,
		Address:     inv.CustomerAddress,
		Birthday:    inv.CustomerBirthday,
		Anniversary: inv.CustomerAnniversary,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return false, err
	}
	inv.CustomerID = customer.ID
	inv.CustomerName = customer.Name
	return true, nil
}

// nextInvoiceNumber continues the sequence of the newest numbered invoice.
// A number whose suffix is not an integer restarts the count.
func (s *BillingHandler) nextInvoiceNumber(tx *gorm.DB) (string, error) {
	var last models.Invoice
	err := tx.Where("invoice_number IS NOT NULL AND invoice_number <> ''").Order("id DESC").First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	seq := 0
	if last.InvoiceNumber != "" {
		parts := strings.Split(last.InvoiceNumber, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			seq = n
		}
	}
	return database.FormatInvoiceNumber(s.prefix, seq+1), nil
}

func (s *BillingHandler) loadInvoice(ctx context.Context, tx *gorm.DB, id int64) (models.Invoice, error) {
	var inv models.Invoice
	if id <= 0 {
		return inv, status.Errorf(codes.InvalidArgument, "Invoice ID is required")
	}
	err := tx.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&inv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inv, status.Errorf(codes.NotFound, "Invoice not found")
		}
		return inv, status.Errorf(codes.Internal, "Failed to get invoice: %v", err)
	}
	return inv, nil
}

// insertInvoice builds the invoice from req and stores it with the next
// invoice number in one transaction.
func (s *BillingHandler) insertInvoice(ctx context.Context, req *api.InvoiceInput) (models.Invoice, bool, error) {
	inv, err := s.buildInvoice(req)
	if err != nil {
		return inv, false, err
	}

	var newCustomer bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := resolveCustomer(tx, &inv, req)
		if err != nil {
			return err
		}
		newCustomer = created

		number, err := s.nextInvoiceNumber(tx)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		return tx.Create(&inv).Error
	})
	return inv, newCustomer, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func asStatus(err error, msg string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Errorf(codes.Internal, "%s: %v", msg, err)
}

// -- Invoices --

func (s *BillingHandler) CreateInvoice(ctx context.Context, req *api.InvoiceInput) (*api.Invoice, error) {
	inv, newCustomer, err := s.insertInvoice(ctx, req)
	if isUniqueViolation(err) {
		// Another create took the number between read and insert.
		log.Printf("Invoice number %s already taken, retrying", inv.InvoiceNumber)
		inv, newCustomer, err = s.insertInvoice(ctx, req)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, status.Errorf(codes.AlreadyExists, "Invoice number %s already taken, please retry", inv.InvoiceNumber)
		}
		return nil, asStatus(err, "Failed to create invoice")
	}

	s.InvalidateBillingCaches(ctx, newCustomer)
	metrics.InvoicesSaved.WithLabelValues("created").Inc()

	out := invoiceToAPI(inv)
	s.publish(ctx, EventInvoiceCreated, &out)
	return &out, nil
}

// UpdateInvoice replaces the invoice contents. The invoice number is kept.
func (s *BillingHandler) UpdateInvoice(ctx context.Context, id int64, req *api.InvoiceInput) (*api.Invoice, error) {
	existing, err := s.loadInvoice(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	inv, err := s.buildInvoice(req)
	if err != nil {
		return nil, err
	}
	inv.ID = existing.ID
	inv.InvoiceNumber = existing.InvoiceNumber
	inv.CreatedAt = existing.CreatedAt

	var newCustomer bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := resolveCustomer(tx, &inv, req)
		if err != nil {
			return err
		}
		newCustomer = created

		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		items := inv.Items
		inv.Items = nil
		if err := tx.Save(&inv).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		inv.Items = items
		return nil
	})
	if err != nil {
		return nil, asStatus(err, "Failed to update invoice")
	}

	s.InvalidateBillingCaches(ctx, newCustomer)
	metrics.InvoicesSaved.WithLabelValues("updated").Inc()

	out := invoiceToAPI(inv)
	s.publish(ctx, EventInvoiceUpdated, &out)
	return &out, nil
}

func (s *BillingHandler) GetInvoice(ctx context.Context, id int64) (*api.Invoice, error) {
	inv, err := s.loadInvoice(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	out := invoiceToAPI(inv)
	return &out, nil
}

func (s *BillingHandler) DeleteInvoice(ctx context.Context, id int64) error {
	inv, err := s.loadInvoice(ctx, s.db, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, inv.ID).Error
	})
	if err != nil {
		return status.Errorf(codes.Internal, "Failed to delete invoice: %v", err)
	}

	s.InvalidateBillingCaches(ctx, false)
	metrics.InvoicesSaved.WithLabelValues("deleted").Inc()

	out := invoiceToAPI(inv)
	s.publish(ctx, EventInvoiceDeleted, &out)
	return nil
}

func (s *BillingHandler) filteredInvoices(ctx context.Context, req *api.ListInvoicesRequest) (*gorm.DB, string, error) {
	query := s.db.WithContext(ctx).Model(&models.Invoice{})

	search := strings.ToLower(strings.TrimSpace(req.Search))
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(customer_name) LIKE ? OR LOWER(invoice_number) LIKE ?", like, like)
	}

	st := ""
	if strings.TrimSpace(req.Status) != "" {
		ps, ok := pricing.ParsePaymentStatus(req.Status)
		if !ok {
			return nil, "", status.Errorf(codes.InvalidArgument, "Unknown payment status: %s", req.Status)
		}
		st = string(ps)
		query = query.Where("payment_status = ?", st)
	}
	return query, search + "|" + st, nil
}

// ListInvoices returns the newest invoices first.
func (s *BillingHandler) ListInvoices(ctx context.Context, req *api.ListInvoicesRequest) (*api.ListResult[api.Invoice], error) {
	page := req.Page.Normalize(defaultPageSize, maxPageSize)
	query, filterKey, err := s.filteredInvoices(ctx, req)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cache.Key(ctx, cache.NamespaceInvoices, "list", page.Skip, page.Limit, filterKey)
	var cached api.ListResult[api.Invoice]
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to count invoices: %v", err)
	}

	var invoices []models.Invoice
	err = query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("date DESC, id DESC").Offset(page.Skip).Limit(page.Limit).Find(&invoices).Error
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to list invoices: %v", err)
	}

	result := &api.ListResult[api.Invoice]{
		Results: make([]api.Invoice, len(invoices)),
		Total:   total,
	}
	for i, inv := range invoices {
		result.Results[i] = invoiceToAPI(inv)
	}

	s.cache.Set(ctx, cacheKey, result, cache.TTLShort)
	return result, nil
}

func (s *BillingHandler) publish(ctx context.Context, eventType string, inv *api.Invoice) {
	if err := s.publishInvoiceEvent(ctx, newInvoiceEvent(eventType, inv, s.now())); err != nil {
		log.Printf("Failed to publish %s for invoice %d: %v", eventType, inv.ID, err)
	}
}
