package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"whisk-system/internal/api"
	"whisk-system/internal/cache"
	"whisk-system/internal/dashboard"
	"whisk-system/internal/database/models"
	"whisk-system/internal/pricing"

	"github.com/go-redis/redis/v8"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type CustomerHandler struct {
	db         *gorm.DB
	cache      *cache.Cache
	windowDays int
	now        func() time.Time
}

// NewCustomerHandler uses windowDays for Upcoming when the caller passes no
// window of its own.
func NewCustomerHandler(db *gorm.DB, redisClient *redis.Client, windowDays int) *CustomerHandler {
	if windowDays <= 0 {
		windowDays = pricing.DefaultUpcomingWindowDays
	}
	return &CustomerHandler{
		db:         db,
		cache:      cache.New(redisClient),
		windowDays: windowDays,
		now:        time.Now,
	}
}

func customerToAPI(c models.Customer) api.Customer {
	return api.Customer{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Birthday:    c.Birthday,
		Anniversary: c.Anniversary,
	}
}

func applyInput(c *models.Customer, req *api.CustomerInput) error {
	var errs pricing.ValidationErrors
	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, pricing.ValidationError{Field: "name", Message: "name is required"})
	}
	birthday := strings.TrimSpace(req.Birthday)
	if birthday != "" {
		if _, err := pricing.ParseDate(birthday); err != nil {
			errs = append(errs, pricing.ValidationError{Field: "birthday", Message: "expected YYYY-MM-DD"})
		}
	}
	anniversary := strings.TrimSpace(req.Anniversary)
	if anniversary != "" {
		if _, err := pricing.ParseDate(anniversary); err != nil {
			errs = append(errs, pricing.ValidationError{Field: "anniversary", Message: "expected YYYY-MM-DD"})
		}
	}
	if len(errs) > 0 {
		return status.Error(codes.InvalidArgument, errs.Error())
	}

	c.Name = name
	c.Email = strings.TrimSpace(req.Email)
	c.Phone = strings.TrimSpace(req.Phone)
	c.Address = strings.TrimSpace(req.Address)
	c.Birthday = birthday
	c.Anniversary = anniversary
	return nil
}

func (s *CustomerHandler) findCustomer(ctx context.Context, id int64) (models.Customer, error) {
	var c models.Customer
	if id <= 0 {
		return c, status.Errorf(codes.InvalidArgument, "Customer ID is required")
	}
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c, status.Errorf(codes.NotFound, "Customer not found")
		}
		return c, status.Errorf(codes.Internal, "Failed to get customer: %v", err)
	}
	return c, nil
}

// -- Customers --

func (s *CustomerHandler) CreateCustomer(ctx context.Context, req *api.CustomerInput) (*api.Customer, error) {
	var c models.Customer
	if err := applyInput(&c, req); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to create customer: %v", err)
	}

	s.cache.Invalidate(ctx, cache.NamespaceCustomers)

	out := customerToAPI(c)
	return &out, nil
}

func (s *CustomerHandler) UpdateCustomer(ctx context.Context, id int64, req *api.CustomerInput) (*api.Customer, error) {
	c, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(&c, req); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to update customer: %v", err)
	}

	s.cache.Invalidate(ctx, cache.NamespaceCustomers)

	out := customerToAPI(c)
	return &out, nil
}

func (s *CustomerHandler) GetCustomer(ctx context.Context, id int64) (*api.Customer, error) {
	c, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	out := customerToAPI(c)
	return &out, nil
}

// DeleteCustomer removes the customer only. Invoices keep their copy of the
// customer's name and contact details.
func (s *CustomerHandler) DeleteCustomer(ctx context.Context, id int64) error {
	if id <= 0 {
		return status.Errorf(codes.InvalidArgument, "Customer ID is required")
	}
	res := s.db.WithContext(ctx).Delete(&models.Customer{}, id)
	if res.Error != nil {
		return status.Errorf(codes.Internal, "Failed to delete customer: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return status.Errorf(codes.NotFound, "Customer not found")
	}

	s.cache.Invalidate(ctx, cache.NamespaceCustomers)
	return nil
}

func (s *CustomerHandler) ListCustomers(ctx context.Context, req *api.ListCustomersRequest) (*api.ListResult[api.Customer], error) {
	page := req.Page.Normalize(defaultPageSize, maxPageSize)
	search := strings.ToLower(strings.TrimSpace(req.Search))

	cacheKey := s.cache.Key(ctx, cache.NamespaceCustomers, "list", page.Skip, page.Limit, search)
	var cached api.ListResult[api.Customer]
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	query := s.db.WithContext(ctx).Model(&models.Customer{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to count customers: %v", err)
	}

	var customers []models.Customer
	if err := query.Order("name ASC, id ASC").Offset(page.Skip).Limit(page.Limit).Find(&customers).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to list customers: %v", err)
	}

	result := &api.ListResult[api.Customer]{
		Results: make([]api.Customer, len(customers)),
		Total:   total,
	}
	for i, c := range customers {
		result.Results[i] = customerToAPI(c)
	}

	s.cache.Set(ctx, cacheKey, result, cache.TTLShort)
	return result, nil
}

// Upcoming lists birthdays and anniversaries due within days of today,
// soonest first. days <= 0 uses the handler's window.
func (s *CustomerHandler) Upcoming(ctx context.Context, days int) ([]api.UpcomingEvent, error) {
	if days <= 0 {
		days = s.windowDays
	}

	var customers []models.Customer
	err := s.db.WithContext(ctx).
		Where("(birthday IS NOT NULL AND birthday <> '') OR (anniversary IS NOT NULL AND anniversary <> '')").
		Find(&customers).Error
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to load customers: %v", err)
	}

	snapshot := make([]api.Customer, len(customers))
	for i, c := range customers {
		snapshot[i] = customerToAPI(c)
	}
	return dashboard.UpcomingEvents(snapshot, s.now(), days), nil
}
