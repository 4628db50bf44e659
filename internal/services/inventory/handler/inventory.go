package handler

import (
	"context"
	"errors"
	"strings"

	"whisk-system/internal/api"
	"whisk-system/internal/cache"
	"whisk-system/internal/database/models"
	"whisk-system/internal/pricing"

	"github.com/go-redis/redis/v8"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 1000
)

type InventoryHandler struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewInventoryHandler(db *gorm.DB, redisClient *redis.Client) *InventoryHandler {
	return &InventoryHandler{
		db:    db,
		cache: cache.New(redisClient),
	}
}

// InvalidateInventoryCaches retires cached stock pages and the recipe pages
// whose costs were derived from them.
func (s *InventoryHandler) InvalidateInventoryCaches(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.NamespaceStock, cache.NamespaceRecipes)
}

func stockItemToAPI(item models.StockItem) api.StockItem {
	out := api.StockItem{
		ID:                item.ID,
		Name:              item.Name,
		Category:          item.Category,
		Quantity:          item.Quantity,
		Unit:              item.Unit,
		CostPerUnit:       item.CostPerUnit,
		LowStockThreshold: item.LowStockThreshold,
		Status:            string(pricing.StockStatusFor(item.Quantity, item.LowStockThreshold)),
	}
	if item.SellingPrice != nil {
		p := api.Number(*item.SellingPrice)
		out.SellingPrice = &p
	}
	return out
}

// applyInput copies a validated input onto item. Selling price only survives
// on finished products.
func applyInput(item *models.StockItem, req *api.StockItemInput) error {
	var errs pricing.ValidationErrors
	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, pricing.ValidationError{Field: "name", Message: "name is required"})
	}
	category, ok := models.ParseStockCategory(req.Category)
	if !ok {
		errs = append(errs, pricing.ValidationError{Field: "category", Message: "unknown category " + req.Category})
	}
	if req.Quantity < 0 {
		errs = append(errs, pricing.ValidationError{Field: "quantity", Message: "quantity cannot be negative"})
	}
	if req.CostPerUnit < 0 {
		errs = append(errs, pricing.ValidationError{Field: "costPerUnit", Message: "cost cannot be negative"})
	}
	if req.LowStockThreshold < 0 {
		errs = append(errs, pricing.ValidationError{Field: "lowStockThreshold", Message: "threshold cannot be negative"})
	}
	if req.SellingPrice != nil && *req.SellingPrice < 0 {
		errs = append(errs, pricing.ValidationError{Field: "sellingPrice", Message: "selling price cannot be negative"})
	}
	if len(errs) > 0 {
		return status.Error(codes.InvalidArgument, errs.Error())
	}

	item.Name = name
	item.Category = category
	item.Quantity = req.Quantity.Float64()
	item.Unit = strings.TrimSpace(req.Unit)
	item.CostPerUnit = req.CostPerUnit.Float64()
	item.LowStockThreshold = req.LowStockThreshold.Float64()
	item.SellingPrice = nil
	if category == models.CategoryFinishedProduct && req.SellingPrice != nil {
		p := req.SellingPrice.Float64()
		item.SellingPrice = &p
	}
	return nil
}

func (s *InventoryHandler) findStockItem(ctx context.Context, tx *gorm.DB, id int64) (models.StockItem, error) {
	var item models.StockItem
	if id <= 0 {
		return item, status.Errorf(codes.InvalidArgument, "Stock item ID is required")
	}
	if err := tx.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return item, status.Errorf(codes.NotFound, "Stock item not found")
		}
		return item, status.Errorf(codes.Internal, "Failed to get stock item: %v", err)
	}
	return item, nil
}

// -- Stock Items --

func (s *InventoryHandler) CreateStockItem(ctx context.Context, req *api.StockItemInput) (*api.StockItem, error) {
	var item models.StockItem
	if err := applyInput(&item, req); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to create stock item: %v", err)
	}

	s.InvalidateInventoryCaches(ctx)

	out := stockItemToAPI(item)
	return &out, nil
}

// UpdateStockItem replaces every editable field of the item.
func (s *InventoryHandler) UpdateStockItem(ctx context.Context, id int64, req *api.StockItemInput) (*api.StockItem, error) {
	item, err := s.findStockItem(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(&item, req); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to update stock item: %v", err)
	}

	s.InvalidateInventoryCaches(ctx)

	out := stockItemToAPI(item)
	return &out, nil
}

func (s *InventoryHandler) GetStockItem(ctx context.Context, id int64) (*api.StockItem, error) {
	item, err := s.findStockItem(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	out := stockItemToAPI(item)
	return &out, nil
}

func (s *InventoryHandler) DeleteStockItem(ctx context.Context, id int64) error {
	if id <= 0 {
		return status.Errorf(codes.InvalidArgument, "Stock item ID is required")
	}
	res := s.db.WithContext(ctx).Delete(&models.StockItem{}, id)
	if res.Error != nil {
		return status.Errorf(codes.Internal, "Failed to delete stock item: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return status.Errorf(codes.NotFound, "Stock item not found")
	}

	s.InvalidateInventoryCaches(ctx)
	return nil
}

// statusScope filters by the classifier's rules so that paging and totals
// agree with the status every item is returned with.
func statusScope(st pricing.StockStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch st {
		case pricing.OutOfStock:
			return db.Where("quantity <= 0")
		case pricing.LowStock:
			return db.Where("quantity > 0 AND quantity <= low_stock_threshold")
		case pricing.InStock:
			return db.Where("quantity > 0 AND quantity > low_stock_threshold")
		}
		return db
	}
}

func (s *InventoryHandler) ListStockItems(ctx context.Context, req *api.ListStockItemsRequest) (*api.ListResult[api.StockItem], error) {
	page := req.Page.Normalize(defaultPageSize, maxPageSize)
	search := strings.TrimSpace(req.Search)

	query := s.db.WithContext(ctx).Model(&models.StockItem{})

	category := ""
	if strings.TrimSpace(req.Category) != "" {
		c, ok := models.ParseStockCategory(req.Category)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "Unknown category: %s", req.Category)
		}
		category = c
		query = query.Where("category = ?", category)
	}
	var st pricing.StockStatus
	if strings.TrimSpace(req.Status) != "" {
		parsed, ok := pricing.ParseStockStatus(req.Status)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "Unknown stock status: %s", req.Status)
		}
		st = parsed
		query = statusScope(st)(query)
	}
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	cacheKey := s.cache.Key(ctx, cache.NamespaceStock, "list", page.Skip, page.Limit, strings.ToLower(search), category, st)
	var cached api.ListResult[api.StockItem]
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to count stock items: %v", err)
	}

	var items []models.StockItem
	if err := query.Order("name ASC, id ASC").Offset(page.Skip).Limit(page.Limit).Find(&items).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to list stock items: %v", err)
	}

	result := &api.ListResult[api.StockItem]{
		Results: make([]api.StockItem, len(items)),
		Total:   total,
	}
	for i, item := range items {
		result.Results[i] = stockItemToAPI(item)
	}

	s.cache.Set(ctx, cacheKey, result, cache.TTLShort)
	return result, nil
}

// RecordPurchase adds stock and moves the unit cost to the weighted average
// of what was on hand and what was bought.
func (s *InventoryHandler) RecordPurchase(ctx context.Context, id int64, req *api.StockPurchase) (*api.StockItem, error) {
	if req.CostPerUnitOfPurchase < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Purchase cost cannot be negative")
	}

	var item models.StockItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.findStockItem(ctx, tx, id)
		if err != nil {
			return err
		}
		item = found

		qty, cost := pricing.WeightedAverageCost(item.Quantity, item.CostPerUnit,
			req.QuantityAdded.Float64(), req.CostPerUnitOfPurchase.Float64())
		if qty == item.Quantity && cost == item.CostPerUnit {
			return nil
		}
		item.Quantity, item.CostPerUnit = qty, cost

		return tx.Model(&models.StockItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"quantity":      item.Quantity,
			"cost_per_unit": item.CostPerUnit,
		}).Error
	})
	if err != nil {
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		return nil, status.Errorf(codes.Internal, "Failed to record purchase: %v", err)
	}

	s.InvalidateInventoryCaches(ctx)

	out := stockItemToAPI(item)
	return &out, nil
}
