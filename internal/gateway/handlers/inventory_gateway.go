package handlers

import (
	"context"
	"net/http"

	"whisk-system/internal/api"

	"github.com/gin-gonic/gin"
)

type InventoryService interface {
	CreateStockItem(ctx context.Context, req *api.StockItemInput) (*api.StockItem, error)
	UpdateStockItem(ctx context.Context, id int64, req *api.StockItemInput) (*api.StockItem, error)
	GetStockItem(ctx context.Context, id int64) (*api.StockItem, error)
	DeleteStockItem(ctx context.Context, id int64) error
	ListStockItems(ctx context.Context, req *api.ListStockItemsRequest) (*api.ListResult[api.StockItem], error)
	RecordPurchase(ctx context.Context, id int64, req *api.StockPurchase) (*api.StockItem, error)
}

type InventoryHTTPHandler struct {
	inventory InventoryService
}

func NewInventoryHTTPHandler(inventory InventoryService) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{inventory: inventory}
}

func listStockRequest(c *gin.Context) *api.ListStockItemsRequest {
	return &api.ListStockItemsRequest{
		Page:     buildPage(c),
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}
}

// Stock item endpoints
func (s *InventoryHTTPHandler) CreateStockItem(c *gin.Context) {
	var req api.StockItemInput
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.inventory.CreateStockItem(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *InventoryHTTPHandler) UpdateStockItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req api.StockItemInput
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.inventory.UpdateStockItem(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *InventoryHTTPHandler) GetStockItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := s.inventory.GetStockItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *InventoryHTTPHandler) DeleteStockItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := s.inventory.DeleteStockItem(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondDeleted(c, "Stock item")
}

func (s *InventoryHTTPHandler) ListStockItems(c *gin.Context) {
	resp, err := s.inventory.ListStockItems(c.Request.Context(), listStockRequest(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPublicStockItems serves the storefront catalogue without a token.
// Only finished products are listed, and cost prices are withheld.
func (s *InventoryHTTPHandler) ListPublicStockItems(c *gin.Context) {
	req := listStockRequest(c)
	req.Category = "Finished Product"

	resp, err := s.inventory.ListStockItems(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	for i := range resp.Results {
		resp.Results[i].CostPerUnit = 0
	}
	c.JSON(http.StatusOK, resp)
}

func (s *InventoryHTTPHandler) RecordPurchase(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req api.StockPurchase
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.inventory.RecordPurchase(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
