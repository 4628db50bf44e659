package handlers

import (
	"context"
	"net/http"

	"whisk-system/internal/api"

	"github.com/gin-gonic/gin"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, req *api.CustomerInput) (*api.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, req *api.CustomerInput) (*api.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*api.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	ListCustomers(ctx context.Context, req *api.ListCustomersRequest) (*api.ListResult[api.Customer], error)
	Upcoming(ctx context.Context, days int) ([]api.UpcomingEvent, error)
}

type CustomerHTTPHandler struct {
	customers CustomerService
}

func NewCustomerHTTPHandler(customers CustomerService) *CustomerHTTPHandler {
	return &CustomerHTTPHandler{customers: customers}
}

func (h *CustomerHTTPHandler) CreateCustomer(c *gin.Context) {
	var req api.CustomerInput
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHTTPHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req api.CustomerInput
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHTTPHandler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHTTPHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.customers.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondDeleted(c, "Customer")
}

func (h *CustomerHTTPHandler) ListCustomers(c *gin.Context) {
	resp, err := h.customers.ListCustomers(c.Request.Context(), &api.ListCustomersRequest{
		Page:   buildPage(c),
		Search: c.Query("search"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Upcoming lists birthdays and anniversaries; ?days= overrides the window.
func (h *CustomerHTTPHandler) Upcoming(c *gin.Context) {
	events, err := h.customers.Upcoming(c.Request.Context(), parseIntQuery(c, "days", 0))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": events, "total": len(events)})
}
