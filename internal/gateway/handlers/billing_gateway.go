package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"whisk-system/internal/api"

	"github.com/gin-gonic/gin"
)

type BillingService interface {
	CreateInvoice(ctx context.Context, req *api.InvoiceInput) (*api.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, req *api.InvoiceInput) (*api.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*api.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
	ListInvoices(ctx context.Context, req *api.ListInvoicesRequest) (*api.ListResult[api.Invoice], error)
	ExportInvoices(ctx context.Context, req *api.ListInvoicesRequest, format string) ([]byte, error)
}

type BillingHTTPHandler struct {
	billing BillingService
}

func NewBillingHTTPHandler(billing BillingService) *BillingHTTPHandler {
	return &BillingHTTPHandler{billing: billing}
}

func listInvoicesRequest(c *gin.Context) *api.ListInvoicesRequest {
	return &api.ListInvoicesRequest{
		Page:   buildPage(c),
		Search: c.Query("search"),
		Status: c.Query("status"),
	}
}

// Invoice endpoints
func (h *BillingHTTPHandler) CreateInvoice(c *gin.Context) {
	var req api.InvoiceInput
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.billing.CreateInvoice(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *BillingHTTPHandler) UpdateInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req api.InvoiceInput
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.billing.UpdateInvoice(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *BillingHTTPHandler) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.billing.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *BillingHTTPHandler) DeleteInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.billing.DeleteInvoice(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondDeleted(c, "Invoice")
}

func (h *BillingHTTPHandler) ListInvoices(c *gin.Context) {
	resp, err := h.billing.ListInvoices(c.Request.Context(), listInvoicesRequest(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

var exportContentTypes = map[string]string{
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":  "text/csv; charset=utf-8",
}

// ExportInvoices streams every matching invoice as a spreadsheet download.
func (h *BillingHTTPHandler) ExportInvoices(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))

	data, err := h.billing.ExportInvoices(c.Request.Context(), listInvoicesRequest(c), format)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("invoices-%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, exportContentTypes[format], data)
}
