package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"whisk-system/internal/api"
	"whisk-system/internal/pricing"
)

const listPageSize = 100

// ListOptions are the query parameters shared by the list endpoints. Empty
// filters are left off the query.
type ListOptions struct {
	Skip     int
	Limit    int
	Search   string
	Category string
	Status   string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Skip > 0 {
		q.Set("skip", strconv.Itoa(o.Skip))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return q
}

// listBody accepts either a bare JSON array or the {results,total} envelope.
// A bare array leaves the total as api.TotalUnknown.
type listBody[T any] struct {
	api.ListResult[T]
}

func (l *listBody[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		l.Results = items
		l.Total = api.TotalUnknown
		return nil
	}
	return json.Unmarshal(b, &l.ListResult)
}

// fetchPage returns one page as sent, so Total may be api.TotalUnknown.
func fetchPage[T any](ctx context.Context, c *Client, path string, opts ListOptions) (*api.ListResult[T], error) {
	var body listBody[T]
	if err := c.doJSON(ctx, http.MethodGet, path, opts.query(), nil, &body); err != nil {
		return nil, err
	}
	if body.Results == nil {
		body.Results = []T{}
	}
	return &body.ListResult, nil
}

// list is fetchPage for callers: a bare array's total is its length.
func list[T any](ctx context.Context, c *Client, path string, opts ListOptions) (*api.ListResult[T], error) {
	res, err := fetchPage[T](ctx, c, path, opts)
	if err != nil {
		return nil, err
	}
	if res.Total == api.TotalUnknown {
		res.Total = int64(len(res.Results))
	}
	return res, nil
}

func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	return api.CollectAll(func(p api.Page) (*api.ListResult[T], error) {
		return fetchPage[T](ctx, c, path, ListOptions{Skip: p.Skip, Limit: p.Limit})
	}, listPageSize)
}

func idPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

// idString renders a reference for validation; an unset id is blank.
func idString(id api.ID) string {
	if id == 0 {
		return ""
	}
	return id.String()
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok api.TokenResponse
	err := c.send(ctx, http.MethodPost, "/api/token", nil,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &tok)
	if err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("login: empty access token")
	}
	c.session.Set(tok.AccessToken)
	return nil
}

func (c *Client) Me(ctx context.Context) (*api.User, error) {
	var u api.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// -- Stock --

func (c *Client) ListStockItems(ctx context.Context, opts ListOptions) (*api.ListResult[api.StockItem], error) {
	return list[api.StockItem](ctx, c, "/api/stock_items", opts)
}

func (c *Client) CreateStockItem(ctx context.Context, in *api.StockItemInput) (*api.StockItem, error) {
	var out api.StockItem
	if err := c.doJSON(ctx, http.MethodPost, "/api/stock_items", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStockItem(ctx context.Context, id int64, in *api.StockItemInput) (*api.StockItem, error) {
	var out api.StockItem
	if err := c.doJSON(ctx, http.MethodPut, idPath("/api/stock_items", id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteStockItem(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/api/stock_items", id), nil, nil, nil)
}

func (c *Client) RecordPurchase(ctx context.Context, id int64, in *api.StockPurchase) (*api.StockItem, error) {
	var out api.StockItem
	if err := c.doJSON(ctx, http.MethodPost, idPath("/api/stock_items", id)+"/purchases", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// -- Recipes --

func (c *Client) ListRecipes(ctx context.Context, opts ListOptions) (*api.ListResult[api.Recipe], error) {
	return list[api.Recipe](ctx, c, "/api/recipes", opts)
}

// SaveRecipe checks the draft against the current stock catalogue, then
// creates it (id 0) or replaces recipe id.
func (c *Client) SaveRecipe(ctx context.Context, id int64, in *api.RecipeInput) (*api.Recipe, error) {
	stock, err := listAll[api.StockItem](ctx, c, "/api/stock_items")
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(stock))
	for _, s := range stock {
		known[strconv.FormatInt(s.ID, 10)] = true
	}

	draft := pricing.RecipeDraft{Name: in.Name}
	for _, ing := range in.Ingredients {
		draft.Lines = append(draft.Lines, pricing.RecipeLine{
			StockItemID: idString(ing.StockItemID),
			Quantity:    ing.Quantity.Float64(),
		})
	}
	if err := pricing.ValidateRecipeDraft(draft, func(id string) bool { return known[id] }); err != nil {
		return nil, err
	}

	method, path := http.MethodPost, "/api/recipes"
	if id != 0 {
		method, path = http.MethodPut, idPath(path, id)
	}
	var out api.Recipe
	if err := c.doJSON(ctx, method, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRecipe(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/api/recipes", id), nil, nil, nil)
}

// -- Invoices --

func (c *Client) ListInvoices(ctx context.Context, opts ListOptions) (*api.ListResult[api.Invoice], error) {
	return list[api.Invoice](ctx, c, "/api/invoices", opts)
}

// SaveInvoice validates the draft, fills the stored totals snapshot from the
// pricing engine and sends it: POST for id 0, PUT otherwise. A blank
// payment status is derived from the amount paid.
func (c *Client) SaveInvoice(ctx context.Context, id int64, in *api.InvoiceInput) (*api.Invoice, error) {
	draft := pricing.InvoiceDraft{
		CustomerID:    idString(in.CustomerID),
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
	}
	lines := make([]pricing.InvoiceLine, 0, len(in.Items))
	for _, it := range in.Items {
		draft.Lines = append(draft.Lines, pricing.InvoiceDraftLine{
			ProductID: idString(it.ProductID),
			Quantity:  it.Quantity.Float64(),
			Price:     it.Price.Float64(),
			Discount:  it.Discount.Float64(),
			GST:       it.GST.Float64(),
		})
		lines = append(lines, pricing.InvoiceLine{
			Quantity: it.Quantity.Float64(),
			Price:    it.Price.Float64(),
			Discount: it.Discount.Float64(),
			GST:      it.GST.Float64(),
		})
	}
	if err := pricing.ValidateInvoiceDraft(draft); err != nil {
		return nil, err
	}

	payload := *in
	totals := pricing.InvoiceTotalsFor(lines, in.AmountPaid.Float64())
	payload.Subtotal = api.Number(pricing.Float64(totals.Subtotal))
	payload.Discount = api.Number(pricing.Float64(totals.EffectiveDiscountPercent()))
	payload.GST = api.Number(pricing.Float64(totals.EffectiveGSTPercent()))
	payload.Total = api.Number(pricing.Float64(totals.GrandTotal))
	if strings.TrimSpace(payload.PaymentStatus) == "" {
		payload.PaymentStatus = string(pricing.PaymentStatusFor(totals, in.AmountPaid.Float64()))
	}

	method, path := http.MethodPost, "/api/invoices"
	if id != 0 {
		method, path = http.MethodPut, idPath(path, id)
	}
	var out api.Invoice
	if err := c.doJSON(ctx, method, path, nil, &payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteInvoice(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/api/invoices", id), nil, nil, nil)
}

// -- Customers --

func (c *Client) ListCustomers(ctx context.Context, opts ListOptions) (*api.ListResult[api.Customer], error) {
	return list[api.Customer](ctx, c, "/api/customers", opts)
}
