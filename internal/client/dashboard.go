package client

import (
	"context"
	"time"

	"whisk-system/internal/api"
	"whisk-system/internal/dashboard"

	"golang.org/x/sync/errgroup"
)

// FetchDashboard loads the four collections concurrently and summarizes them
// locally. A failed fetch does not cancel the others; the first error is
// returned once all have finished.
func (c *Client) FetchDashboard(ctx context.Context, today time.Time, windowDays int) (dashboard.Summary, error) {
	var snap dashboard.Snapshot
	var g errgroup.Group

	g.Go(func() (err error) {
		snap.Invoices, err = listAll[api.Invoice](ctx, c, "/api/invoices")
		return err
	})
	g.Go(func() (err error) {
		snap.StockItems, err = listAll[api.StockItem](ctx, c, "/api/stock_items")
		return err
	})
	g.Go(func() (err error) {
		snap.Customers, err = listAll[api.Customer](ctx, c, "/api/customers")
		return err
	})
	g.Go(func() (err error) {
		snap.Recipes, err = listAll[api.Recipe](ctx, c, "/api/recipes")
		return err
	})

	if err := g.Wait(); err != nil {
		return dashboard.Summary{}, err
	}
	return dashboard.Summarize(snap, today, windowDays), nil
}
