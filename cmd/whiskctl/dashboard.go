package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"whisk-system/config"
	"whisk-system/internal/client"
	"whisk-system/internal/dashboard"
	"whisk-system/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var (
		apiURL, username, password string
		shopPath                   string
		days                       int
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Sign in and print the shop dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			shop := config.LoadShopConfig(shopPath)
			if days <= 0 {
				days = shop.UpcomingWindowDays
			}

			c := client.New(apiURL, client.NewSession(""), nil)
			c.Session().OnExpired(func() {
				fmt.Fprintln(cmd.ErrOrStderr(), "Session expired, sign in again.")
			})
			ctx := cmd.Context()
			if err := c.Login(ctx, username, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			sum, err := c.FetchDashboard(ctx, time.Now(), days)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), shop, sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", envOr("WHISK_API_URL", "http://localhost:8080"), "API base URL")
	cmd.Flags().StringVarP(&username, "user", "u", envOr("WHISK_USER", "admin@whiskandwhisk.com"), "account email")
	cmd.Flags().StringVarP(&password, "password", "p", envOr("WHISK_PASSWORD", ""), "account password")
	cmd.Flags().StringVar(&shopPath, "shop-config", envOr("SHOP_CONFIG", "config/shop.toml"), "shop profile (TOML)")
	cmd.Flags().IntVar(&days, "days", 0, "upcoming events window in days (default from shop profile)")
	return cmd
}

func printSummary(w io.Writer, shop config.ShopConfig, s dashboard.Summary) {
	money := func(f float64) string {
		return pricing.FormatCurrencyWith(shop.CurrencySymbol, decimal.NewFromFloat(f))
	}

	fmt.Fprintf(w, "%s dashboard for %s\n\n", shop.Name, s.GeneratedForDate)
	fmt.Fprintf(w, "Revenue:      %s\n", money(s.Revenue))
	fmt.Fprintf(w, "Outstanding:  %s\n", money(s.Outstanding))
	fmt.Fprintf(w, "Invoices:     %d (paid %d, pending %d, overdue %d)\n",
		s.InvoiceCount, s.PaidCount, s.PendingCount, s.OverdueCount)
	fmt.Fprintf(w, "Stock:        %d in stock, %d low, %d out\n",
		s.Stock.InStock, s.Stock.LowStock, s.Stock.OutOfStock)
	if len(s.LowStockItems) > 0 {
		fmt.Fprintf(w, "Reorder:      %s\n", strings.Join(s.LowStockItems, ", "))
	}
	fmt.Fprintf(w, "Customers:    %d\n", s.CustomerCount)
	fmt.Fprintf(w, "Recipes:      %d (average margin %.2f%%)\n", s.RecipeCount, s.AverageMargin)

	fmt.Fprintf(w, "\nUpcoming in the next %d days:\n", s.UpcomingWindow)
	if len(s.UpcomingEvents) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, e := range s.UpcomingEvents {
		when := fmt.Sprintf("in %d days", e.DaysUntil)
		if e.DaysUntil == 0 {
			when = "today"
		}
		fmt.Fprintf(w, "  %s  %-11s %s (%s)\n", e.NextDate, e.Kind, e.CustomerName, when)
	}
}
