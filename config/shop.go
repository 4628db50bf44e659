package config

import (
	"log"

	"github.com/spf13/viper"
)

// ShopConfig is the storefront profile read from a TOML file under [shop].
type ShopConfig struct {
	Name               string
	CurrencySymbol     string
	InvoicePrefix      string
	UpcomingWindowDays int
}

func LoadShopConfig(path string) ShopConfig {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("shop.name", "Whisk & Whisk")
	v.SetDefault("shop.currency_symbol", "₹")
	v.SetDefault("shop.invoice_prefix", "WHISK")
	v.SetDefault("shop.upcoming_window_days", 30)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: shop config %s not loaded, using defaults: %v", path, err)
	}

	shop := ShopConfig{
		Name:               v.GetString("shop.name"),
		CurrencySymbol:     v.GetString("shop.currency_symbol"),
		InvoicePrefix:      v.GetString("shop.invoice_prefix"),
		UpcomingWindowDays: v.GetInt("shop.upcoming_window_days"),
	}
	if shop.UpcomingWindowDays <= 0 {
		shop.UpcomingWindowDays = 30
	}
	return shop
}
