package models

import (
	"strings"
	"time"
)

const (
	CategoryIngredient      = "Ingredient"
	CategoryFinishedProduct = "Finished Product"
	CategoryPackaging       = "Packaging"
)

// ParseStockCategory maps "FinishedProduct", "finished product" and similar
// spellings onto the stored label.
func ParseStockCategory(s string) (string, bool) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	switch key {
	case "ingredient":
		return CategoryIngredient, true
	case "finishedproduct":
		return CategoryFinishedProduct, true
	case "packaging":
		return CategoryPackaging, true
	}
	return "", false
}

type StockItem struct {
	ID                int64    `gorm:"primaryKey;autoIncrement"`
	Name              string   `gorm:"size:255;not null;index"`
	Category          string   `gorm:"size:50;not null;index"`
	Quantity          float64  `gorm:"not null;default:0"`
	Unit              string   `gorm:"size:20"`
	CostPerUnit       float64  `gorm:"not null;default:0"`
	LowStockThreshold float64  `gorm:"not null;default:0"`
	SellingPrice      *float64 // only set for finished products
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
