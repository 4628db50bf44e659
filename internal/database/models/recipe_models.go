package models

import "time"

type Recipe struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	Name         string  `gorm:"size:255;not null;index"`
	SellingPrice float64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeIngredient rows keep the order they were entered in via Position.
type RecipeIngredient struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	RecipeID    int64   `gorm:"index;not null"`
	Position    int     `gorm:"not null"`
	StockItemID int64   `gorm:"index;not null"`
	Quantity    float64 `gorm:"not null"`
}
