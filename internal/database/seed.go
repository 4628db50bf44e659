package database

import (
	"fmt"
	"log"

	"whisk-system/internal/database/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultAdminEmail = "admin@whiskandwhisk.com"

func floatPtr(f float64) *float64 {
	return &f
}

// Seed fills an empty database with the admin account, two customers and a
// starter stock list. It does nothing once any user exists.
func Seed(db *gorm.DB, adminPassword string) error {
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}
	if adminPassword == "" {
		adminPassword = "password"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	customers := []models.Customer{
		{Name: "Arun Kumar", Email: "arun@example.com", Phone: "9876543210", Address: "123 Anna Nagar, Chennai", Birthday: "1990-08-15", Anniversary: "2015-11-20"},
		{Name: "Priya Sharma", Email: "priya@example.com", Phone: "9123456780", Address: "456 T Nagar, Chennai", Birthday: "1992-04-22"},
	}

	stock := []models.StockItem{
		{Name: "Flour", Category: models.CategoryIngredient, Quantity: 50, Unit: "kg", CostPerUnit: 40, LowStockThreshold: 10},
		{Name: "Sugar", Category: models.CategoryIngredient, Quantity: 40, Unit: "kg", CostPerUnit: 55, LowStockThreshold: 5},
		{Name: "Butter", Category: models.CategoryIngredient, Quantity: 20, Unit: "kg", CostPerUnit: 500, LowStockThreshold: 4},
		{Name: "Croissant", Category: models.CategoryFinishedProduct, Quantity: 50, Unit: "pcs", CostPerUnit: 25, LowStockThreshold: 10, SellingPrice: floatPtr(75)},
		{Name: "Chocolate Cake (1kg)", Category: models.CategoryFinishedProduct, Quantity: 10, Unit: "pcs", CostPerUnit: 400, LowStockThreshold: 3, SellingPrice: floatPtr(850)},
		{Name: "Cake Box (1kg)", Category: models.CategoryPackaging, Quantity: 100, Unit: "pcs", CostPerUnit: 15, LowStockThreshold: 20},
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.User{Email: DefaultAdminEmail, HashedPassword: string(hash)}).Error; err != nil {
			return err
		}
		if err := tx.Create(&customers).Error; err != nil {
			return err
		}
		return tx.Create(&stock).Error
	})
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	log.Printf("Seeded database with admin %s, %d customers, %d stock items", DefaultAdminEmail, len(customers), len(stock))
	return nil
}
