package database

import (
	"fmt"

	"whisk-system/internal/database/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FormatInvoiceNumber renders prefix-NN with at least two digits.
func FormatInvoiceNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%02d", prefix, seq)
}

// BackfillInvoiceNumbers renumbers every invoice in creation order, starting
// at 1. The rows are read and locked inside the same transaction that
// rewrites them. It returns how many rows were updated.
func BackfillInvoiceNumbers(db *gorm.DB, prefix string) (int, error) {
	var ids []int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invoice{}).Clauses(clause.Locking{Strength: "UPDATE"}).
			Order("id ASC").Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		// Clear first so the unique index never sees two rows holding the
		// same number mid-way through.
		if err := tx.Model(&models.Invoice{}).Where("id IN ?", ids).Update("invoice_number", gorm.Expr("NULL")).Error; err != nil {
			return err
		}
		for i, id := range ids {
			number := FormatInvoiceNumber(prefix, i+1)
			if err := tx.Model(&models.Invoice{}).Where("id = ?", id).Update("invoice_number", number).Error; err != nil {
				return fmt.Errorf("update invoice %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
