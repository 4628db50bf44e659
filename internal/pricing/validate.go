package pricing

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

type InvoiceDraftLine struct {
	ProductID string
	Quantity  float64
	Price     float64
	Discount  float64
	GST       float64
}

// InvoiceDraft names a customer either by CustomerID or, for a walk-in, by
// name and phone.
type InvoiceDraft struct {
	CustomerID    string
	CustomerName  string
	CustomerPhone string
	Lines         []InvoiceDraftLine
}

func ValidateInvoiceDraft(d InvoiceDraft) error {
	var errs ValidationErrors
	if len(d.Lines) == 0 {
		errs = append(errs, ValidationError{"items", "at least one item is required"})
	}
	for i, line := range d.Lines {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(line.ProductID) == "" {
			errs = append(errs, ValidationError{field, "product must be selected"})
		}
		if !num(line.Quantity).IsPositive() {
			errs = append(errs, ValidationError{field, "quantity must be greater than 0"})
		}
		if num(line.Price).IsNegative() {
			errs = append(errs, ValidationError{field, "price must not be negative"})
		}
		if disc := num(line.Discount); disc.IsNegative() || disc.GreaterThan(hundred) {
			errs = append(errs, ValidationError{field, "discount must be between 0 and 100"})
		}
		if num(line.GST).IsNegative() {
			errs = append(errs, ValidationError{field, "gst must not be negative"})
		}
	}
	if strings.TrimSpace(d.CustomerID) == "" {
		if strings.TrimSpace(d.CustomerName) == "" || strings.TrimSpace(d.CustomerPhone) == "" {
			errs = append(errs, ValidationError{"customer", "select a customer or enter name and phone"})
		}
	}
	return errs.orNil()
}

type RecipeDraft struct {
	Name  string
	Lines []RecipeLine
}

// ValidateRecipeDraft checks every ingredient against exists, which reports
// whether a stock item id is known.
func ValidateRecipeDraft(d RecipeDraft, exists func(stockItemID string) bool) error {
	var errs ValidationErrors
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, ValidationError{"name", "name is required"})
	}
	if len(d.Lines) == 0 {
		errs = append(errs, ValidationError{"ingredients", "at least one ingredient is required"})
	}
	for i, line := range d.Lines {
		field := fmt.Sprintf("ingredients[%d]", i)
		if strings.TrimSpace(line.StockItemID) == "" || !exists(line.StockItemID) {
			errs = append(errs, ValidationError{field, "unknown stock item"})
		}
		if !num(line.Quantity).IsPositive() {
			errs = append(errs, ValidationError{field, "quantity must be greater than 0"})
		}
	}
	return errs.orNil()
}
