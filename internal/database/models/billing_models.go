package models

import (
	"strings"
	"time"
)

const (
	OrderOnline   = "Online"
	OrderInStore  = "InStore"
	OrderTakeaway = "Takeaway"
	OrderDelivery = "Delivery"
)

func ParseOrderType(s string) (string, bool) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	switch key {
	case "online":
		return OrderOnline, true
	case "instore":
		return OrderInStore, true
	case "takeaway":
		return OrderTakeaway, true
	case "delivery":
		return OrderDelivery, true
	}
	return "", false
}

// Invoice stores the totals snapshot the caller computed at save time. Items
// keep the product name and unit price they were sold at.
type Invoice struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	InvoiceNumber string `gorm:"size:32;uniqueIndex"`
	CustomerID    int64  `gorm:"index"`
	CustomerName  string `gorm:"size:255;not null"`

	// Walk-in details, copied from the request.
	CustomerPhone       string `gorm:"size:50"`
	CustomerEmail       string `gorm:"size:255"`
	CustomerAddress     string `gorm:"type:text"`
	CustomerBirthday    string `gorm:"size:10"`
	CustomerAnniversary string `gorm:"size:10"`

	Date          string  `gorm:"size:10;not null;index"`
	Subtotal      float64 `gorm:"not null;default:0"`
	Discount      float64 `gorm:"not null;default:0"`
	GST           float64 `gorm:"column:gst;not null;default:0"`
	Total         float64 `gorm:"not null;default:0"`
	AmountPaid    float64 `gorm:"not null;default:0"`
	PaymentStatus string  `gorm:"size:20;not null;index"`
	OrderType     string  `gorm:"size:20;not null"`
	Notes         string  `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

type InvoiceItem struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	InvoiceID   int64   `gorm:"index;not null"`
	Position    int     `gorm:"not null"`
	ProductID   int64   `gorm:"index;not null"`
	ProductName string  `gorm:"size:255"`
	Quantity    float64 `gorm:"not null"`
	Price       float64 `gorm:"not null"`
	Discount    float64 `gorm:"not null;default:0"`
	GST         float64 `gorm:"column:gst;not null;default:0"`
}
