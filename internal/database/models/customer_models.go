package models

import "time"

// Customer birthdays and anniversaries are YYYY-MM-DD strings; only the month
// and day matter for reminders.
type Customer struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:255;not null;index"`
	Email       string `gorm:"size:255"`
	Phone       string `gorm:"size:50;index"`
	Address     string `gorm:"type:text"`
	Birthday    string `gorm:"size:10"`
	Anniversary string `gorm:"size:10"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
