package pricing

import (
	"math"
	"time"
)

const (
	DateLayout = "2006-01-02"

	// DefaultUpcomingWindowDays is the one window used for "upcoming"
	// birthdays and anniversaries.
	DefaultUpcomingWindowDays = 30
)

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextOccurrence moves the month and day of stored into today's year, or the
// next year when that date has already passed. Feb 29 lands on Mar 1 in
// non-leap years.
func NextOccurrence(stored, today time.Time) time.Time {
	today = dateOnly(today)
	next := time.Date(today.Year(), stored.Month(), stored.Day(), 0, 0, 0, 0, today.Location())
	if next.Before(today) {
		next = time.Date(today.Year()+1, stored.Month(), stored.Day(), 0, 0, 0, 0, today.Location())
	}
	return next
}

// DaysUntil counts whole days from today to the next occurrence.
func DaysUntil(stored, today time.Time) int {
	next := NextOccurrence(stored, today)
	return int(math.Round(next.Sub(dateOnly(today)).Hours() / 24))
}

// UpcomingWithin is true when the next occurrence falls in [today, today+days].
func UpcomingWithin(stored, today time.Time, days int) bool {
	return DaysUntil(stored, today) <= days
}
