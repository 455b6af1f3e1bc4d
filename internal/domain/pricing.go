package domain

import (
	"math"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DepositPercent is the share of the total collected upfront.
const DepositPercent = 30

// Quote is the price breakdown of a rental.
type Quote struct {
	Days      int   `json:"days"`
	Total     int64 `json:"total"`
	Deposit   int64 `json:"deposit"`
	Remaining int64 `json:"remaining"`
}

// DateOnly truncates t to its calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// RentalDays counts the days of a rental, both pickup and return day included.
func RentalDays(start, end time.Time) int {
	diff := DateOnly(end).Sub(DateOnly(start))
	return int(math.Floor(diff.Hours()/24)) + 1
}

// NewQuote prices a rental of pricePerDay between start and end.
func NewQuote(pricePerDay int64, start, end time.Time) Quote {
	days := RentalDays(start, end)
	return QuoteFromTotal(days, int64(days)*pricePerDay)
}

// QuoteFromTotal splits total into deposit and remaining balance.
func QuoteFromTotal(days int, total int64) Quote {
	// Rounded half up in integer arithmetic.
	deposit := (total*DepositPercent + 50) / 100
	return Quote{
		Days:      days,
		Total:     total,
		Deposit:   deposit,
		Remaining: total - deposit,
	}
}
