package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"same day", "2026-01-01", "2026-01-01", 1},
		{"inclusive range", "2026-01-01", "2026-01-03", 3},
		{"across month", "2026-01-30", "2026-02-02", 4},
		{"across leap day", "2028-02-28", "2028-03-01", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RentalDays(date(t, tt.start), date(t, tt.end)))
		})
	}
}

func TestRentalDays_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)
	end := time.Date(2026, 1, 3, 0, 15, 0, 0, time.UTC)

	assert.Equal(t, 3, RentalDays(start, end))
}

func TestNewQuote(t *testing.T) {
	q := NewQuote(1500, date(t, "2026-01-01"), date(t, "2026-01-03"))

	assert.Equal(t, Quote{Days: 3, Total: 4500, Deposit: 1350, Remaining: 3150}, q)
}

func TestQuoteFromTotal_RoundsDeposit(t *testing.T) {
	tests := []struct {
		total       int64
		wantDeposit int64
	}{
		{total: 1001, wantDeposit: 300},  // 300.3
		{total: 1005, wantDeposit: 302},  // 301.5
		{total: 999, wantDeposit: 300},   // 299.7
		{total: 0, wantDeposit: 0},
	}

	for _, tt := range tests {
		q := QuoteFromTotal(1, tt.total)
		assert.Equal(t, tt.wantDeposit, q.Deposit, "total %d", tt.total)
		assert.Equal(t, tt.total, q.Deposit+q.Remaining)
	}
}
