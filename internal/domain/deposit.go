package domain

import "time"

// DepositStatus represents the status of a deposit payment.
type DepositStatus string

const (
	DepositStatusPending DepositStatus = "pending"
	DepositStatusSuccess DepositStatus = "success"
	DepositStatusFailed  DepositStatus = "failed"
)

// Deposit is the upfront payment collected for a booking.
type Deposit struct {
	ID             string
	BookingID      string
	Amount         int64
	Status         DepositStatus
	IdempotencyKey string
	CreatedAt      time.Time
}

// Notification is a message recorded for the customer of a booking.
type Notification struct {
	ID        string
	BookingID string
	Recipient string
	Kind      string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
