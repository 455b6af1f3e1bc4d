package domain

import "time"

// BookingStatus represents the approval status of a booking.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusApproved BookingStatus = "approved"
	BookingStatusRejected BookingStatus = "rejected"
)

// OrderStage tracks a booking through handover and payment.
type OrderStage string

const (
	OrderStageAwaitingContact     OrderStage = "awaiting_contact"
	OrderStageAwaitingDeposit     OrderStage = "awaiting_deposit"
	OrderStageAwaitingHandover    OrderStage = "awaiting_handover"
	OrderStageAwaitingFullPayment OrderStage = "awaiting_full_payment"
	OrderStageCompleted           OrderStage = "completed"
)

// PickupType is how the car is handed over to the customer.
type PickupType string

const (
	PickupSelf     PickupType = "self"
	PickupDelivery PickupType = "delivery"
)

// Valid reports whether p is a known pickup type.
func (p PickupType) Valid() bool {
	return p == PickupSelf || p == PickupDelivery
}

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is within WGS84 bounds.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Booking represents a submitted rental request.
type Booking struct {
	ID                  string
	CarID               int64
	CarName             string
	StartDate           time.Time
	EndDate             time.Time
	CurrentProvince     string
	DestinationProvince string
	PickupType          PickupType
	Delivery            *LatLng // nil unless PickupType is delivery
	DeliveryAddress     string
	ContactNumber       string
	TotalPrice          int64
	Status              BookingStatus
	OrderStage          OrderStage
	CompletedAt         time.Time
	CreatedAt           time.Time
}

// Quote returns the price breakdown of the booking.
func (b *Booking) Quote() Quote {
	return QuoteFromTotal(RentalDays(b.StartDate, b.EndDate), b.TotalPrice)
}
