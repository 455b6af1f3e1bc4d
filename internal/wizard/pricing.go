package wizard

import (
	"time"

	"carrent/internal/domain"
)

// Summary is the confirmation-step breakdown of a draft.
type Summary struct {
	Car                 CarRef
	StartDate           time.Time
	EndDate             time.Time
	Days                int
	Total               int64
	Deposit             int64
	Remaining           int64
	PickupType          domain.PickupType
	CurrentProvince     string
	DestinationProvince string
	Delivery            *domain.LatLng
	DeliveryAddress     string
}

// ComputeSummary prices d. Days count both the pickup and the return day
// and the deposit is 30% of the total, rounded. Without a selected car
// the amounts are zero.
func ComputeSummary(d BookingDraft) Summary {
	s := Summary{
		StartDate:           d.StartDate,
		EndDate:             d.EndDate,
		PickupType:          d.PickupType,
		CurrentProvince:     d.CurrentProvince,
		DestinationProvince: d.DestinationProvince,
	}
	if d.PickupType == domain.PickupDelivery && d.DeliveryCoordinate != nil {
		p := *d.DeliveryCoordinate
		s.Delivery = &p
		s.DeliveryAddress = d.DeliveryAddress
	}
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() {
		s.Days = domain.RentalDays(d.StartDate, d.EndDate)
	}
	if d.SelectedCar == nil || s.Days <= 0 {
		return s
	}

	s.Car = *d.SelectedCar
	q := domain.NewQuote(d.SelectedCar.PricePerDay, d.StartDate, d.EndDate)
	s.Total = q.Total
	s.Deposit = q.Deposit
	s.Remaining = q.Remaining
	return s
}

// Summary returns the breakdown for the current draft.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeSummary(c.draft)
}
