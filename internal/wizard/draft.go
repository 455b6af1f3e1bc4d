package wizard

import (
	"net/url"
	"strconv"
	"time"

	"carrent/internal/domain"
)

// Step is a wizard panel.
type Step int

const (
	StepDatesAndCar Step = 1
	StepLocation    Step = 2
	StepConfirm     Step = 3
)

// CarRef is the selected car as recorded in the draft.
type CarRef struct {
	ID          int64
	Name        string
	PricePerDay int64
}

// CarRefs lists the active cars of a catalog for the picker.
func CarRefs(cars []*domain.Car) []CarRef {
	refs := make([]CarRef, 0, len(cars))
	for _, car := range cars {
		if !car.IsActive {
			continue
		}
		refs = append(refs, CarRef{ID: car.ID, Name: car.Name, PricePerDay: car.PricePerDay})
	}
	return refs
}

// CarStatus is the availability state of a car entry.
type CarStatus string

const (
	CarIdle        CarStatus = "idle"
	CarChecking    CarStatus = "checking"
	CarAvailable   CarStatus = "available"
	CarUnavailable CarStatus = "unavailable"
	CarUnlisted    CarStatus = "unlisted"
)

// CarEntry is a car in the picker together with its status.
type CarEntry struct {
	Car    CarRef
	Status CarStatus
}

// Selectable reports whether the entry can be picked.
func (e CarEntry) Selectable() bool {
	return e.Status == CarAvailable
}

// BookingDraft is the in-progress booking of one wizard session.
type BookingDraft struct {
	StartDate           time.Time
	EndDate             time.Time
	SelectedCar         *CarRef
	CurrentProvince     string
	DestinationProvince string
	PickupType          domain.PickupType
	DeliveryCoordinate  *domain.LatLng
	DeliveryAddress     string
	ContactNumber       string
	CurrentStep         Step
}

func (d BookingDraft) clone() BookingDraft {
	if d.SelectedCar != nil {
		car := *d.SelectedCar
		d.SelectedCar = &car
	}
	if d.DeliveryCoordinate != nil {
		p := *d.DeliveryCoordinate
		d.DeliveryCoordinate = &p
	}
	return d
}

// Submission is the completed draft handed to the booking backend.
type Submission struct {
	CarID               int64
	StartDate           time.Time
	EndDate             time.Time
	PickupType          domain.PickupType
	CurrentProvince     string
	DestinationProvince string
	ContactNumber       string
	Delivery            *domain.LatLng
	DeliveryAddress     string
}

func newSubmission(d BookingDraft) Submission {
	s := Submission{
		CarID:               d.SelectedCar.ID,
		StartDate:           d.StartDate,
		EndDate:             d.EndDate,
		PickupType:          d.PickupType,
		CurrentProvince:     d.CurrentProvince,
		DestinationProvince: d.DestinationProvince,
		ContactNumber:       d.ContactNumber,
	}
	if d.PickupType == domain.PickupDelivery && d.DeliveryCoordinate != nil {
		p := *d.DeliveryCoordinate
		s.Delivery = &p
		s.DeliveryAddress = d.DeliveryAddress
	}
	return s
}

// Form encodes the submission as the booking form post.
func (s Submission) Form() url.Values {
	v := url.Values{}
	v.Set("car_id", strconv.FormatInt(s.CarID, 10))
	v.Set("start_date", s.StartDate.Format(domain.DateLayout))
	v.Set("end_date", s.EndDate.Format(domain.DateLayout))
	v.Set("pickup_type", string(s.PickupType))
	v.Set("current_province", s.CurrentProvince)
	v.Set("destination_province", s.DestinationProvince)
	v.Set("contact_number", s.ContactNumber)
	if s.Delivery != nil {
		v.Set("delivery_lat", strconv.FormatFloat(s.Delivery.Lat, 'f', 6, 64))
		v.Set("delivery_lng", strconv.FormatFloat(s.Delivery.Lng, 'f', 6, 64))
	} else {
		v.Set("delivery_lat", "")
		v.Set("delivery_lng", "")
	}
	v.Set("delivery_address", s.DeliveryAddress)
	return v
}
