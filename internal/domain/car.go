package domain

import "time"

// Car represents a rentable car in the catalog.
type Car struct {
	ID              int64
	Name            string
	PricePerDay     int64 // THB per day
	FuelType        string
	FuelConsumption string
	CarType         string
	SeatCapacity    int
	EngineCC        int
	Horsepower      int
	IsActive        bool
	Images          []CarImage
}

// CarImage is a picture attached to a car.
type CarImage struct {
	ID        int64
	CarID     int64
	ImageURL  string
	Caption   string
	CreatedAt time.Time
}

// CarAvailability is the per-car availability flag for a date range.
type CarAvailability struct {
	CarID       int64
	IsAvailable bool
}
