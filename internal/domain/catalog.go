package domain

import (
	"sort"
	"strings"
)

// Catalog sort keys.
const (
	SortByPrice    = "price_per_day"
	SortBySeats    = "seat_capacity"
	SortByName     = "name"
	SortByFuelType = "fuel_type"
	SortByCarType  = "car_type"
)

// CarFilter narrows and orders the catalog.
type CarFilter struct {
	Query        string
	FuelType     string
	CarType      string
	SeatCapacity int
	SortBy       string
	Descending   bool
}

// ValidSortKey reports whether key is a supported catalog sort key.
func ValidSortKey(key string) bool {
	switch key {
	case SortByPrice, SortBySeats, SortByName, SortByFuelType, SortByCarType:
		return true
	}
	return false
}

// FilterCars returns the active cars matching f in the requested order.
// The input slice is not modified.
func FilterCars(cars []*Car, f CarFilter) []*Car {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]*Car, 0, len(cars))
	for _, car := range cars {
		if !car.IsActive {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(car.Name), query) {
			continue
		}
		if f.FuelType != "" && !strings.EqualFold(car.FuelType, f.FuelType) {
			continue
		}
		if f.CarType != "" && !strings.EqualFold(car.CarType, f.CarType) {
			continue
		}
		if f.SeatCapacity > 0 && car.SeatCapacity != f.SeatCapacity {
			continue
		}
		out = append(out, car)
	}

	key := f.SortBy
	if !ValidSortKey(key) {
		key = SortByPrice
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compareCars(out[i], out[j], key)
		if c == 0 {
			c = strings.Compare(strings.ToLower(out[i].Name), strings.ToLower(out[j].Name))
			// Ties on name stay ascending regardless of direction.
			return c < 0
		}
		if f.Descending {
			return c > 0
		}
		return c < 0
	})

	return out
}

func compareCars(a, b *Car, key string) int {
	switch key {
	case SortByPrice:
		return compareInt(a.PricePerDay, b.PricePerDay)
	case SortBySeats:
		return compareInt(int64(a.SeatCapacity), int64(b.SeatCapacity))
	case SortByName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortByFuelType:
		return strings.Compare(strings.ToLower(a.FuelType), strings.ToLower(b.FuelType))
	case SortByCarType:
		return strings.Compare(strings.ToLower(a.CarType), strings.ToLower(b.CarType))
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
