package tests

import (
	"time"

	"carrent/internal/domain"
	"carrent/internal/service"
)

var (
	bangkok  = time.FixedZone("ICT", 7*60*60)
	fixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, bangkok)
)

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedCars(repo *MockCarRepository) {
	repo.AddCar(&domain.Car{ID: 7, Name: "Toyota Yaris", PricePerDay: 1500, IsActive: true})
	repo.AddCar(&domain.Car{ID: 8, Name: "Honda City", PricePerDay: 1200, IsActive: true})
	repo.AddCar(&domain.Car{ID: 9, Name: "Toyota Fortuner", PricePerDay: 2500, IsActive: false})
}

func validRequest() service.CreateBookingRequest {
	return service.CreateBookingRequest{
		CarID:               7,
		StartDate:           date("2026-01-11"),
		EndDate:             date("2026-01-13"),
		CurrentProvince:     "Bangkok",
		DestinationProvince: "Chiang Mai",
		PickupType:          domain.PickupSelf,
		ContactNumber:       "0812345678",
	}
}

type bookingDeps struct {
	cars          *MockCarRepository
	bookings      *MockBookingRepository
	locks         *MockLockStore
	cache         *MockAvailabilityCache
	notifications *MockNotificationRepository
	svc           *service.BookingService
}

func newBookingDeps() *bookingDeps {
	d := &bookingDeps{
		cars:          NewMockCarRepository(),
		bookings:      NewMockBookingRepository(),
		locks:         NewMockLockStore(),
		cache:         NewMockAvailabilityCache(),
		notifications: NewMockNotificationRepository(),
	}
	seedCars(d.cars)
	notifier := service.NewNotificationService(d.notifications, nil)
	d.svc = service.NewBookingService(nil, d.cars, d.bookings, d.locks, d.cache, notifier, nil).
		WithClock(func() time.Time { return fixedNow }, bangkok)
	return d
}
