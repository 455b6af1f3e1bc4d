package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"carrent/internal/domain"
	"carrent/internal/service"
	"carrent/internal/tests"
	"carrent/internal/wizard"
)

var (
	bangkok  = time.FixedZone("ICT", 7*60*60)
	fixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, bangkok)
)

func mustDate(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router        *gin.Engine
	cars          *tests.MockCarRepository
	bookings      *tests.MockBookingRepository
	deposits      *tests.MockDepositRepository
	notifications *tests.MockNotificationRepository
	psp           *tests.MockPSP
	sessions      *wizard.Sessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		cars:          tests.NewMockCarRepository(),
		bookings:      tests.NewMockBookingRepository(),
		deposits:      tests.NewMockDepositRepository(),
		notifications: tests.NewMockNotificationRepository(),
		psp:           tests.NewMockPSP(),
	}
	env.cars.AddCar(&domain.Car{ID: 7, Name: "Toyota Yaris", PricePerDay: 1500, FuelType: "Gasoline", CarType: "Sedan", SeatCapacity: 5, IsActive: true})
	env.cars.AddCar(&domain.Car{ID: 8, Name: "Honda City", PricePerDay: 1200, FuelType: "Gasoline", CarType: "Sedan", SeatCapacity: 5, IsActive: true})
	env.cars.AddCar(&domain.Car{ID: 9, Name: "Toyota Fortuner", PricePerDay: 2500, FuelType: "Diesel", CarType: "SUV", SeatCapacity: 7, IsActive: false})

	notifier := service.NewNotificationService(env.notifications, nil)
	carService := service.NewCarService(env.cars, env.bookings, tests.NewMockAvailabilityCache(), nil, nil)
	bookingService := service.NewBookingService(nil, env.cars, env.bookings, tests.NewMockLockStore(), nil, notifier, nil).
		WithClock(func() time.Time { return fixedNow }, bangkok)
	depositService := service.NewDepositService(nil, env.bookings, env.deposits, env.psp, notifier, nil)
	receiptService := service.NewReceiptService("Test Rent", "1 Rama I Rd")

	env.sessions = wizard.NewSessions(newControllerFactory(carService, bookingService), time.Hour)

	carHandler := NewCarHandler(carService)
	bookingHandler := NewBookingHandler(bookingService, depositService, receiptService, notifier)
	depositHandler := NewDepositHandler(depositService)
	wizardHandler := NewWizardHandler(env.sessions, time.Hour, false, nil)

	r := gin.New()
	r.GET("/v1/cars", carHandler.ListCars)
	r.GET("/v1/cars/availability", carHandler.Availability)
	r.POST("/booking", bookingHandler.SubmitForm)
	r.POST("/v1/bookings", bookingHandler.CreateBooking)
	r.GET("/v1/bookings/:id", bookingHandler.GetBooking)
	r.GET("/v1/bookings/:id/receipt.pdf", bookingHandler.Receipt)
	r.GET("/v1/bookings/:id/notifications", bookingHandler.Notifications)
	r.POST("/v1/bookings/:id/deposit", depositHandler.PayDeposit)
	r.GET("/v1/deposits/:id", depositHandler.GetDeposit)
	r.GET("/booking/state", wizardHandler.State)
	r.POST("/booking/dates", wizardHandler.Dates)
	r.POST("/booking/car", wizardHandler.Car)
	r.POST("/booking/next", wizardHandler.Next)
	r.POST("/booking/back", wizardHandler.Back)
	r.POST("/booking/location", wizardHandler.Location)
	r.POST("/booking/pickup", wizardHandler.Pickup)
	r.POST("/booking/pin", wizardHandler.Pin)
	r.POST("/booking/pin/clear", wizardHandler.ClearPin)
	r.POST("/booking/contact", wizardHandler.Contact)
	r.POST("/booking/submit", wizardHandler.Submit)
	env.router = r

	return env
}

func newControllerFactory(cars *service.CarService, bookings *service.BookingService) wizard.Factory {
	return func(ctx context.Context) (*wizard.Controller, error) {
		active, err := cars.ActiveCars(ctx)
		if err != nil {
			return nil, err
		}
		return wizard.New(wizard.Config{
			Cars:      wizard.CarRefs(active),
			Fetcher:   cars,
			Submitter: bookings,
			Shop:      wizard.Shop{Name: "Test Rent", Location: domain.LatLng{Lat: 13.7466, Lng: 100.5393}},
			Now:       func() time.Time { return fixedNow },
			Location:  bangkok,
		}), nil
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) postJSON(path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", SessionCookie)
	return nil
}
