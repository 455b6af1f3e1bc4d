package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carrent/internal/domain"
	"carrent/internal/maps"
)

// fixed "now": 2026-01-10 09:00 in Bangkok.
var (
	bangkok  = time.FixedZone("ICT", 7*60*60)
	fixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, bangkok)
)

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

var testCars = []CarRef{
	{ID: 7, Name: "Toyota Yaris", PricePerDay: 1500},
	{ID: 8, Name: "Honda City", PricePerDay: 1200},
	{ID: 9, Name: "Toyota Fortuner", PricePerDay: 2500},
}

type fetchCall struct {
	start, end time.Time
	reply      chan fetchReply
}

type fetchReply struct {
	result []domain.CarAvailability
	err    error
}

// stubFetcher answers immediately from result/err, or, when gated, hands
// each call to the test through calls.
type stubFetcher struct {
	mu     sync.Mutex
	result []domain.CarAvailability
	err    error
	gated  bool
	calls  chan fetchCall
	count  int
}

func (f *stubFetcher) Availability(ctx context.Context, start, end time.Time) ([]domain.CarAvailability, error) {
	f.mu.Lock()
	f.count++
	gated := f.gated
	result, err := f.result, f.err
	f.mu.Unlock()

	if !gated {
		return result, err
	}
	call := fetchCall{start: start, end: end, reply: make(chan fetchReply)}
	f.calls <- call
	r := <-call.reply
	return r.result, r.err
}

func (f *stubFetcher) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func allAvailable() []domain.CarAvailability {
	return []domain.CarAvailability{
		{CarID: 7, IsAvailable: true},
		{CarID: 8, IsAvailable: true},
		{CarID: 9, IsAvailable: true},
	}
}

type stubSubmitter struct {
	mu   sync.Mutex
	subs []Submission
	ref  string
	err  error
}

func (s *stubSubmitter) SubmitBooking(_ context.Context, sub Submission) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return s.ref, s.err
}

type stubMapStatus struct {
	ready bool
	msg   string
}

func (s stubMapStatus) Ready() bool     { return s.ready }
func (s stubMapStatus) Message() string { return s.msg }

type stubGeocoder struct {
	addr string
	err  error
}

func (g stubGeocoder) ReverseGeocode(context.Context, domain.LatLng) (string, error) {
	return g.addr, g.err
}

var errBackend = errors.New("backend unavailable")

var shop = Shop{
	Name:     "Modern Drive Pickup Center",
	Address:  "999 Rama I Rd, Pathum Wan, Bangkok 10330",
	Location: domain.LatLng{Lat: 13.7466, Lng: 100.5393},
}

type fixture struct {
	c         *Controller
	fetcher   *stubFetcher
	submitter *stubSubmitter
	surface   maps.Surface
}

type fixtureOption func(*Config)

func withMapStatus(s MapStatus) fixtureOption {
	return func(c *Config) { c.MapStatus = s }
}

func withGeocoder(g maps.Geocoder) fixtureOption {
	return func(c *Config) { c.Geocoder = g }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		fetcher:   &stubFetcher{result: allAvailable()},
		submitter: &stubSubmitter{ref: "booking-1"},
		surface:   maps.NewLeafletSurface(maps.SurfaceOptions{}),
	}
	cfg := Config{
		Cars:      testCars,
		Fetcher:   f.fetcher,
		Submitter: f.submitter,
		Surface:   f.surface,
		MapStatus: stubMapStatus{ready: true},
		Shop:      shop,
		Now:       func() time.Time { return fixedNow },
		Location:  bangkok,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	f.c = New(cfg)
	return f
}

// toLocation refreshes, selects car 7 and advances to step 2.
func (f *fixture) toLocation(t *testing.T) {
	t.Helper()
	if err := f.c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := f.c.Select(7); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := f.c.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
}

// toConfirm continues to step 3 with self pickup.
func (f *fixture) toConfirm(t *testing.T) {
	t.Helper()
	f.toLocation(t)
	if err := f.c.SetProvinces("Bangkok", "Chiang Mai"); err != nil {
		t.Fatalf("provinces: %v", err)
	}
	if err := f.c.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
}

func statusOf(c *Controller, id int64) CarStatus {
	for _, e := range c.Cars() {
		if e.Car.ID == id {
			return e.Status
		}
	}
	return ""
}
