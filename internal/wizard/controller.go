package wizard

import (
	"context"
	"sync"
	"time"

	"carrent/internal/domain"
	"carrent/internal/maps"
)

// AvailabilityFetcher answers which cars are free for a date range.
type AvailabilityFetcher interface {
	Availability(ctx context.Context, start, end time.Time) ([]domain.CarAvailability, error)
}

// Submitter accepts a completed booking and returns its reference.
type Submitter interface {
	SubmitBooking(ctx context.Context, s Submission) (string, error)
}

// MapStatus reports whether the map library is usable.
type MapStatus interface {
	Ready() bool
	Message() string
}

// Observer receives wizard events for metrics.
type Observer interface {
	AvailabilityApplied(ok bool)
	AvailabilityDiscarded()
	BookingSubmitted(pickup domain.PickupType)
}

type nopObserver struct{}

func (nopObserver) AvailabilityApplied(bool)           {}
func (nopObserver) AvailabilityDiscarded()             {}
func (nopObserver) BookingSubmitted(domain.PickupType) {}

type alwaysReady struct{}

func (alwaysReady) Ready() bool     { return true }
func (alwaysReady) Message() string { return "" }

// Shop is the fixed self-pickup location.
type Shop struct {
	Name     string
	Address  string
	Location domain.LatLng
}

// Config holds the collaborators of a Controller.
type Config struct {
	Cars      []CarRef
	Fetcher   AvailabilityFetcher
	Submitter Submitter
	Surface   maps.Surface
	MapStatus MapStatus
	Geocoder  maps.Geocoder // optional
	Shop      Shop
	Observer  Observer
	Now       func() time.Time
	Location  *time.Location // calendar used for "today"
}

// Controller owns the BookingDraft of one wizard session. All methods
// are safe for concurrent use; the lock is never held across calls to
// the fetcher, the geocoder or the submitter.
type Controller struct {
	mu sync.Mutex

	draft      BookingDraft
	cars       []CarEntry
	carIndex   map[int64]int
	minEndDate time.Time

	issuedSeq   uint64
	resolvedSeq uint64
	pinSeq      uint64
	submitting  bool
	submitted   bool
	reference   string

	availabilityMsg string
	selectionMsg    string
	locationMsg     string
	submitMsg       string
	summary         *Summary

	fetcher   AvailabilityFetcher
	submitter Submitter
	surface   maps.Surface
	mapStatus MapStatus
	geocoder  maps.Geocoder
	shop      Shop
	observer  Observer
	now       func() time.Time
	loc       *time.Location
}

// New creates a controller at step 1 with tomorrow and the day after as
// default dates and self pickup selected. No availability request is
// issued until Refresh or a date change.
func New(cfg Config) *Controller {
	c := &Controller{
		carIndex:  make(map[int64]int, len(cfg.Cars)),
		fetcher:   cfg.Fetcher,
		submitter: cfg.Submitter,
		surface:   cfg.Surface,
		mapStatus: cfg.MapStatus,
		geocoder:  cfg.Geocoder,
		shop:      cfg.Shop,
		observer:  cfg.Observer,
		now:       cfg.Now,
		loc:       cfg.Location,
	}
	if c.mapStatus == nil {
		c.mapStatus = alwaysReady{}
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}

	for i, car := range cfg.Cars {
		c.cars = append(c.cars, CarEntry{Car: car, Status: CarIdle})
		c.carIndex[car.ID] = i
	}

	today := c.today()
	c.draft = BookingDraft{
		StartDate:   today.AddDate(0, 0, 1),
		EndDate:     today.AddDate(0, 0, 2),
		PickupType:  domain.PickupSelf,
		CurrentStep: StepDatesAndCar,
	}
	c.minEndDate = c.draft.StartDate

	if c.surface != nil {
		c.surface.OnClick(c.handleMapClick)
		c.surface.OnMarkerDrag(c.handleMarkerDrag)
	}
	c.showPickupLocked()

	return c
}

func (c *Controller) today() time.Time {
	return domain.DateOnly(c.now().In(c.loc))
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() BookingDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// Step returns the current step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.CurrentStep
}

// Cars returns the car entries in catalog order.
func (c *Controller) Cars() []CarEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CarEntry, len(c.cars))
	copy(out, c.cars)
	return out
}

// Submitted reports whether the draft was handed off, and its reference.
func (c *Controller) Submitted() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reference, c.submitted
}

// Close releases the map surface. The controller must not be used after.
func (c *Controller) Close() {
	if c.surface != nil {
		c.surface.Destroy()
	}
}

// View is a consistent snapshot for rendering.
type View struct {
	Draft               BookingDraft
	Cars                []CarEntry
	MinEndDate          time.Time
	Checking            bool
	DateError           string
	AvailabilityMessage string
	SelectionMessage    string
	LocationMessage     string
	SubmitMessage       string
	MapReady            bool
	MapMessage          string
	Map                 *maps.SurfaceConfig
	Shop                Shop
	Summary             *Summary
	Submitted           bool
	Reference           string
}

// View returns a snapshot of the wizard.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Draft:               c.draft.clone(),
		Cars:                make([]CarEntry, len(c.cars)),
		MinEndDate:          c.minEndDate,
		Checking:            c.checkingLocked(),
		AvailabilityMessage: c.availabilityMsg,
		SelectionMessage:    c.selectionMsg,
		LocationMessage:     c.locationMsg,
		SubmitMessage:       c.submitMsg,
		MapReady:            c.mapStatus.Ready(),
		MapMessage:          c.mapStatus.Message(),
		Shop:                c.shop,
		Submitted:           c.submitted,
		Reference:           c.reference,
	}
	copy(v.Cars, c.cars)
	if msg, bad := c.dateErrorLocked(); bad {
		v.DateError = msg
	}
	if c.surface != nil {
		cfg := c.surface.Config()
		v.Map = &cfg
	}
	if c.summary != nil {
		s := *c.summary
		v.Summary = &s
	}
	return v
}

// guardLocked rejects mutations after hand-off or outside step.
func (c *Controller) guardLocked(step Step) error {
	if c.submitted || c.submitting {
		return ErrSubmitted
	}
	if c.draft.CurrentStep != step {
		return ErrWrongStep
	}
	return nil
}
