package tests

import (
	"context"
	"testing"
	"time"

	"carrent/internal/domain"
	"carrent/internal/maps"
	"carrent/internal/service"
	"carrent/internal/wizard"
)

// TestWizardFlow_SubmitsThroughServices drives a wizard session against the
// real car and booking services backed by mock repositories.
func TestWizardFlow_SubmitsThroughServices(t *testing.T) {
	t.Parallel()

	d := newBookingDeps()
	d.bookings.AddBooking(&domain.Booking{
		ID:        "approved-1",
		CarID:     8,
		StartDate: date("2026-01-11"),
		EndDate:   date("2026-01-12"),
		Status:    domain.BookingStatusApproved,
	})
	carService := service.NewCarService(d.cars, d.bookings, d.cache, nil, nil)

	surface := maps.NewLeafletSurface(maps.SurfaceOptions{})
	c := wizard.New(wizard.Config{
		Cars: []wizard.CarRef{
			{ID: 7, Name: "Toyota Yaris", PricePerDay: 1500},
			{ID: 8, Name: "Honda City", PricePerDay: 1200},
		},
		Fetcher:   carService,
		Submitter: d.svc,
		Surface:   surface,
		Shop:      wizard.Shop{Name: "Modern Drive Pickup Center", Location: domain.LatLng{Lat: 13.7466, Lng: 100.5393}},
		Now:       func() time.Time { return fixedNow },
		Location:  bangkok,
	})
	ctx := context.Background()

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := c.Select(8); err == nil {
		t.Fatal("expected booked car 8 to be rejected")
	}
	if err := c.Select(7); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.Next(); err != nil {
		t.Fatalf("to location: %v", err)
	}

	if err := c.SetProvinces("Bangkok", "Chiang Mai"); err != nil {
		t.Fatalf("provinces: %v", err)
	}
	if err := c.SetPickupType(domain.PickupDelivery); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if err := c.Next(); err == nil {
		t.Fatal("expected delivery without a pin to be blocked")
	}
	if err := c.MapEvent(ctx, maps.Event{Kind: maps.EventClick, Point: domain.LatLng{Lat: 18.79, Lng: 98.98}}); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := c.Next(); err != nil {
		t.Fatalf("to confirm: %v", err)
	}

	summary := c.Summary()
	if summary.Days != 2 || summary.Total != 3000 || summary.Deposit != 900 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if err := c.SetContactNumber("0812345678"); err != nil {
		t.Fatalf("contact: %v", err)
	}
	ref, err := c.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored := d.bookings.GetBooking(ref)
	if stored == nil {
		t.Fatalf("expected booking %s to be stored", ref)
	}
	if stored.PickupType != domain.PickupDelivery || stored.Delivery == nil {
		t.Errorf("expected delivery booking, got %+v", stored)
	}
	if stored.TotalPrice != 3000 {
		t.Errorf("expected total 3000, got %d", stored.TotalPrice)
	}
	if _, ok := c.Submitted(); !ok {
		t.Error("expected wizard to be submitted")
	}
}
