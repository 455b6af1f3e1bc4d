package wizard

import (
	"context"
	"time"

	"carrent/internal/domain"
)

const (
	msgDatesMissing   = "Please choose both a pickup and a return date."
	msgAdvanceBooking = "Bookings must be made at least one day in advance."
	msgEndBeforeStart = "The return date cannot be before the pickup date."
)

// DateError returns the message of the first failed date rule.
func (c *Controller) DateError() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dateErrorLocked()
}

func (c *Controller) dateErrorLocked() (string, bool) {
	return dateError(c.draft.StartDate, c.draft.EndDate, c.today())
}

func dateError(start, end, today time.Time) (string, bool) {
	if start.IsZero() || end.IsZero() {
		return msgDatesMissing, true
	}
	if !start.After(today) {
		return msgAdvanceBooking, true
	}
	if end.Before(start) {
		return msgEndBeforeStart, true
	}
	return "", false
}

// MinEndDate is the earliest return date the picker offers.
func (c *Controller) MinEndDate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minEndDate
}

// SetStartDate changes the pickup date and refreshes availability. The
// return date snaps to the pickup date when it would precede it.
func (c *Controller) SetStartDate(ctx context.Context, d time.Time) error {
	c.mu.Lock()
	if err := c.guardLocked(StepDatesAndCar); err != nil {
		c.mu.Unlock()
		return err
	}
	c.applyStartLocked(d)
	return c.refreshLocked(ctx)
}

// SetEndDate changes the return date and refreshes availability.
func (c *Controller) SetEndDate(ctx context.Context, d time.Time) error {
	c.mu.Lock()
	if err := c.guardLocked(StepDatesAndCar); err != nil {
		c.mu.Unlock()
		return err
	}
	c.draft.EndDate = normalizeDate(d)
	return c.refreshLocked(ctx)
}

// SetDates applies both dates at once, as a form post does. The return
// date is taken as given, then snapped if the pickup date changed and
// now follows it.
func (c *Controller) SetDates(ctx context.Context, start, end time.Time) error {
	c.mu.Lock()
	if err := c.guardLocked(StepDatesAndCar); err != nil {
		c.mu.Unlock()
		return err
	}
	startChanged := !normalizeDate(start).Equal(c.draft.StartDate)
	c.draft.EndDate = normalizeDate(end)
	if startChanged {
		c.applyStartLocked(start)
	}
	return c.refreshLocked(ctx)
}

func (c *Controller) applyStartLocked(d time.Time) {
	d = normalizeDate(d)
	c.draft.StartDate = d
	if d.IsZero() {
		return
	}
	c.minEndDate = d
	if !c.draft.EndDate.IsZero() && c.draft.EndDate.Before(d) {
		c.draft.EndDate = d
	}
}

func normalizeDate(d time.Time) time.Time {
	if d.IsZero() {
		return d
	}
	return domain.DateOnly(d)
}
