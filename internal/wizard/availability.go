package wizard

import (
	"context"
	"fmt"

	"carrent/internal/domain"
)

const msgAvailabilityFailed = "We could not check car availability. Please change the dates to try again."

// Refresh queries availability for the current dates. Only the result of
// the most recently issued request is applied; an older one returns
// ErrStaleResponse and leaves the wizard untouched. While a request is in
// flight every car is in the checking state. Availability only changes on
// the dates-and-car step; later steps return ErrWrongStep.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(StepDatesAndCar); err != nil {
		c.mu.Unlock()
		return err
	}
	return c.refreshLocked(ctx)
}

// refreshLocked issues a request for the current dates. It is entered with
// c.mu held and returns with it released, so a date change and the request
// it triggers happen under one critical section.
func (c *Controller) refreshLocked(ctx context.Context) error {
	c.issuedSeq++
	seq := c.issuedSeq

	if msg, bad := c.dateErrorLocked(); bad {
		// Supersede whatever is in flight; nothing is bookable.
		c.resolvedSeq = seq
		c.setAllStatusLocked(CarIdle)
		c.availabilityMsg = ""
		c.clearSelectionLocked("")
		c.mu.Unlock()
		return invalid("dates", msg)
	}

	start, end := c.draft.StartDate, c.draft.EndDate
	c.setAllStatusLocked(CarChecking)
	c.availabilityMsg = ""
	c.mu.Unlock()

	result, err := c.fetcher.Availability(ctx, start, end)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issuedSeq {
		c.observer.AvailabilityDiscarded()
		return ErrStaleResponse
	}
	c.resolvedSeq = seq

	if err != nil {
		c.observer.AvailabilityApplied(false)
		c.setAllStatusLocked(CarIdle)
		c.availabilityMsg = msgAvailabilityFailed
		c.clearSelectionLocked("")
		return fmt.Errorf("%w: %v", ErrAvailability, err)
	}

	c.observer.AvailabilityApplied(true)
	c.applyAvailabilityLocked(result)
	return nil
}

// Checking reports whether an availability request is outstanding.
func (c *Controller) Checking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkingLocked()
}

func (c *Controller) checkingLocked() bool {
	return c.resolvedSeq < c.issuedSeq
}

func (c *Controller) setAllStatusLocked(status CarStatus) {
	for i := range c.cars {
		c.cars[i].Status = status
	}
}

// applyAvailabilityLocked replaces every car status with result. Cars
// missing from result are unlisted.
func (c *Controller) applyAvailabilityLocked(result []domain.CarAvailability) {
	c.setAllStatusLocked(CarUnlisted)
	for _, r := range result {
		i, ok := c.carIndex[r.CarID]
		if !ok {
			continue
		}
		if r.IsAvailable {
			c.cars[i].Status = CarAvailable
		} else {
			c.cars[i].Status = CarUnavailable
		}
	}
	c.revalidateSelectionLocked()
}
