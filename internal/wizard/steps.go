package wizard

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var contactNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidateStep1 requires valid dates and a selected car.
func (c *Controller) ValidateStep1() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateStep1Locked()
}

func (c *Controller) validateStep1Locked() error {
	if msg, bad := c.dateErrorLocked(); bad {
		return invalid("dates", msg)
	}
	if c.checkingLocked() {
		return invalid("car", "Availability is still being checked. Please wait a moment.")
	}
	if c.draft.SelectedCar == nil {
		return invalid("car", "Please choose a car.")
	}
	return nil
}

// ValidateStep3 requires a ten digit contact number.
func (c *Controller) ValidateStep3() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateStep3Locked()
}

func (c *Controller) validateStep3Locked() error {
	if !ValidContactNumber(c.draft.ContactNumber) {
		return invalid("contact_number", "Please enter a 10 digit phone number.")
	}
	return nil
}

// ValidContactNumber reports whether s is exactly ten ASCII digits.
func ValidContactNumber(s string) bool {
	return contactNumberPattern.MatchString(s)
}

// SetContactNumber records the contact number. It is validated on submit.
func (c *Controller) SetContactNumber(number string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(StepConfirm); err != nil {
		return err
	}
	c.draft.ContactNumber = strings.TrimSpace(number)
	return nil
}

// Next advances one step if the current one validates. Entering the
// confirmation step recomputes the summary.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted || c.submitting {
		return ErrSubmitted
	}

	switch c.draft.CurrentStep {
	case StepDatesAndCar:
		if err := c.validateStep1Locked(); err != nil {
			return err
		}
		c.draft.CurrentStep = StepLocation
		c.showPickupLocked()
	case StepLocation:
		if err := c.validateStep2Locked(); err != nil {
			return err
		}
		c.draft.CurrentStep = StepConfirm
		s := ComputeSummary(c.draft)
		c.summary = &s
	default:
		return ErrWrongStep
	}
	return nil
}

// Back returns to the previous step without validation.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted || c.submitting {
		return ErrSubmitted
	}

	switch c.draft.CurrentStep {
	case StepLocation:
		c.draft.CurrentStep = StepDatesAndCar
	case StepConfirm:
		c.draft.CurrentStep = StepLocation
		c.summary = nil
	}
	return nil
}

// Submit validates the confirmation step and hands the draft to the
// submitter. On success the controller stops accepting changes.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if err := c.guardLocked(StepConfirm); err != nil {
		c.mu.Unlock()
		return "", err
	}
	for _, validate := range []func() error{
		c.validateStep1Locked,
		c.validateStep2Locked,
		c.validateStep3Locked,
	} {
		if err := validate(); err != nil {
			c.mu.Unlock()
			return "", err
		}
	}
	sub := newSubmission(c.draft)
	c.submitting = true
	c.submitMsg = ""
	c.mu.Unlock()

	ref, err := c.submitter.SubmitBooking(ctx, sub)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		c.submitMsg = "Your booking could not be submitted. Please try again."
		return "", fmt.Errorf("submitting booking: %w", err)
	}

	c.submitted = true
	c.reference = ref
	c.observer.BookingSubmitted(sub.PickupType)
	return ref, nil
}
