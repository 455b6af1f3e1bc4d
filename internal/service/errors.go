package service

import "errors"

var (
	// ErrInvalidCarID is returned when car ID is not positive.
	ErrInvalidCarID = errors.New("invalid car id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidDepositID is returned when deposit ID is empty.
	ErrInvalidDepositID = errors.New("invalid deposit id")

	// ErrInvalidDateRange is returned when a date is missing or the return date precedes the pickup date.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrStartNotInFuture is returned when the pickup date is today or earlier.
	ErrStartNotInFuture = errors.New("pickup date must be after today")

	// ErrInvalidContactNumber is returned when the contact number is not 10 digits.
	ErrInvalidContactNumber = errors.New("contact number must be exactly 10 digits")

	// ErrMissingProvince is returned when current or destination province is empty.
	ErrMissingProvince = errors.New("current and destination province are required")

	// ErrInvalidPickupType is returned when pickup type is neither self nor delivery.
	ErrInvalidPickupType = errors.New("invalid pickup type")

	// ErrMissingDeliveryLocation is returned when delivery is requested without a pin.
	ErrMissingDeliveryLocation = errors.New("delivery location is required")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrCarInactive is returned when booking a car that is no longer listed.
	ErrCarInactive = errors.New("car is not available for booking")

	// ErrCarUnavailable is returned when an approved booking overlaps the requested dates.
	ErrCarUnavailable = errors.New("car is already booked for the selected dates")

	// ErrBookingLocked is returned when another booking of the same car is in progress.
	ErrBookingLocked = errors.New("another booking for this car is in progress")

	// ErrDepositNotAllowed is returned when the booking is past the deposit stage.
	ErrDepositNotAllowed = errors.New("deposit not allowed in current order stage")

	// ErrInvalidDepositAmount is returned when the computed deposit is not positive.
	ErrInvalidDepositAmount = errors.New("invalid deposit amount")
)
