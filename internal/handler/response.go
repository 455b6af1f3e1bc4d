package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carrent/internal/maps"
	"carrent/internal/repository"
	"carrent/internal/service"
	"carrent/internal/wizard"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldErrorResponse is returned when a request fails field validation.
type FieldErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository/wizard errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var verr *wizard.ValidationError

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, wizard.ErrUnknownCar):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.As(err, &verr),
		errors.Is(err, service.ErrInvalidCarID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidDepositID),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrStartNotInFuture),
		errors.Is(err, service.ErrInvalidContactNumber),
		errors.Is(err, service.ErrMissingProvince),
		errors.Is(err, service.ErrInvalidPickupType),
		errors.Is(err, service.ErrMissingDeliveryLocation),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidDepositAmount),
		errors.Is(err, maps.ErrUnknownEvent):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrCarUnavailable),
		errors.Is(err, service.ErrCarInactive),
		errors.Is(err, service.ErrBookingLocked),
		errors.Is(err, service.ErrDepositNotAllowed),
		errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrSubmitted),
		errors.Is(err, wizard.ErrCarNotSelectable),
		errors.Is(err, maps.ErrNoMarker):
		return http.StatusConflict

	// Upstream failures
	case errors.Is(err, wizard.ErrAvailability):
		return http.StatusBadGateway

	// Service unavailable
	case errors.Is(err, maps.ErrMapUnavailable),
		errors.Is(err, maps.ErrSurfaceDestroyed):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
