package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"carrent/internal/domain"
	"carrent/internal/service"
)

// CarHandler handles HTTP requests for the car catalog.
type CarHandler struct {
	carService *service.CarService
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(carService *service.CarService) *CarHandler {
	return &CarHandler{carService: carService}
}

// CarImageResponse is a catalog image.
type CarImageResponse struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// CarResponse is the HTTP representation of a car.
type CarResponse struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	PricePerDay     int64              `json:"price_per_day"`
	FuelType        string             `json:"fuel_type"`
	FuelConsumption string             `json:"fuel_consumption,omitempty"`
	CarType         string             `json:"car_type"`
	SeatCapacity    int                `json:"seat_capacity"`
	EngineCC        int                `json:"engine_cc,omitempty"`
	Horsepower      int                `json:"horsepower,omitempty"`
	Images          []CarImageResponse `json:"images"`
}

// AvailabilityEntry is one car in the availability response.
type AvailabilityEntry struct {
	ID          int64 `json:"id"`
	IsAvailable bool  `json:"is_available"`
}

// AvailabilityResponse is the HTTP response for availability checks.
type AvailabilityResponse struct {
	Cars []AvailabilityEntry `json:"cars"`
}

func toCarResponse(car *domain.Car) CarResponse {
	images := make([]CarImageResponse, 0, len(car.Images))
	for _, img := range car.Images {
		images = append(images, CarImageResponse{URL: img.ImageURL, Caption: img.Caption})
	}
	return CarResponse{
		ID:              car.ID,
		Name:            car.Name,
		PricePerDay:     car.PricePerDay,
		FuelType:        car.FuelType,
		FuelConsumption: car.FuelConsumption,
		CarType:         car.CarType,
		SeatCapacity:    car.SeatCapacity,
		EngineCC:        car.EngineCC,
		Horsepower:      car.Horsepower,
		Images:          images,
	}
}

// ListCars handles GET /v1/cars
func (h *CarHandler) ListCars(c *gin.Context) {
	filter := domain.CarFilter{
		Query:    c.Query("q"),
		FuelType: c.Query("fuel_type"),
		CarType:  c.Query("car_type"),
		SortBy:   c.DefaultQuery("sort", domain.SortByPrice),
	}

	if !domain.ValidSortKey(filter.SortBy) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported sort key"})
		return
	}

	switch strings.ToLower(c.DefaultQuery("order", "asc")) {
	case "asc":
	case "desc":
		filter.Descending = true
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order must be asc or desc"})
		return
	}

	if raw := c.Query("seat_capacity"); raw != "" {
		seats, err := strconv.Atoi(raw)
		if err != nil || seats <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "seat_capacity must be a positive number"})
			return
		}
		filter.SeatCapacity = seats
	}

	cars, err := h.carService.ListCars(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]CarResponse, 0, len(cars))
	for _, car := range cars {
		response = append(response, toCarResponse(car))
	}

	respondJSON(c, http.StatusOK, response)
}

// Availability handles GET /v1/cars/availability
func (h *CarHandler) Availability(c *gin.Context) {
	start, err := domain.ParseDate(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := domain.ParseDate(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end_date must be YYYY-MM-DD"})
		return
	}

	result, err := h.carService.Availability(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	response := AvailabilityResponse{Cars: make([]AvailabilityEntry, 0, len(result))}
	for _, a := range result {
		response.Cars = append(response.Cars, AvailabilityEntry{ID: a.CarID, IsAvailable: a.IsAvailable})
	}

	respondJSON(c, http.StatusOK, response)
}
