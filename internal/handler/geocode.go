package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carrent/internal/domain"
	"carrent/internal/maps"
)

// GeocodeHandler resolves map pins to addresses.
type GeocodeHandler struct {
	geocoder maps.Geocoder
	logger   *zap.Logger
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder maps.Geocoder, logger *zap.Logger) *GeocodeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeocodeHandler{geocoder: geocoder, logger: logger}
}

// AddressResponse is the HTTP response for reverse geocoding.
type AddressResponse struct {
	Address string `json:"address"`
}

// Reverse handles GET /v1/geocode/reverse. Lookup failures answer with an
// empty address.
func (h *GeocodeHandler) Reverse(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	p := domain.LatLng{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !p.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng must be a valid coordinate"})
		return
	}

	if h.geocoder == nil {
		respondJSON(c, http.StatusOK, AddressResponse{})
		return
	}

	addr, err := h.geocoder.ReverseGeocode(c.Request.Context(), p)
	if err != nil {
		h.logger.Warn("reverse geocode failed", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		addr = ""
	}

	respondJSON(c, http.StatusOK, AddressResponse{Address: addr})
}
