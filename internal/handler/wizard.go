package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"carrent/internal/domain"
	"carrent/internal/maps"
	"carrent/internal/wizard"
)

// SessionCookie carries the wizard session id.
const SessionCookie = "wizard_session"

// WizardHandler drives booking wizard sessions over HTTP. Every action
// accepts a form post or a JSON body; JSON requests get the new state
// back, form posts are redirected to the page.
type WizardHandler struct {
	sessions     *wizard.Sessions
	logger       *zap.Logger
	secureCookie bool
	cookieMaxAge int
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(sessions *wizard.Sessions, ttl time.Duration, secureCookie bool, logger *zap.Logger) *WizardHandler {
	registerValidators()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardHandler{
		sessions:     sessions,
		logger:       logger,
		secureCookie: secureCookie,
		cookieMaxAge: int(ttl.Seconds()),
	}
}

// DatesRequest changes the rental dates. Either date may be omitted.
type DatesRequest struct {
	StartDate string `form:"start_date" json:"start_date"`
	EndDate   string `form:"end_date" json:"end_date"`
}

// CarRequest selects a car.
type CarRequest struct {
	CarID int64 `form:"car_id" json:"car_id" binding:"required,gt=0"`
}

// LocationRequest sets the provinces and, optionally, the delivery address.
type LocationRequest struct {
	CurrentProvince     string  `form:"current_province" json:"current_province"`
	DestinationProvince string  `form:"destination_province" json:"destination_province"`
	DeliveryAddress     *string `form:"delivery_address" json:"delivery_address"`
}

// PickupRequest switches the pickup type.
type PickupRequest struct {
	PickupType string `form:"pickup_type" json:"pickup_type" binding:"required,pickup_type"`
}

// PinRequest is a click or marker drag on the map.
type PinRequest struct {
	Source string   `form:"source" json:"source" binding:"required,oneof=click drag"`
	Lat    *float64 `form:"lat" json:"lat" binding:"required,latitude"`
	Lng    *float64 `form:"lng" json:"lng" binding:"required,longitude"`
}

// ContactRequest sets the contact number.
type ContactRequest struct {
	ContactNumber string `form:"contact_number" json:"contact_number"`
}

// WizardCarState is a car in the picker.
type WizardCarState struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PricePerDay int64  `json:"price_per_day"`
	Status      string `json:"status"`
	Selectable  bool   `json:"selectable"`
}

// WizardDraftState is the draft as seen by the page.
type WizardDraftState struct {
	StartDate           string         `json:"start_date"`
	EndDate             string         `json:"end_date"`
	SelectedCarID       int64          `json:"selected_car_id,omitempty"`
	CurrentProvince     string         `json:"current_province"`
	DestinationProvince string         `json:"destination_province"`
	PickupType          string         `json:"pickup_type"`
	Delivery            *domain.LatLng `json:"delivery,omitempty"`
	DeliveryAddress     string         `json:"delivery_address,omitempty"`
	ContactNumber       string         `json:"contact_number,omitempty"`
}

// WizardMessages are the user-facing messages of each section.
type WizardMessages struct {
	Date         string `json:"date,omitempty"`
	Availability string `json:"availability,omitempty"`
	Selection    string `json:"selection,omitempty"`
	Location     string `json:"location,omitempty"`
	Map          string `json:"map,omitempty"`
	Submit       string `json:"submit,omitempty"`
}

// WizardShopState is the shop pickup point.
type WizardShopState struct {
	Name     string        `json:"name"`
	Address  string        `json:"address"`
	Location domain.LatLng `json:"location"`
}

// WizardSummaryState is the confirmation breakdown.
type WizardSummaryState struct {
	CarName             string         `json:"car_name"`
	StartDate           string         `json:"start_date"`
	EndDate             string         `json:"end_date"`
	Days                int            `json:"days"`
	Total               int64          `json:"total"`
	Deposit             int64          `json:"deposit"`
	Remaining           int64          `json:"remaining"`
	PickupType          string         `json:"pickup_type"`
	CurrentProvince     string         `json:"current_province"`
	DestinationProvince string         `json:"destination_province"`
	Delivery            *domain.LatLng `json:"delivery,omitempty"`
	DeliveryAddress     string         `json:"delivery_address,omitempty"`
}

// WizardState is the JSON view model of a wizard session.
type WizardState struct {
	Step       int                 `json:"step"`
	Draft      WizardDraftState    `json:"draft"`
	Cars       []WizardCarState    `json:"cars"`
	MinEndDate string              `json:"min_end_date"`
	Checking   bool                `json:"checking"`
	Messages   WizardMessages      `json:"messages"`
	MapReady   bool                `json:"map_ready"`
	Map        *maps.SurfaceConfig `json:"map,omitempty"`
	Shop       WizardShopState     `json:"shop"`
	Summary    *WizardSummaryState `json:"summary,omitempty"`
	Submitted  bool                `json:"submitted"`
	Reference  string              `json:"reference,omitempty"`
	Redirect   string              `json:"redirect,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func toWizardState(v wizard.View) WizardState {
	d := v.Draft
	state := WizardState{
		Step: int(d.CurrentStep),
		Draft: WizardDraftState{
			StartDate:           formatDate(d.StartDate),
			EndDate:             formatDate(d.EndDate),
			CurrentProvince:     d.CurrentProvince,
			DestinationProvince: d.DestinationProvince,
			PickupType:          string(d.PickupType),
			Delivery:            d.DeliveryCoordinate,
			DeliveryAddress:     d.DeliveryAddress,
			ContactNumber:       d.ContactNumber,
		},
		Cars:       make([]WizardCarState, 0, len(v.Cars)),
		MinEndDate: formatDate(v.MinEndDate),
		Checking:   v.Checking,
		Messages: WizardMessages{
			Date:         v.DateError,
			Availability: v.AvailabilityMessage,
			Selection:    v.SelectionMessage,
			Location:     v.LocationMessage,
			Map:          v.MapMessage,
			Submit:       v.SubmitMessage,
		},
		MapReady: v.MapReady,
		Map:      v.Map,
		Shop: WizardShopState{
			Name:     v.Shop.Name,
			Address:  v.Shop.Address,
			Location: v.Shop.Location,
		},
		Submitted: v.Submitted,
		Reference: v.Reference,
	}
	if d.SelectedCar != nil {
		state.Draft.SelectedCarID = d.SelectedCar.ID
	}
	for _, e := range v.Cars {
		state.Cars = append(state.Cars, WizardCarState{
			ID:          e.Car.ID,
			Name:        e.Car.Name,
			PricePerDay: e.Car.PricePerDay,
			Status:      string(e.Status),
			Selectable:  e.Selectable(),
		})
	}
	if s := v.Summary; s != nil {
		state.Summary = &WizardSummaryState{
			CarName:             s.Car.Name,
			StartDate:           formatDate(s.StartDate),
			EndDate:             formatDate(s.EndDate),
			Days:                s.Days,
			Total:               s.Total,
			Deposit:             s.Deposit,
			Remaining:           s.Remaining,
			PickupType:          string(s.PickupType),
			CurrentProvince:     s.CurrentProvince,
			DestinationProvince: s.DestinationProvince,
			Delivery:            s.Delivery,
			DeliveryAddress:     s.DeliveryAddress,
		}
	}
	if v.Submitted {
		state.Redirect = orderPath(v.Reference)
	}
	return state
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// orderPath turns a submission reference into the order page path. Remote
// backends already answer with a path.
func orderPath(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.Contains(ref, "://") {
		return ref
	}
	return "/order/" + ref
}

func wantsJSON(c *gin.Context) bool {
	if c.ContentType() == gin.MIMEJSON {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), gin.MIMEJSON)
}

// session loads the caller's wizard, starting a new one when the cookie
// is missing or expired.
func (h *WizardHandler) session(c *gin.Context) (string, *wizard.Controller, error) {
	id, _ := c.Cookie(SessionCookie)
	ctx := c.Request.Context()

	id, ctrl, created, err := h.sessions.GetOrCreate(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, h.cookieMaxAge, "/", "", h.secureCookie, true)
		if err := ctrl.Refresh(ctx); err != nil && !softError(err) {
			h.logger.Warn("initial availability check failed", zap.String("session", id), zap.Error(err))
		}
	}
	return id, ctrl, nil
}

// softError reports errors already reflected in the wizard state.
func softError(err error) bool {
	return errors.Is(err, wizard.ErrStaleResponse) || errors.Is(err, wizard.ErrAvailability)
}

// respond renders the outcome of an action.
func (h *WizardHandler) respond(c *gin.Context, ctrl *wizard.Controller, err error) {
	if err != nil && softError(err) {
		err = nil
	}

	state := toWizardState(ctrl.View())
	code := http.StatusOK
	if err != nil {
		code = mapErrorToHTTPStatus(err)
		state.Error = err.Error()
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			state.Error = verr.Message
		}
	}

	if wantsJSON(c) {
		c.JSON(code, state)
		return
	}
	if err != nil {
		h.render(c, code, state)
		return
	}
	if state.Submitted {
		c.Redirect(http.StatusSeeOther, state.Redirect)
		return
	}
	c.Redirect(http.StatusSeeOther, "/booking")
}

func (h *WizardHandler) render(c *gin.Context, code int, state WizardState) {
	c.HTML(code, "booking.html", gin.H{
		"State":     state,
		"Provinces": maps.ProvinceGroups(),
	})
}

// action runs fn against the caller's session.
func (h *WizardHandler) action(c *gin.Context, fn func(ctx context.Context, ctrl *wizard.Controller) error) {
	_, ctrl, err := h.session(c)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, ctrl, fn(c.Request.Context(), ctrl))
}

// bind decodes the body into req, answering 400 on failure. An empty
// body only runs the struct validation.
func bind(c *gin.Context, req any) bool {
	var err error
	if c.Request.ContentLength == 0 {
		err = binding.Validator.ValidateStruct(req)
	} else {
		err = c.ShouldBind(req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, bindingErrorResponse(err))
		return false
	}
	return true
}

// Page handles GET /booking
func (h *WizardHandler) Page(c *gin.Context) {
	_, ctrl, err := h.session(c)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": err.Error()})
		return
	}
	h.render(c, http.StatusOK, toWizardState(ctrl.View()))
}

// State handles GET /booking/state
func (h *WizardHandler) State(c *gin.Context) {
	_, ctrl, err := h.session(c)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toWizardState(ctrl.View()))
}

// Dates handles POST /booking/dates
func (h *WizardHandler) Dates(c *gin.Context) {
	var req DatesRequest
	if !bind(c, &req) {
		return
	}

	var start, end time.Time
	var err error
	if req.StartDate != "" {
		if start, err = domain.ParseDate(req.StartDate); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start_date must be YYYY-MM-DD"})
			return
		}
	}
	if req.EndDate != "" {
		if end, err = domain.ParseDate(req.EndDate); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end_date must be YYYY-MM-DD"})
			return
		}
	}

	h.action(c, func(ctx context.Context, ctrl *wizard.Controller) error {
		switch {
		case !start.IsZero() && !end.IsZero():
			return ctrl.SetDates(ctx, start, end)
		case !start.IsZero():
			return ctrl.SetStartDate(ctx, start)
		case !end.IsZero():
			return ctrl.SetEndDate(ctx, end)
		default:
			return ctrl.Refresh(ctx)
		}
	})
}

// Car handles POST /booking/car
func (h *WizardHandler) Car(c *gin.Context) {
	var req CarRequest
	if !bind(c, &req) {
		return
	}
	h.action(c, func(_ context.Context, ctrl *wizard.Controller) error {
		return ctrl.Select(req.CarID)
	})
}

// Next handles POST /booking/next
func (h *WizardHandler) Next(c *gin.Context) {
	h.action(c, func(_ context.Context, ctrl *wizard.Controller) error {
		return ctrl.Next()
	})
}

// Back handles POST /booking/back
func (h *WizardHandler) Back(c *gin.Context) {
	h.action(c, func(_ context.Context, ctrl *wizard.Controller) error {
		return ctrl.Back()
	})
}

// Location handles POST /booking/location
func (h *WizardHandler) Location(c *gin.Context) {
	var req LocationRequest
	if !bind(c, &req) {
		return
	}
	h.action(c, func(_ context.Context, ctrl *wizard.Controller) error {
		if err := ctrl.SetProvinces(req.CurrentProvince, req.DestinationProvince); err != nil {
			return err
		}
		if req.DeliveryAddress != nil {
			return ctrl.SetDeliveryAddress(*req.DeliveryAddress)
		}
		return nil
	})
}

// Pickup handles POST /booking/pickup
func (h *WizardHandler) Pickup(c *gin.Context) {
	var req PickupRequest
	if !bind(c, &req) {
		return
	}
	h.action(c, func(_ context.Context, ctrl *wizard.Controller) error {
		return ctrl.SetPickupType(domain.PickupType(req.PickupType))
	})
}

// Pin handles POST /booking/pin
func (h *WizardHandler) Pin(c *gin.Context) {
	var req PinRequest
	if !bind(c, &req) {
		return
	}
	ev := maps.Event{
		Kind:  maps.EventKind(req.Source),
		Point: domain.LatLng{Lat: *req.Lat, Lng: *req.Lng},
	}
	h.action(c, func(ctx context.Context, ctrl *wizard.Controller) error {
		return ctrl.MapEvent(ctx, ev)
	})
}

// ClearPin handles POST /booking/pin/clear
func (h *WizardHandler) ClearPin(c *gin.Context) {
	h.action(c, func(_ context.Context, ctrl *wizard.Controller) error {
		return ctrl.ClearPin()
	})
}

// Contact handles POST /booking/contact
func (h *WizardHandler) Contact(c *gin.Context) {
	var req ContactRequest
	if !bind(c, &req) {
		return
	}
	h.action(c, func(_ context.Context, ctrl *wizard.Controller) error {
		return ctrl.SetContactNumber(req.ContactNumber)
	})
}

// Submit handles POST /booking/submit. A contact number may be sent along
// with the submission. The session is dropped once the booking is placed.
func (h *WizardHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if !bind(c, &req) {
		return
	}

	id, ctrl, err := h.session(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	if req.ContactNumber != "" {
		if err := ctrl.SetContactNumber(req.ContactNumber); err != nil {
			h.respond(c, ctrl, err)
			return
		}
	}

	ref, err := ctrl.Submit(ctx)
	if err != nil {
		h.respond(c, ctrl, err)
		return
	}

	h.logger.Info("wizard submitted", zap.String("session", id), zap.String("reference", ref))
	h.respond(c, ctrl, nil)
	h.sessions.Drop(id)
}
