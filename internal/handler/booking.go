package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carrent/internal/domain"
	"carrent/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService      *service.BookingService
	depositService      *service.DepositService
	receiptService      *service.ReceiptService
	notificationService *service.NotificationService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(
	bookingService *service.BookingService,
	depositService *service.DepositService,
	receiptService *service.ReceiptService,
	notificationService *service.NotificationService,
) *BookingHandler {
	registerValidators()
	return &BookingHandler{
		bookingService:      bookingService,
		depositService:      depositService,
		receiptService:      receiptService,
		notificationService: notificationService,
	}
}

// BookingForm is the form post sent by the booking wizard.
type BookingForm struct {
	CarID               int64  `form:"car_id" binding:"required,gt=0"`
	StartDate           string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate             string `form:"end_date" binding:"required,datetime=2006-01-02"`
	PickupType          string `form:"pickup_type" binding:"required,pickup_type"`
	CurrentProvince     string `form:"current_province" binding:"required"`
	DestinationProvince string `form:"destination_province" binding:"required"`
	ContactNumber       string `form:"contact_number" binding:"required,contact10"`
	DeliveryLat         string `form:"delivery_lat"`
	DeliveryLng         string `form:"delivery_lng"`
	DeliveryAddress     string `form:"delivery_address"`
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	CarID               int64          `json:"car_id" binding:"required,gt=0"`
	StartDate           string         `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate             string         `json:"end_date" binding:"required,datetime=2006-01-02"`
	PickupType          string         `json:"pickup_type" binding:"required,pickup_type"`
	CurrentProvince     string         `json:"current_province" binding:"required"`
	DestinationProvince string         `json:"destination_province" binding:"required"`
	ContactNumber       string         `json:"contact_number" binding:"required,contact10"`
	Delivery            *domain.LatLng `json:"delivery"`
	DeliveryAddress     string         `json:"delivery_address"`
}

// BookingResponse is the HTTP response for booking operations.
type BookingResponse struct {
	ID                  string         `json:"id"`
	CarID               int64          `json:"car_id"`
	CarName             string         `json:"car_name"`
	StartDate           string         `json:"start_date"`
	EndDate             string         `json:"end_date"`
	CurrentProvince     string         `json:"current_province"`
	DestinationProvince string         `json:"destination_province"`
	PickupType          string         `json:"pickup_type"`
	Delivery            *domain.LatLng `json:"delivery,omitempty"`
	DeliveryAddress     string         `json:"delivery_address,omitempty"`
	ContactNumber       string         `json:"contact_number"`
	Status              string         `json:"status"`
	OrderStage          string         `json:"order_stage"`
	Quote               domain.Quote   `json:"quote"`
}

// NotificationResponse is a notification recorded for a booking.
type NotificationResponse struct {
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:                  b.ID,
		CarID:               b.CarID,
		CarName:             b.CarName,
		StartDate:           b.StartDate.Format(domain.DateLayout),
		EndDate:             b.EndDate.Format(domain.DateLayout),
		CurrentProvince:     b.CurrentProvince,
		DestinationProvince: b.DestinationProvince,
		PickupType:          string(b.PickupType),
		Delivery:            b.Delivery,
		DeliveryAddress:     b.DeliveryAddress,
		ContactNumber:       b.ContactNumber,
		Status:              string(b.Status),
		OrderStage:          string(b.OrderStage),
		Quote:               b.Quote(),
	}
}

// request converts the form into a service request. Delivery coordinates
// are only read for delivery pickups.
func (f BookingForm) request() (service.CreateBookingRequest, error) {
	req := service.CreateBookingRequest{
		CarID:               f.CarID,
		CurrentProvince:     f.CurrentProvince,
		DestinationProvince: f.DestinationProvince,
		PickupType:          domain.PickupType(f.PickupType),
		ContactNumber:       f.ContactNumber,
	}
	req.StartDate, _ = domain.ParseDate(f.StartDate)
	req.EndDate, _ = domain.ParseDate(f.EndDate)

	if req.PickupType != domain.PickupDelivery {
		return req, nil
	}
	if strings.TrimSpace(f.DeliveryLat) == "" || strings.TrimSpace(f.DeliveryLng) == "" {
		return req, service.ErrMissingDeliveryLocation
	}
	lat, err := strconv.ParseFloat(f.DeliveryLat, 64)
	if err != nil {
		return req, service.ErrInvalidLocation
	}
	lng, err := strconv.ParseFloat(f.DeliveryLng, 64)
	if err != nil {
		return req, service.ErrInvalidLocation
	}
	req.Delivery = &domain.LatLng{Lat: lat, Lng: lng}
	req.DeliveryAddress = f.DeliveryAddress
	return req, nil
}

// SubmitForm handles POST /booking
func (h *BookingHandler) SubmitForm(c *gin.Context) {
	var form BookingForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrorResponse(err))
		return
	}

	req, err := form.request()
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/order/"+booking.ID)
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrorResponse(err))
		return
	}

	start, _ := domain.ParseDate(req.StartDate)
	end, _ := domain.ParseDate(req.EndDate)

	booking, err := h.bookingService.Create(c.Request.Context(), service.CreateBookingRequest{
		CarID:               req.CarID,
		StartDate:           start,
		EndDate:             end,
		CurrentProvince:     req.CurrentProvince,
		DestinationProvince: req.DestinationProvince,
		PickupType:          domain.PickupType(req.PickupType),
		Delivery:            req.Delivery,
		DeliveryAddress:     req.DeliveryAddress,
		ContactNumber:       req.ContactNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// OrderPage handles GET /order/:id
func (h *BookingHandler) OrderPage(c *gin.Context) {
	ctx := c.Request.Context()

	booking, err := h.bookingService.GetBooking(ctx, c.Param("id"))
	if err != nil {
		c.HTML(mapErrorToHTTPStatus(err), "error.html", gin.H{"Message": err.Error()})
		return
	}

	deposit, err := h.depositService.DepositForBooking(ctx, booking.ID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": err.Error()})
		return
	}

	c.HTML(http.StatusOK, "order.html", gin.H{
		"Booking": toBookingResponse(booking),
		"Deposit": deposit,
	})
}

// Receipt handles GET /v1/bookings/:id/receipt.pdf
func (h *BookingHandler) Receipt(c *gin.Context) {
	ctx := c.Request.Context()

	booking, err := h.bookingService.GetBooking(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	deposit, err := h.depositService.DepositForBooking(ctx, booking.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	pdf, err := h.receiptService.RenderPDF(booking, deposit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="receipt-`+booking.ID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Notifications handles GET /v1/bookings/:id/notifications
func (h *BookingHandler) Notifications(c *gin.Context) {
	ctx := c.Request.Context()

	booking, err := h.bookingService.GetBooking(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	notifications, err := h.notificationService.ForBooking(ctx, booking.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, NotificationResponse{
			Kind:      n.Kind,
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, response)
}
