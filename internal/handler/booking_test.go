package handler

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrent/internal/domain"
	"carrent/internal/service"
)

func validBookingJSON() map[string]any {
	return map[string]any{
		"car_id":               7,
		"start_date":           "2026-01-11",
		"end_date":             "2026-01-13",
		"pickup_type":          "self",
		"current_province":     "Bangkok",
		"destination_province": "Chiang Mai",
		"contact_number":       "0812345678",
	}
}

func validBookingForm() url.Values {
	return url.Values{
		"car_id":               {"7"},
		"start_date":           {"2026-01-11"},
		"end_date":             {"2026-01-13"},
		"pickup_type":          {"self"},
		"current_province":     {"Bangkok"},
		"destination_province": {"Chiang Mai"},
		"contact_number":       {"0812345678"},
		"delivery_lat":         {""},
		"delivery_lng":         {""},
		"delivery_address":     {""},
	}
}

func TestCreateBooking_JSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON("/v1/bookings", validBookingJSON())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[BookingResponse](t, w)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Toyota Yaris", resp.CarName)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "awaiting_contact", resp.OrderStage)
	assert.Equal(t, domain.Quote{Days: 3, Total: 4500, Deposit: 1350, Remaining: 3150}, resp.Quote)
	assert.Nil(t, resp.Delivery)

	w = env.get("/v1/bookings/" + resp.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resp.ID, decode[BookingResponse](t, w).ID)
}

func TestCreateBooking_FieldValidation(t *testing.T) {
	env := newTestEnv(t)

	body := validBookingJSON()
	body["contact_number"] = "08123"
	body["pickup_type"] = "helicopter"

	w := env.postJSON("/v1/bookings", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[FieldErrorResponse](t, w)
	assert.Equal(t, "must be exactly 10 digits", resp.Fields["contact_number"])
	assert.Equal(t, "must be self or delivery", resp.Fields["pickup_type"])
	assert.Equal(t, 0, env.bookings.CountBookings())
}

func TestCreateBooking_BusinessRules(t *testing.T) {
	env := newTestEnv(t)
	env.bookings.AddBooking(&domain.Booking{
		ID:        "approved-1",
		CarID:     8,
		StartDate: mustDate("2026-01-12"),
		EndDate:   mustDate("2026-01-12"),
		Status:    domain.BookingStatusApproved,
	})

	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   int
	}{
		{"start today", func(b map[string]any) { b["start_date"] = "2026-01-10" }, http.StatusBadRequest},
		{"end before start", func(b map[string]any) { b["end_date"] = "2026-01-10" }, http.StatusBadRequest},
		{"delivery without pin", func(b map[string]any) { b["pickup_type"] = "delivery" }, http.StatusBadRequest},
		{"unknown car", func(b map[string]any) { b["car_id"] = 99 }, http.StatusNotFound},
		{"inactive car", func(b map[string]any) { b["car_id"] = 9 }, http.StatusConflict},
		{"overlapping approved booking", func(b map[string]any) { b["car_id"] = 8 }, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validBookingJSON()
			tt.mutate(body)
			w := env.postJSON("/v1/bookings", body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestCreateBooking_Delivery(t *testing.T) {
	env := newTestEnv(t)

	body := validBookingJSON()
	body["pickup_type"] = "delivery"
	body["delivery"] = map[string]float64{"lat": 18.7883, "lng": 98.9853}
	body["delivery_address"] = "Nimman Rd"

	w := env.postJSON("/v1/bookings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[BookingResponse](t, w)
	require.NotNil(t, resp.Delivery)
	assert.InDelta(t, 18.7883, resp.Delivery.Lat, 1e-9)
	assert.Equal(t, "Nimman Rd", resp.DeliveryAddress)
}

func TestSubmitForm_RedirectsToOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/booking", validBookingForm())
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	loc := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/order/"), loc)
	assert.NotNil(t, env.bookings.GetBooking(strings.TrimPrefix(loc, "/order/")))
}

func TestSubmitForm_DeliveryCoordinates(t *testing.T) {
	env := newTestEnv(t)

	form := validBookingForm()
	form.Set("pickup_type", "delivery")
	w := env.postForm("/booking", form)
	assert.Equal(t, http.StatusBadRequest, w.Code, "delivery requires a pin")

	form.Set("delivery_lat", "north")
	form.Set("delivery_lng", "98.98")
	w = env.postForm("/booking", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	form.Set("delivery_lat", "18.7883")
	w = env.postForm("/booking", form)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	id := strings.TrimPrefix(w.Header().Get("Location"), "/order/")
	b := env.bookings.GetBooking(id)
	require.NotNil(t, b)
	require.NotNil(t, b.Delivery)
	assert.InDelta(t, 98.98, b.Delivery.Lng, 1e-9)
}

func TestSubmitForm_SelfIgnoresDeliveryFields(t *testing.T) {
	env := newTestEnv(t)

	form := validBookingForm()
	form.Set("delivery_lat", "18.7883")
	form.Set("delivery_lng", "98.9853")
	form.Set("delivery_address", "Nimman Rd")

	w := env.postForm("/booking", form)
	require.Equal(t, http.StatusSeeOther, w.Code)

	b := env.bookings.GetBooking(strings.TrimPrefix(w.Header().Get("Location"), "/order/"))
	require.NotNil(t, b)
	assert.Nil(t, b.Delivery)
	assert.Empty(t, b.DeliveryAddress)
}

func TestGetBooking_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/v1/bookings/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPayDeposit(t *testing.T) {
	env := newTestEnv(t)

	created := decode[BookingResponse](t, env.postJSON("/v1/bookings", validBookingJSON()))

	w := env.postJSON("/v1/bookings/"+created.ID+"/deposit", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	dep := decode[DepositResponse](t, w)
	assert.Equal(t, int64(1350), dep.Amount)
	assert.Equal(t, "success", dep.Status)
	assert.Equal(t, "deposit:"+created.ID, dep.IdempotencyKey)

	booking := env.bookings.GetBooking(created.ID)
	assert.Equal(t, domain.OrderStageAwaitingHandover, booking.OrderStage)

	// Paying again returns the same deposit without charging.
	w = env.postJSON("/v1/bookings/"+created.ID+"/deposit", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, dep.ID, decode[DepositResponse](t, w).ID)
	assert.Equal(t, int32(1), env.psp.ChargeCallCount)

	w = env.get("/v1/deposits/" + dep.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode[DepositResponse](t, w).Status)
}

func TestPayDeposit_Declined(t *testing.T) {
	env := newTestEnv(t)
	env.psp.SetFailure(true, nil)

	created := decode[BookingResponse](t, env.postJSON("/v1/bookings", validBookingJSON()))

	w := env.postJSON("/v1/bookings/"+created.ID+"/deposit", nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "failed", decode[DepositResponse](t, w).Status)

	env.psp.SetFailure(false, nil)
	w = env.postJSON("/v1/bookings/"+created.ID+"/deposit", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", decode[DepositResponse](t, w).Status)
	assert.Equal(t, 1, env.deposits.CountDeposits())
}

func TestPayDeposit_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON("/v1/bookings/missing/deposit", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.bookings.AddBooking(&domain.Booking{
		ID:         "done",
		CarID:      7,
		StartDate:  mustDate("2026-01-11"),
		EndDate:    mustDate("2026-01-12"),
		TotalPrice: 3000,
		OrderStage: domain.OrderStageCompleted,
	})
	w = env.postJSON("/v1/bookings/done/deposit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.ErrDepositNotAllowed.Error(), decode[ErrorResponse](t, w).Error)
}

func TestReceipt(t *testing.T) {
	env := newTestEnv(t)

	created := decode[BookingResponse](t, env.postJSON("/v1/bookings", validBookingJSON()))

	w := env.get("/v1/bookings/" + created.ID + "/receipt.pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = env.get("/v1/bookings/missing/receipt.pdf")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)

	created := decode[BookingResponse](t, env.postJSON("/v1/bookings", validBookingJSON()))
	env.postJSON("/v1/bookings/"+created.ID+"/deposit", nil)

	w := env.get("/v1/bookings/" + created.ID + "/notifications")
	require.Equal(t, http.StatusOK, w.Code)

	var kinds []string
	for _, n := range decode[[]NotificationResponse](t, w) {
		kinds = append(kinds, n.Kind)
	}
	assert.ElementsMatch(t, []string{"BOOKING_CREATED", "DEPOSIT_PAID"}, kinds)
}
