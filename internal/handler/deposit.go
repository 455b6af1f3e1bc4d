package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carrent/internal/domain"
	"carrent/internal/service"
)

// DepositHandler handles HTTP requests for deposits.
type DepositHandler struct {
	depositService *service.DepositService
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(depositService *service.DepositService) *DepositHandler {
	return &DepositHandler{depositService: depositService}
}

// DepositResponse is the HTTP response for deposit operations.
type DepositResponse struct {
	ID             string `json:"id"`
	BookingID      string `json:"booking_id"`
	Amount         int64  `json:"amount"`
	Status         string `json:"status"`
	IdempotencyKey string `json:"idempotency_key"`
	CreatedAt      string `json:"created_at"`
}

func toDepositResponse(d *domain.Deposit) DepositResponse {
	return DepositResponse{
		ID:             d.ID,
		BookingID:      d.BookingID,
		Amount:         d.Amount,
		Status:         string(d.Status),
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
	}
}

// PayDeposit handles POST /v1/bookings/:id/deposit
func (h *DepositHandler) PayDeposit(c *gin.Context) {
	deposit, err := h.depositService.PayDeposit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	code := http.StatusCreated
	if deposit.Status == domain.DepositStatusFailed {
		code = http.StatusPaymentRequired
	}

	respondJSON(c, code, toDepositResponse(deposit))
}

// GetDeposit handles GET /v1/deposits/:id
func (h *DepositHandler) GetDeposit(c *gin.Context) {
	deposit, err := h.depositService.GetDeposit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDepositResponse(deposit))
}
