package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/repository"
	"github.com/vannda/cinebook/internal/service"
)

// WebhookHandler receives provider settlement notifications.  The
// endpoint is idempotent: replaying a webhook for an already-paid
// booking answers 200 again, so the provider never retries forever.
type WebhookHandler struct {
	Payments *service.PaymentService
}

func NewWebhookHandler(payments *service.PaymentService) *WebhookHandler {
	return &WebhookHandler{Payments: payments}
}

type paymentWebhookReq struct {
	Reference   string `json:"reference"`
	AmountCents uint32 `json:"amount_cents"`
	Status      string `json:"status"`
}

// PaymentNotification handles POST /v1/webhooks/payment.
func (h *WebhookHandler) PaymentNotification(c echo.Context) error {
	var req paymentWebhookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Reference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference is required"})
	}
	if req.Status != "" && req.Status != "success" && req.Status != "confirmed" {
		// Only settlements transition bookings; everything else is
		// acknowledged and ignored.
		return c.JSON(http.StatusOK, echo.Map{"result": "ignored"})
	}

	b, err := h.Payments.ConfirmByReference(c.Request().Context(), req.Reference, req.AmountCents)
	if err != nil {
		// Unknown references get 200 so the provider stops retrying a
		// notification we can never match; the poller would have found
		// the booking if it existed.
		if errors.Is(err, repository.ErrNotFound) {
			c.Logger().Warnf("webhook: no booking for reference %s", req.Reference)
			return c.JSON(http.StatusOK, echo.Map{"result": "unmatched"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": "ok", "booking_id": b.ID, "status": b.Status})
}
