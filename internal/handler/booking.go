package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/repository"
	"github.com/vannda/cinebook/internal/service"
)

// BookingHandler exposes the customer booking endpoints: creating a
// booking from selected seats, paying for it, and cancelling it.
type BookingHandler struct {
	Reservations *service.ReservationService
	Payments     *service.PaymentService
	Bookings     *repository.BookingRepo
}

func NewBookingHandler(res *service.ReservationService, pay *service.PaymentService, bookings *repository.BookingRepo) *BookingHandler {
	if res == nil || pay == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Reservations: res, Payments: pay, Bookings: bookings}
}

type createBookingReq struct {
	ShowtimeID    uint64   `json:"showtime_id"`
	SeatIDs       []uint64 `json:"seat_ids"`
	PaymentMethod string   `json:"payment_method"`
}

type bookingResp struct {
	ID               uint64     `json:"id"`
	ShowtimeID       uint64     `json:"showtime_id"`
	Status           string     `json:"status"`
	SeatIDs          []uint64   `json:"seat_ids"`
	TotalPriceCents  uint32     `json:"total_price_cents"`
	PaymentMethod    *string    `json:"payment_method,omitempty"`
	PaymentReference *string    `json:"payment_reference,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:               b.ID,
		ShowtimeID:       b.ShowtimeID,
		Status:           b.Status,
		SeatIDs:          b.SeatIDs,
		TotalPriceCents:  b.TotalPriceCents,
		PaymentMethod:    b.PaymentMethod,
		PaymentReference: b.PaymentReference,
		PaidAt:           b.PaidAt,
		CreatedAt:        b.CreatedAt,
	}
}

// Create handles POST /v1/bookings.  The conflict check and the insert
// run in one transaction, so overlapping requests for the same seats
// resolve to exactly one winner; the loser gets 409 with the contested
// seat ids.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ShowtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime_id is required"})
	}

	b, err := h.Reservations.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		UserID:        userID,
		ShowtimeID:    req.ShowtimeID,
		SeatIDs:       req.SeatIDs,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// ListMine handles GET /v1/bookings and returns the caller's bookings
// with movie, showtime and seat details.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if b.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Cancel handles POST /v1/bookings/:id/cancel.  Only pending bookings
// can be cancelled; paid bookings answer 409.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Reservations.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Charge handles POST /v1/bookings/:id/charge.  It returns a payable
// QR charge covering the booking total.
func (h *BookingHandler) Charge(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ch, err := h.Payments.CreateCharge(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, ch)
}

// PaymentStatus handles GET /v1/bookings/:id/payment.  It polls the
// provider and settles the booking if the money arrived; a gateway
// timeout leaves the booking pending and the client polls again.
func (h *BookingHandler) PaymentStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.Payments.CheckAndConfirm(c.Request().Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}
