package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/service"
)

// SeatLockHandler exposes the temporary seat-hold endpoints customers use
// while completing checkout.
type SeatLockHandler struct {
	Locks *service.SeatLockService
}

func NewSeatLockHandler(locks *service.SeatLockService) *SeatLockHandler {
	return &SeatLockHandler{Locks: locks}
}

type seatIDsReq struct {
	SeatIDs []uint64 `json:"seat_ids"`
}

// Acquire handles POST /v1/showtimes/:id/locks.  All requested seats are
// locked for the caller or none are; contested seats come back in a 409
// body so the client can refresh its seat map.
func (h *SeatLockHandler) Acquire(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req seatIDsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	expires, err := h.Locks.Acquire(c.Request().Context(), showtimeID, req.SeatIDs, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"showtime_id": showtimeID,
		"seat_ids":    req.SeatIDs,
		"expires_at":  expires.UTC(),
	})
}

// Release handles DELETE /v1/showtimes/:id/locks.  Only the caller's own
// locks are removed; releasing seats that were never locked is a no-op.
func (h *SeatLockHandler) Release(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req seatIDsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	released, err := h.Locks.Release(c.Request().Context(), showtimeID, req.SeatIDs, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}
