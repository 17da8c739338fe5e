package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/repository"
)

type showtimeReq struct {
	MovieID      uint64 `json:"movie_id"`
	AuditoriumID uint64 `json:"auditorium_id"`
	StartsAt     string `json:"starts_at"` // RFC 3339
	PriceCents   uint32 `json:"price_cents"`
}

func (r *showtimeReq) validate() (time.Time, string) {
	if r.MovieID == 0 || r.AuditoriumID == 0 || r.PriceCents == 0 {
		return time.Time{}, "movie_id, auditorium_id and price_cents are required"
	}
	starts, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return time.Time{}, "invalid starts_at, expected RFC 3339"
	}
	return starts.UTC(), ""
}

// CreateShowtime handles POST /v1/admin/showtimes.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	starts, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	// Reject dangling references up front for a clear client error.
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "movie not found"})
		}
		return fail(c, err)
	}
	if _, err := h.Cinemas.GetAuditorium(ctx, req.AuditoriumID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "auditorium not found"})
		}
		return fail(c, err)
	}

	st := &model.Showtime{
		MovieID:      req.MovieID,
		AuditoriumID: req.AuditoriumID,
		StartsAt:     starts,
		PriceCents:   req.PriceCents,
	}
	if err := h.Showtimes.Create(ctx, st); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

// UpdateShowtime handles PUT /v1/admin/showtimes/:id.
func (h *AdminHandler) UpdateShowtime(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	starts, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	st := &model.Showtime{
		ID:           id,
		MovieID:      req.MovieID,
		AuditoriumID: req.AuditoriumID,
		StartsAt:     starts,
		PriceCents:   req.PriceCents,
	}
	if err := h.Showtimes.Update(c.Request().Context(), st); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// DeleteShowtime handles DELETE /v1/admin/showtimes/:id.  Showtimes with
// non-cancelled bookings answer 409.
func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Showtimes.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListShowtimeBookings handles GET /v1/admin/showtimes/:id/bookings.
func (h *AdminHandler) ListShowtimeBookings(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	details, err := h.Bookings.ListByShowtime(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// ListBookings handles GET /v1/admin/bookings.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	details, err := h.Bookings.ListAll(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}
