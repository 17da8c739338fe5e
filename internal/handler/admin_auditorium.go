package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/model"
)

type auditoriumReq struct {
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	SeatsPerRow int    `json:"seats_per_row"`
}

const maxGridSeats = 2000

// CreateAuditorium handles POST /v1/admin/cinemas/:id/auditoriums.  The
// seat grid is generated from rows x seats_per_row with alphabetical row
// labels (A1..A10, B1..B10, ..., AA1..).
func (h *AdminHandler) CreateAuditorium(c echo.Context) error {
	cinemaID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req auditoriumReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Rows < 1 || req.SeatsPerRow < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, rows and seats_per_row are required"})
	}
	if req.Rows*req.SeatsPerRow > maxGridSeats {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat grid too large"})
	}

	ctx := c.Request().Context()
	a := &model.Auditorium{CinemaID: cinemaID, Name: req.Name}
	if err := h.Cinemas.CreateAuditorium(ctx, a); err != nil {
		return fail(c, err)
	}

	seats := make([]model.Seat, 0, req.Rows*req.SeatsPerRow)
	for r := 0; r < req.Rows; r++ {
		label := indexToRowLabel(r)
		for n := 1; n <= req.SeatsPerRow; n++ {
			seats = append(seats, model.Seat{
				AuditoriumID: a.ID,
				RowLabel:     label,
				SeatNumber:   uint32(n),
			})
		}
	}
	if err := h.Seats.CreateBulk(ctx, seats); err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"auditorium": a,
		"seat_count": len(seats),
	})
}

// ListAuditoriums handles GET /v1/admin/cinemas/:id/auditoriums.
func (h *AdminHandler) ListAuditoriums(c echo.Context) error {
	cinemaID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	auds, err := h.Cinemas.ListAuditoriums(c.Request().Context(), cinemaID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"auditoriums": auds})
}

// ListAuditoriumSeats handles GET /v1/admin/auditoriums/:id/seats.
func (h *AdminHandler) ListAuditoriumSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	seats, err := h.Seats.ListByAuditorium(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}

// DeleteAuditorium handles DELETE /v1/admin/auditoriums/:id.  The seat
// rows go with it; auditoriums referenced by showtimes answer 409.
func (h *AdminHandler) DeleteAuditorium(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	// Conflict check happens on the auditorium delete, so it runs first.
	if err := h.Cinemas.DeleteAuditorium(ctx, id); err != nil {
		return fail(c, err)
	}
	if err := h.Seats.DeleteByAuditorium(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
