package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/repository"
	"github.com/vannda/cinebook/internal/service"
)

// PublicHandler serves the unauthenticated browsing endpoints: movies,
// showtimes, cinemas and the live seat map.
type PublicHandler struct {
	Movies       *repository.MovieRepo
	Cinemas      *repository.CinemaRepo
	Showtimes    *repository.ShowtimeRepo
	Reservations *service.ReservationService
}

func NewPublicHandler(movies *repository.MovieRepo, cinemas *repository.CinemaRepo, showtimes *repository.ShowtimeRepo, res *service.ReservationService) *PublicHandler {
	return &PublicHandler{Movies: movies, Cinemas: cinemas, Showtimes: showtimes, Reservations: res}
}

// ListMovies handles GET /v1/movies.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// GetMovie handles GET /v1/movies/:id.
func (h *PublicHandler) GetMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// ListCinemas handles GET /v1/cinemas.
func (h *PublicHandler) ListCinemas(c echo.Context) error {
	cinemas, err := h.Cinemas.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cinemas": cinemas})
}

// ListShowtimes handles GET /v1/showtimes with optional ?date=2026-01-02
// and ?cinema_id= filters.
func (h *PublicHandler) ListShowtimes(c echo.Context) error {
	var date *time.Time
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
		date = &d
	}
	var cinemaID uint64
	if raw := c.QueryParam("cinema_id"); raw != "" {
		id, err := parseUintParam(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cinema_id"})
		}
		cinemaID = id
	}

	shows, err := h.Showtimes.List(c.Request().Context(), date, cinemaID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"showtimes": shows})
}

// GetShowtime handles GET /v1/showtimes/:id.
func (h *PublicHandler) GetShowtime(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	st, err := h.Showtimes.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// SeatMap handles GET /v1/showtimes/:id/seats.  Each seat carries its
// current state: available, locked or booked.  The view is advisory;
// booking re-checks under the showtime lock.
func (h *PublicHandler) SeatMap(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	seats, err := h.Reservations.Availability(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime_id": id, "seats": seats})
}
