package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/repository"
)

// AdminHandler bundles the repositories admins use to manage the catalog:
// movies, cinemas, auditoriums with their seat grids, and showtimes.
type AdminHandler struct {
	Movies    *repository.MovieRepo
	Cinemas   *repository.CinemaRepo
	Seats     *repository.SeatRepo
	Showtimes *repository.ShowtimeRepo
	Bookings  *repository.BookingRepo
}

func NewAdminHandler(movies *repository.MovieRepo, cinemas *repository.CinemaRepo, seats *repository.SeatRepo, showtimes *repository.ShowtimeRepo, bookings *repository.BookingRepo) *AdminHandler {
	if movies == nil || cinemas == nil || seats == nil || showtimes == nil || bookings == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Movies: movies, Cinemas: cinemas, Seats: seats, Showtimes: showtimes, Bookings: bookings}
}

type movieReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DurationMin uint32 `json:"duration_min"`
	Genre       string `json:"genre"`
	PosterURL   string `json:"poster_url"`
}

// CreateMovie handles POST /v1/admin/movies.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and duration_min are required"})
	}
	m := &model.Movie{
		Title:       req.Title,
		Description: req.Description,
		DurationMin: req.DurationMin,
		Genre:       req.Genre,
		PosterURL:   req.PosterURL,
	}
	if err := h.Movies.Create(c.Request().Context(), m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// UpdateMovie handles PUT /v1/admin/movies/:id.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and duration_min are required"})
	}
	m := &model.Movie{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		DurationMin: req.DurationMin,
		Genre:       req.Genre,
		PosterURL:   req.PosterURL,
	}
	if err := h.Movies.Update(c.Request().Context(), m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// DeleteMovie handles DELETE /v1/admin/movies/:id.  Movies referenced by
// showtimes answer 409.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type cinemaReq struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// CreateCinema handles POST /v1/admin/cinemas.
func (h *AdminHandler) CreateCinema(c echo.Context) error {
	var req cinemaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	cin := &model.Cinema{Name: req.Name, City: req.City, Address: req.Address}
	if err := h.Cinemas.Create(c.Request().Context(), cin); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, cin)
}

// UpdateCinema handles PUT /v1/admin/cinemas/:id.
func (h *AdminHandler) UpdateCinema(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req cinemaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	cin := &model.Cinema{ID: id, Name: req.Name, City: req.City, Address: req.Address}
	if err := h.Cinemas.Update(c.Request().Context(), cin); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cin)
}

// DeleteCinema handles DELETE /v1/admin/cinemas/:id.
func (h *AdminHandler) DeleteCinema(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Cinemas.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
