package router

import (
	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/handler"
	"github.com/vannda/cinebook/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.  All
// routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Movies ----
	g.POST("/movies", a.CreateMovie)
	g.PUT("/movies/:id", a.UpdateMovie)
	g.DELETE("/movies/:id", a.DeleteMovie)

	// ---- Cinemas ----
	g.POST("/cinemas", a.CreateCinema)
	g.PUT("/cinemas/:id", a.UpdateCinema)
	g.DELETE("/cinemas/:id", a.DeleteCinema)

	// ---- Auditoriums and seat grids ----
	g.POST("/cinemas/:id/auditoriums", a.CreateAuditorium)
	g.GET("/cinemas/:id/auditoriums", a.ListAuditoriums)
	g.GET("/auditoriums/:id/seats", a.ListAuditoriumSeats)
	g.DELETE("/auditoriums/:id", a.DeleteAuditorium)

	// ---- Showtimes ----
	g.POST("/showtimes", a.CreateShowtime)
	g.PUT("/showtimes/:id", a.UpdateShowtime)
	g.DELETE("/showtimes/:id", a.DeleteShowtime)

	// ---- Bookings ----
	g.GET("/bookings", a.ListBookings)
	g.GET("/showtimes/:id/bookings", a.ListShowtimeBookings)
}
