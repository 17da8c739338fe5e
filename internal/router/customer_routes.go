package router

import (
	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/handler"
	"github.com/vannda/cinebook/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  The rate limiter is
// applied here rather than globally: seat locking and booking are the
// endpoints bots hammer during popular on-sales.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, l *handler.SeatLockHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
		limit,
	)

	g.POST("/showtimes/:id/locks", l.Acquire)
	g.DELETE("/showtimes/:id/locks", l.Release)

	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.ListMine)
	g.GET("/bookings/:id", b.Get)
	g.POST("/bookings/:id/cancel", b.Cancel)
	g.POST("/bookings/:id/charge", b.Charge)
	g.GET("/bookings/:id/payment", b.PaymentStatus)
}
