package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/vannda/cinebook/internal/handler"
	"github.com/vannda/cinebook/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register and
// login live under /v1/auth; /v1/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: movies,
// cinemas, showtimes and the live seat map.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	g := e.Group("/v1")
	g.GET("/movies", p.ListMovies)
	g.GET("/movies/:id", p.GetMovie)
	g.GET("/cinemas", p.ListCinemas)
	g.GET("/showtimes", p.ListShowtimes)
	g.GET("/showtimes/:id", p.GetShowtime)
	g.GET("/showtimes/:id/seats", p.SeatMap)
}

// RegisterWebhooks registers provider callback endpoints.  They carry no
// user JWT; the handler validates payload contents instead.
func RegisterWebhooks(e *echo.Echo, w *handler.WebhookHandler) {
	e.POST("/v1/webhooks/payment", w.PaymentNotification)
}
