package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-booking/internal/handler"
	"github.com/iliyamo/festival-booking/internal/middleware"
	"github.com/iliyamo/festival-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication and
// are not part of the versioned API.  Currently it exposes only a health
// check for load balancers.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers account routes.  Register and login live under
// /v1/auth behind the limiter; /v1/me needs a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the anonymous catalog.  Responses are cached
// by the supplied middleware.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/festivals", p.ListFestivals, cache)
	e.GET("/v1/festivals/:id", p.GetFestival, cache)
	e.GET("/v1/festivals/:id/programs", p.ListFestivalPrograms, cache)
	e.GET("/v1/programs/search", p.SearchPrograms, cache)
	// reviews change as students post them
	e.GET("/v1/programs/:id/reviews", p.ListReviews)
}

// RegisterStudent registers STUDENT-scoped endpoints under /v1.  Order
// creation and admission share the booking limiter.
func RegisterStudent(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent),
	)
	g.POST("/bookings/orders", b.CreateOrder, limit)
	g.POST("/bookings", b.Book, limit)
	g.GET("/my-bookings", b.MyBookings)
	g.GET("/bookings/:id/members", b.Members)
	g.GET("/bookings/:id/pass", b.Pass)
	g.POST("/programs/:id/reviews", b.AddReview)
}

// RegisterCollege registers COLLEGE-scoped endpoints under /v1/college.
func RegisterCollege(e *echo.Echo, c *handler.CollegeHandler, jwtSecret string) {
	g := e.Group(
		"/v1/college",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCollege),
	)

	// ---- Festivals ----
	g.POST("/festivals", c.CreateFestival)
	g.GET("/festivals", c.ListFestivals)
	g.DELETE("/festivals/:id", c.DeleteFestival)
	g.POST("/festivals/:id/programs", c.AddProgram)

	// ---- Programs ----
	g.GET("/programs", c.ListPrograms)
	g.DELETE("/programs/:id", c.DeleteProgram)
	g.GET("/programs/:id/bookings", c.ProgramBookings)

	// ---- Reports ----
	g.GET("/reports/bookings.xlsx", c.BookingsReport)
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/festivals", a.ListFestivals)
	g.PUT("/festivals/:id/approve", a.Approve)
	g.PUT("/festivals/:id/reject", a.Reject)
}
