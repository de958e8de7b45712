package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation-engine/internal/handler"
	"github.com/iliyamo/hotel-reservation-engine/internal/middleware"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// API groups the handlers mounted under /api/v1 and the optional
// Redis-backed middlewares wrapped around them.
type API struct {
	Reservations *handler.ReservationHandler
	Invoices     *handler.InvoiceHandler
	Availability *handler.AvailabilityHandler
	Dashboard    *handler.DashboardHandler

	RateLimit echo.MiddlewareFunc // runs after JWTAuth so keys can use the account
	Cache     echo.MiddlewareFunc // hotel availability and dashboard GETs only
}

// RegisterAPI mounts the reservation engine endpoints.  Every route needs
// a valid access token; the account in the token scopes all data.
func RegisterAPI(e *echo.Echo, api API, jwtSecret string) {
	g := e.Group(
		"/api/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
	)
	g.Use(optional(api.RateLimit)...)
	cached := optional(api.Cache)

	// ---- Availability ----
	g.GET("/hotels/:id/availability", api.Availability.Hotel, cached...)
	// Checked right before booking; never served from cache.
	g.GET("/rooms/:id/availability", api.Availability.Room)

	// ---- Reservations ----
	g.POST("/reservations", api.Reservations.Create)
	g.GET("/reservations", api.Reservations.List)
	g.GET("/reservations/:id", api.Reservations.Get)
	g.POST("/reservations/:id/cancel", api.Reservations.Cancel)
	g.POST("/reservations/:id/check-in", api.Reservations.CheckIn)
	g.POST("/reservations/:id/check-out", api.Reservations.CheckOut)

	// ---- Payments ----
	g.POST("/reservations/:id/payments", api.Reservations.RecordPayment)
	g.GET("/reservations/:id/payments", api.Reservations.ListPayments)

	// ---- Invoices ----
	g.POST("/reservations/:id/invoice", api.Invoices.Issue)
	g.GET("/reservations/:id/invoice", api.Invoices.ForReservation)
	g.GET("/invoices", api.Invoices.List)
	g.GET("/invoices/:id", api.Invoices.Get)

	// ---- Dashboard ----
	g.GET("/hotels/:id/dashboard", api.Dashboard.Daily, cached...)
}
