package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation-engine/internal/service"
)

// DashboardHandler serves the daily occupancy summary.
type DashboardHandler struct {
	Dashboard *service.DashboardService
}

func NewDashboardHandler(s *service.DashboardService) *DashboardHandler {
	if s == nil {
		panic("nil service passed to NewDashboardHandler")
	}
	return &DashboardHandler{Dashboard: s}
}

// Daily handles GET /api/v1/hotels/:id/dashboard?date=.  date defaults
// to today.
func (h *DashboardHandler) Daily(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	hotelID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid hotel id")
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	summary, err := h.Dashboard.Daily(c.Request().Context(), acct, hotelID, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
