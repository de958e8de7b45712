package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation-engine/internal/service"
)

// AvailabilityHandler answers room and hotel availability queries.
type AvailabilityHandler struct {
	Availability *service.AvailabilityService
}

func NewAvailabilityHandler(s *service.AvailabilityService) *AvailabilityHandler {
	if s == nil {
		panic("nil service passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Availability: s}
}

// Hotel handles GET /api/v1/hotels/:id/availability?check_in=&check_out=.
func (h *AvailabilityHandler) Hotel(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	hotelID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid hotel id")
	}
	in, out, ok := stayRange(c)
	if !ok {
		return badRequest(c, "check_in and check_out must be YYYY-MM-DD")
	}
	res, err := h.Availability.Hotel(c.Request().Context(), acct, hotelID, in, out)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Room handles GET /api/v1/rooms/:id/availability?check_in=&check_out=.
func (h *AvailabilityHandler) Room(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	in, out, ok := stayRange(c)
	if !ok {
		return badRequest(c, "check_in and check_out must be YYYY-MM-DD")
	}
	free, err := h.Availability.RoomAvailable(c.Request().Context(), acct, roomID, in, out)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "available": free})
}

// stayRange reads check_in and check_out.  Missing values come back zero
// so the service reports them as required.
func stayRange(c echo.Context) (time.Time, time.Time, bool) {
	in, ok := queryDate(c, "check_in")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	out, ok := queryDate(c, "check_out")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	var checkIn, checkOut time.Time
	if in != nil {
		checkIn = *in
	}
	if out != nil {
		checkOut = *out
	}
	return checkIn, checkOut, true
}
