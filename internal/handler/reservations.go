package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/service"
)

// ReservationHandler exposes the reservation lifecycle and the payment
// ledger of a reservation.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Ledger       *service.LedgerService
}

// NewReservationHandler panics if a dependency is nil.
func NewReservationHandler(r *service.ReservationService, l *service.LedgerService) *ReservationHandler {
	if r == nil || l == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: r, Ledger: l}
}

type createReservationReq struct {
	HotelID        uint64          `json:"hotel_id"`
	RoomTypeID     uint64          `json:"room_type_id"`
	RoomID         *uint64         `json:"room_id"`
	CheckIn        string          `json:"check_in"`
	CheckOut       string          `json:"check_out"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Currency       string          `json:"currency"`
	Channel        string          `json:"channel"`
	Notes          string          `json:"notes"`
	PrimaryGuestID uint64          `json:"primary_guest_id"`
	CompanionIDs   []uint64        `json:"companion_ids"`
}

type recordPaymentReq struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference"`
	ChannelPaid bool            `json:"channel_paid"`
}

// Create handles POST /api/v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	var err error
	in := service.CreateReservationInput{
		HotelID:        req.HotelID,
		RoomTypeID:     req.RoomTypeID,
		RoomID:         req.RoomID,
		TotalPrice:     req.TotalPrice,
		Currency:       req.Currency,
		Channel:        req.Channel,
		Notes:          req.Notes,
		PrimaryGuestID: req.PrimaryGuestID,
		CompanionIDs:   req.CompanionIDs,
	}
	if s := strings.TrimSpace(req.CheckIn); s != "" {
		if in.CheckIn, err = model.ParseDate(s); err != nil {
			return badRequest(c, "check_in must be YYYY-MM-DD")
		}
	}
	if s := strings.TrimSpace(req.CheckOut); s != "" {
		if in.CheckOut, err = model.ParseDate(s); err != nil {
			return badRequest(c, "check_out must be YYYY-MM-DD")
		}
	}

	view, err := h.Reservations.Create(c.Request().Context(), acct, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// List handles GET /api/v1/reservations with an optional hotel_id filter.
func (h *ReservationHandler) List(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	hotelID, ok := queryID(c, "hotel_id")
	if !ok {
		return badRequest(c, "invalid hotel_id")
	}
	items, err := h.Reservations.List(c.Request().Context(), acct, hotelID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get handles GET /api/v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	return h.byID(c, h.Reservations.Get)
}

// Cancel handles POST /api/v1/reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.byID(c, h.Reservations.Cancel)
}

// CheckIn handles POST /api/v1/reservations/:id/check-in.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	return h.byID(c, h.Reservations.CheckIn)
}

// CheckOut handles POST /api/v1/reservations/:id/check-out.
func (h *ReservationHandler) CheckOut(c echo.Context) error {
	return h.byID(c, h.Reservations.CheckOut)
}

// RecordPayment handles POST /api/v1/reservations/:id/payments and
// answers with the reservation as it stands after the payment.
func (h *ReservationHandler) RecordPayment(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var req recordPaymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	view, err := h.Ledger.RecordPayment(c.Request().Context(), acct, service.RecordPaymentInput{
		ReservationID: id,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Method:        req.Method,
		Reference:     req.Reference,
		ChannelPaid:   req.ChannelPaid,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// ListPayments handles GET /api/v1/reservations/:id/payments.
func (h *ReservationHandler) ListPayments(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	summary, err := h.Ledger.ListPayments(c.Request().Context(), acct, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

type reservationOp func(ctx context.Context, accountID, id uint64) (service.ReservationView, error)

func (h *ReservationHandler) byID(c echo.Context, op reservationOp) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	view, err := op(c.Request().Context(), acct, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
