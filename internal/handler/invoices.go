package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation-engine/internal/service"
)

// InvoiceHandler issues and reads invoices.
type InvoiceHandler struct {
	Invoices *service.InvoiceService
}

func NewInvoiceHandler(s *service.InvoiceService) *InvoiceHandler {
	if s == nil {
		panic("nil service passed to NewInvoiceHandler")
	}
	return &InvoiceHandler{Invoices: s}
}

type issueInvoiceReq struct {
	VoucherType        string           `json:"voucher_type"`
	PointOfSale        int              `json:"point_of_sale"`
	RecipientDocType   string           `json:"recipient_doc_type"`
	RecipientDocNumber string           `json:"recipient_doc_number"`
	RecipientName      string           `json:"recipient_name"`
	Amount             *decimal.Decimal `json:"amount"`
}

// Issue handles POST /api/v1/reservations/:id/invoice.  A gateway outage
// still yields 201 with a demo-mode invoice.
func (h *InvoiceHandler) Issue(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var req issueInvoiceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	inv, err := h.Invoices.Issue(c.Request().Context(), acct, service.IssueInvoiceInput{
		ReservationID:      id,
		VoucherType:        req.VoucherType,
		PointOfSale:        req.PointOfSale,
		RecipientDocType:   req.RecipientDocType,
		RecipientDocNumber: req.RecipientDocNumber,
		RecipientName:      req.RecipientName,
		Amount:             req.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

// ForReservation handles GET /api/v1/reservations/:id/invoice.
func (h *InvoiceHandler) ForReservation(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	inv, err := h.Invoices.GetByReservation(c.Request().Context(), acct, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// Get handles GET /api/v1/invoices/:id.
func (h *InvoiceHandler) Get(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid invoice id")
	}
	inv, err := h.Invoices.Get(c.Request().Context(), acct, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// List handles GET /api/v1/invoices?from=&to=&hotel_id=.  Dates are
// YYYY-MM-DD and both ends are inclusive.
func (h *InvoiceHandler) List(c echo.Context) error {
	acct, ok := accountID(c)
	if !ok {
		return unauthorized(c)
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return badRequest(c, "from must be YYYY-MM-DD")
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return badRequest(c, "to must be YYYY-MM-DD")
	}
	hotelID, ok := queryID(c, "hotel_id")
	if !ok {
		return badRequest(c, "invalid hotel_id")
	}
	items, err := h.Invoices.List(c.Request().Context(), acct, from, to, hotelID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}
