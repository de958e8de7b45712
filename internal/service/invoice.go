package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iliyamo/hotel-reservation-engine/internal/afip"
	"github.com/iliyamo/hotel-reservation-engine/internal/clock"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/queue"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository"
)

const defaultVoucherType = "B"

// demoVoucherBase starts the local numbering range above the gateway's
// eight-digit voucher numbers, so a local number never repeats a fiscal one.
const demoVoucherBase int64 = 100_000_000

var (
	listFrom = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	listTo   = time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)

	errGatewayDisabled = errors.New("tax gateway disabled")
)

// IssueInvoiceInput describes the voucher to emit for a reservation.
// Recipient fields left empty are taken from the primary guest, and a nil
// Amount bills the reservation's total price.
type IssueInvoiceInput struct {
	ReservationID      uint64           `json:"reservation_id"`
	VoucherType        string           `json:"voucher_type"`
	PointOfSale        int              `json:"point_of_sale"`
	RecipientDocType   string           `json:"recipient_doc_type"`
	RecipientDocNumber string           `json:"recipient_doc_number"`
	RecipientName      string           `json:"recipient_name"`
	Amount             *decimal.Decimal `json:"amount"`
}

// InvoiceService emits the one invoice a reservation may have.  The tax
// gateway is best effort: when it cannot be used the invoice is still
// written, numbered locally and marked INTERNAL.
type InvoiceService struct {
	catalog      Catalog
	reservations ReservationStore
	invoices     InvoiceStore
	gateway      TaxGateway
	clock        clock.Clock
	opts         options
	metrics      instruments
}

// NewInvoiceService wires the issuer.  A nil gateway issues every invoice
// in demo mode.
func NewInvoiceService(catalog Catalog, reservations ReservationStore, invoices InvoiceStore, gateway TaxGateway, clk clock.Clock, opts ...Option) *InvoiceService {
	return &InvoiceService{
		catalog:      catalog,
		reservations: reservations,
		invoices:     invoices,
		gateway:      gateway,
		clock:        clk,
		opts:         buildOptions(opts),
		metrics:      newInstruments(),
	}
}

// Issue emits the invoice for a reservation.  An existing invoice is a
// Conflict, detected before the gateway is contacted.
func (s *InvoiceService) Issue(ctx context.Context, accountID uint64, in IssueInvoiceInput) (model.Invoice, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "invoice.issue")
	defer span.End()
	span.SetAttributes(attribute.Int64("reservation_id", int64(in.ReservationID)))

	inv, err := s.issue(ctx, accountID, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Invoice{}, err
	}
	span.SetAttributes(attribute.String("status", string(inv.Status)))
	return inv, nil
}

func (s *InvoiceService) issue(ctx context.Context, accountID uint64, in IssueInvoiceInput) (model.Invoice, error) {
	voucherType := strings.ToUpper(strings.TrimSpace(in.VoucherType))
	if voucherType == "" {
		voucherType = defaultVoucherType
	}
	if voucherType != "A" && voucherType != "B" && voucherType != "C" {
		return model.Invoice{}, validation("voucher_type must be A, B or C")
	}
	if in.PointOfSale <= 0 {
		return model.Invoice{}, validation("point_of_sale must be positive")
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return model.Invoice{}, validation("amount must be greater than zero")
		}
		if err := checkAmount("amount", *in.Amount); err != nil {
			return model.Invoice{}, err
		}
	}

	r, err := s.reservations.GetReservation(ctx, accountID, in.ReservationID)
	if err != nil {
		return model.Invoice{}, lookup(err, "reservation", in.ReservationID)
	}
	exists, err := s.invoices.InvoiceExists(ctx, r.ID)
	if err != nil {
		return model.Invoice{}, err
	}
	if exists {
		return model.Invoice{}, conflict("reservation %d already has an invoice", r.ID)
	}
	account, err := s.catalog.GetAccount(ctx, accountID)
	if err != nil {
		return model.Invoice{}, lookup(err, "account", accountID)
	}
	if err := s.fillRecipient(ctx, accountID, r.ID, &in); err != nil {
		return model.Invoice{}, err
	}

	amount := r.TotalPrice
	if in.Amount != nil {
		amount = *in.Amount
	}
	now := s.clock.Now()
	issueDate := clock.Today(s.clock)
	req := afip.VoucherRequest{
		IssuerTaxID:        account.TaxID,
		PointOfSale:        in.PointOfSale,
		VoucherType:        voucherType,
		IssueDate:          issueDate,
		Currency:           s.opts.gatewayCurrency,
		Amount:             amount,
		RecipientDocType:   in.RecipientDocType,
		RecipientDocNumber: in.RecipientDocNumber,
		RecipientName:      in.RecipientName,
	}
	res := s.authorize(ctx, req)

	reservationID := r.ID
	inv := model.Invoice{
		AccountID:          accountID,
		HotelID:            r.HotelID,
		ReservationID:      &reservationID,
		VoucherType:        voucherType,
		PointOfSale:        in.PointOfSale,
		IssuerTaxID:        account.TaxID,
		RecipientDocType:   strings.ToUpper(in.RecipientDocType),
		RecipientDocNumber: in.RecipientDocNumber,
		RecipientName:      in.RecipientName,
		IssuedAt:           now,
		TotalAmount:        amount,
		Currency:           s.opts.invoiceCurrency,
		Status:             model.InvoiceInternal,
		Detail:             fmt.Sprintf("Invoice generated for reservation %d", r.ID),
	}
	switch res.Outcome {
	case afip.OutcomeApproved:
		cae := res.Authorization.CAE
		inv.CAE = &cae
		inv.CAEExpiry = res.Authorization.CAEExpiry
		inv.VoucherNumber = res.Authorization.VoucherNumber
		inv.Status = model.InvoiceApproved
	case afip.OutcomeDeclined:
		inv.VoucherNumber = res.Authorization.VoucherNumber
	default:
		expiry := issueDate.Add(s.opts.demoExpiry)
		inv.CAEExpiry = &expiry
	}

	err = s.invoices.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.invoices.InvoiceExists(ctx, r.ID)
		if err != nil {
			return err
		}
		if exists {
			return conflict("reservation %d already has an invoice", r.ID)
		}
		if inv.VoucherNumber == 0 {
			last, err := s.invoices.LastLocalVoucherNumber(ctx, accountID, inv.PointOfSale, inv.VoucherType)
			if err != nil {
				return err
			}
			inv.VoucherNumber = max(last+1, demoVoucherBase)
		}
		if err := s.invoices.CreateInvoice(ctx, &inv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflict("reservation %d already has an invoice", r.ID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.Invoice{}, err
	}

	add(ctx, s.metrics.invoices, attribute.String("status", string(inv.Status)))
	log.Printf("[invoice] issued id=%d reservation=%d number=%d-%d status=%s outcome=%s",
		inv.ID, r.ID, inv.PointOfSale, inv.VoucherNumber, inv.Status, res.Outcome)
	s.opts.publish(ctx, queue.InvoiceIssuedEvent{
		InvoiceID:     inv.ID,
		AccountID:     inv.AccountID,
		ReservationID: r.ID,
		VoucherType:   inv.VoucherType,
		PointOfSale:   inv.PointOfSale,
		VoucherNumber: inv.VoucherNumber,
		Status:        string(inv.Status),
		Fiscal:        inv.Fiscal(),
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		Currency:      inv.Currency,
		IssuedAt:      inv.IssuedAt.Format(time.RFC3339),
	})
	return inv, nil
}

// authorize runs the gateway exchange.  Failures are logged and counted
// here and come back as an OutcomeFailed result for demo numbering.
func (s *InvoiceService) authorize(ctx context.Context, req afip.VoucherRequest) afip.Result {
	res := afip.Failure(errGatewayDisabled)
	if s.gateway != nil {
		res = s.gateway.Issue(ctx, req)
	}
	switch res.Outcome {
	case afip.OutcomeFailed:
		add(ctx, s.metrics.gatewayFallbacks)
		log.Printf("[invoice] gateway unavailable, issuing in demo mode: %v", res.Err)
	case afip.OutcomeDeclined:
		log.Printf("[invoice] gateway declined voucher pos=%d type=%s number=%d",
			req.PointOfSale, req.VoucherType, res.Authorization.VoucherNumber)
	}
	return res
}

// fillRecipient completes missing recipient fields from the primary guest.
func (s *InvoiceService) fillRecipient(ctx context.Context, accountID, reservationID uint64, in *IssueInvoiceInput) error {
	if in.RecipientName != "" && in.RecipientDocNumber != "" {
		return nil
	}
	links, err := s.reservations.ReservationGuests(ctx, reservationID)
	if err != nil {
		return err
	}
	for _, l := range links {
		if !l.IsPrimary {
			continue
		}
		g, err := s.catalog.GetGuest(ctx, accountID, l.GuestID)
		if err != nil {
			return lookup(err, "guest", l.GuestID)
		}
		if in.RecipientName == "" {
			in.RecipientName = g.FullName
		}
		if in.RecipientDocNumber == "" {
			in.RecipientDocNumber = g.DocNumber
			if in.RecipientDocType == "" {
				in.RecipientDocType = g.DocType
			}
		}
		break
	}
	if in.RecipientName == "" {
		return validation("recipient_name is required")
	}
	return nil
}

// Get returns one invoice owned by the account.
func (s *InvoiceService) Get(ctx context.Context, accountID, id uint64) (model.Invoice, error) {
	inv, err := s.invoices.GetInvoice(ctx, accountID, id)
	if err != nil {
		return model.Invoice{}, lookup(err, "invoice", id)
	}
	return inv, nil
}

// GetByReservation returns the invoice of a reservation owned by the
// account.
func (s *InvoiceService) GetByReservation(ctx context.Context, accountID, reservationID uint64) (model.Invoice, error) {
	inv, err := s.invoices.GetInvoiceByReservation(ctx, accountID, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Invoice{}, notFound("no invoice for reservation %d", reservationID)
		}
		return model.Invoice{}, err
	}
	return inv, nil
}

// List returns the account's invoices issued in [from, to], newest first.
// Nil bounds default to a range wide enough to cover every invoice.
func (s *InvoiceService) List(ctx context.Context, accountID uint64, from, to *time.Time, hotelID *uint64) ([]model.Invoice, error) {
	f := repository.InvoiceFilter{From: listFrom, To: listTo, HotelID: hotelID}
	if from != nil {
		f.From = model.DateOf(*from)
	}
	if to != nil {
		f.To = model.DateOf(*to).Add(24*time.Hour - time.Second)
	}
	if f.To.Before(f.From) {
		return nil, validation("from must not be after to")
	}
	if hotelID != nil {
		if _, err := s.catalog.GetHotel(ctx, accountID, *hotelID); err != nil {
			return nil, lookup(err, "hotel", *hotelID)
		}
	}
	out, err := s.invoices.ListInvoices(ctx, accountID, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Invoice{}
	}
	return out, nil
}
