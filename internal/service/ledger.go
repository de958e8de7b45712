package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iliyamo/hotel-reservation-engine/internal/clock"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/queue"
)

const defaultPaymentMethod = "CASH"

// RecordPaymentInput describes one payment against a reservation.
type RecordPaymentInput struct {
	ReservationID uint64          `json:"reservation_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference"`
	ChannelPaid   bool            `json:"channel_paid"`
}

// PaymentSummary is the ledger of a reservation with its running totals.
type PaymentSummary struct {
	ReservationID      uint64              `json:"reservation_id"`
	TotalPrice         decimal.Decimal     `json:"total_price"`
	TotalPaid          decimal.Decimal     `json:"total_paid"`
	OutstandingBalance decimal.Decimal     `json:"outstanding_balance"`
	PaymentStatus      model.PaymentStatus `json:"payment_status"`
	Currency           string              `json:"currency"`
	Payments           []model.Payment     `json:"payments"`
}

// LedgerService appends payments and keeps the derived payment status of
// the reservation in step with them.
type LedgerService struct {
	reservations ReservationStore
	payments     PaymentStore
	clock        clock.Clock
	opts         options
	metrics      instruments
}

// NewLedgerService wires the payment ledger.  reservations and payments
// must share a backend so that WithTx covers both.
func NewLedgerService(reservations ReservationStore, payments PaymentStore, clk clock.Clock, opts ...Option) *LedgerService {
	return &LedgerService{
		reservations: reservations,
		payments:     payments,
		clock:        clk,
		opts:         buildOptions(opts),
		metrics:      newInstruments(),
	}
}

// RecordPayment appends a payment, recomputes the total paid and derives
// the new payment status.  The first positive payment on a PENDING
// reservation confirms it.
func (s *LedgerService) RecordPayment(ctx context.Context, accountID uint64, in RecordPaymentInput) (ReservationView, error) {
	if !in.Amount.IsPositive() {
		return ReservationView{}, validation("amount must be greater than zero")
	}
	if err := checkAmount("amount", in.Amount); err != nil {
		return ReservationView{}, err
	}

	var (
		r         model.Reservation
		totalPaid decimal.Decimal
		confirmed bool
	)
	err := s.reservations.WithTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.reservations.GetReservationForUpdate(ctx, accountID, in.ReservationID)
		if err != nil {
			return lookup(err, "reservation", in.ReservationID)
		}
		if r.Status == model.ReservationCancelled || r.Status == model.ReservationCheckedOut {
			return precondition("cannot take payment on a closed reservation")
		}
		currency := strings.ToUpper(strings.TrimSpace(in.Currency))
		if currency == "" {
			currency = r.Currency
		}
		if currency != r.Currency {
			return validation("payment currency %s does not match reservation currency %s", currency, r.Currency)
		}
		method := strings.ToUpper(strings.TrimSpace(in.Method))
		if method == "" {
			method = defaultPaymentMethod
		}

		now := s.clock.Now()
		p := model.Payment{
			ReservationID: r.ID,
			Amount:        in.Amount,
			Currency:      currency,
			Method:        method,
			Reference:     in.Reference,
			ChannelPaid:   in.ChannelPaid,
			PaidAt:        now,
		}
		if err := s.payments.AppendPayment(ctx, &p); err != nil {
			return err
		}
		totalPaid, err = s.payments.SumPayments(ctx, r.ID)
		if err != nil {
			return err
		}

		ps, rs := DeriveStatus(totalPaid, r.TotalPrice, r.Status)
		confirmed = r.Status == model.ReservationPending && rs == model.ReservationConfirmed
		r.PaymentStatus, r.Status, r.UpdatedAt = ps, rs, now
		return s.reservations.UpdateReservationStatus(ctx, r.ID, r.Status, r.PaymentStatus, r.UpdatedAt)
	})
	if err != nil {
		return ReservationView{}, err
	}

	add(ctx, s.metrics.payments, attribute.String("payment_status", string(r.PaymentStatus)))
	log.Printf("[ledger] payment reservation=%d amount=%s total_paid=%s status=%s",
		r.ID, in.Amount, totalPaid, r.PaymentStatus)
	if confirmed {
		s.opts.publish(ctx, queue.ReservationConfirmedEvent{
			ReservationID: r.ID,
			AccountID:     r.AccountID,
			HotelID:       r.HotelID,
			RoomID:        r.RoomID,
			CheckIn:       r.CheckIn.Format(model.DateLayout),
			CheckOut:      r.CheckOut.Format(model.DateLayout),
			TotalPrice:    r.TotalPrice.StringFixed(2),
			TotalPaid:     totalPaid.StringFixed(2),
			Currency:      r.Currency,
			ConfirmedAt:   r.UpdatedAt.Format(time.RFC3339),
		})
	}

	guests, err := s.reservations.ReservationGuests(ctx, r.ID)
	if err != nil {
		return ReservationView{}, err
	}
	return newView(r, guests), nil
}

// ListPayments returns every payment of the reservation in the order they
// were recorded, plus the outstanding balance.
func (s *LedgerService) ListPayments(ctx context.Context, accountID, reservationID uint64) (PaymentSummary, error) {
	r, err := s.reservations.GetReservation(ctx, accountID, reservationID)
	if err != nil {
		return PaymentSummary{}, lookup(err, "reservation", reservationID)
	}
	payments, err := s.payments.ListPayments(ctx, r.ID)
	if err != nil {
		return PaymentSummary{}, err
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	ps, _ := DeriveStatus(paid, r.TotalPrice, r.Status)
	return PaymentSummary{
		ReservationID:      r.ID,
		TotalPrice:         r.TotalPrice,
		TotalPaid:          paid,
		OutstandingBalance: outstanding(r.TotalPrice, paid),
		PaymentStatus:      ps,
		Currency:           r.Currency,
		Payments:           payments,
	}, nil
}
