package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an append-only ledger row against a reservation.  Rows are
// never updated or deleted; the settlement state is recomputed from the
// full set on every new payment.
//
// Fields:
//
//	ID            – primary key identifier.
//	ReservationID – reservation being settled.
//	Amount        – strictly positive amount.
//	Currency      – ISO currency code.
//	Method        – CASH, CARD, TRANSFER...
//	Reference     – external reference (receipt, transaction id).
//	ChannelPaid   – true when collected by a booking channel.
//	PaidAt        – when the money was received.
type Payment struct {
	ID            uint64          `json:"id"`             // payments.id
	ReservationID uint64          `json:"reservation_id"` // payments.reservation_id
	Amount        decimal.Decimal `json:"amount"`         // payments.amount
	Currency      string          `json:"currency"`       // payments.currency
	Method        string          `json:"method"`         // payments.method
	Reference     string          `json:"reference"`      // payments.reference
	ChannelPaid   bool            `json:"channel_paid"`   // payments.channel_paid
	PaidAt        time.Time       `json:"paid_at"`        // payments.paid_at
}
