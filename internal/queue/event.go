// Package queue defines the domain events published to the message broker
// and the envelope they travel in.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QueueName is the durable queue every hotel event is routed to.
const QueueName = "hotel.events"

const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventInvoiceIssued        = "invoice.issued"
)

// Event is implemented by every payload type.
type Event interface {
	EventName() string
}

// ReservationConfirmedEvent is published when the first payment moves a
// reservation from PENDING to CONFIRMED.
type ReservationConfirmedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	AccountID     uint64  `json:"account_id"`
	HotelID       uint64  `json:"hotel_id"`
	RoomID        *uint64 `json:"room_id,omitempty"`
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	TotalPrice    string  `json:"total_price"`
	TotalPaid     string  `json:"total_paid"`
	Currency      string  `json:"currency"`
	ConfirmedAt   string  `json:"confirmed_at"`
}

func (ReservationConfirmedEvent) EventName() string { return EventReservationConfirmed }

// ReservationCancelledEvent is published when a reservation is cancelled.
type ReservationCancelledEvent struct {
	ReservationID  uint64  `json:"reservation_id"`
	AccountID      uint64  `json:"account_id"`
	HotelID        uint64  `json:"hotel_id"`
	RoomID         *uint64 `json:"room_id,omitempty"`
	PreviousStatus string  `json:"previous_status"`
	CancelledAt    string  `json:"cancelled_at"`
}

func (ReservationCancelledEvent) EventName() string { return EventReservationCancelled }

// InvoiceIssuedEvent is published once an invoice row is committed,
// whatever its fiscal status.
type InvoiceIssuedEvent struct {
	InvoiceID     uint64 `json:"invoice_id"`
	AccountID     uint64 `json:"account_id"`
	ReservationID uint64 `json:"reservation_id"`
	VoucherType   string `json:"voucher_type"`
	PointOfSale   int    `json:"point_of_sale"`
	VoucherNumber int64  `json:"voucher_number"`
	Status        string `json:"status"`
	Fiscal        bool   `json:"fiscal"`
	TotalAmount   string `json:"total_amount"`
	Currency      string `json:"currency"`
	IssuedAt      string `json:"issued_at"`
}

func (InvoiceIssuedEvent) EventName() string { return EventInvoiceIssued }

// Envelope wraps an event with an id and its name so a single queue can
// carry every event type.
type Envelope struct {
	ID         string          `json:"event_id"`
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope marshals ev into an envelope with a fresh id.
func NewEnvelope(ev Event, now time.Time) (Envelope, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.NewString(),
		Name:       ev.EventName(),
		OccurredAt: now.UTC(),
		Payload:    body,
	}, nil
}
