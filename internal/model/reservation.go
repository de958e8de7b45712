package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "PENDING"
	ReservationConfirmed  ReservationStatus = "CONFIRMED"
	ReservationCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationCancelled  ReservationStatus = "CANCELLED"
)

// BlockingStatuses lists the states that occupy a room for overlap
// purposes.  Availability checks, the booking guard and the daily
// occupancy projection all read this one definition.
var BlockingStatuses = []ReservationStatus{
	ReservationPending,
	ReservationConfirmed,
	ReservationCheckedIn,
}

// Blocking reports whether a reservation in this state holds its room.
func (s ReservationStatus) Blocking() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationCheckedOut
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCheckedIn,
		ReservationCheckedOut, ReservationCancelled:
		return true
	}
	return false
}

// PaymentStatus is derived from the payments recorded against a
// reservation; it is never set directly.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "PENDING"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
)

// Reservation is a stay booked at a hotel, optionally pinned to a room.
// CheckIn and CheckOut are calendar dates (UTC midnight) and CheckOut is
// exclusive, so [CheckIn, CheckOut) is the set of occupied nights.
//
// Fields:
//
//	ID            – primary key identifier.
//	AccountID     – owning account.
//	HotelID       – hotel the stay belongs to.
//	RoomTypeID    – requested room category.
//	RoomID        – assigned room (nil until assigned).
//	CheckIn       – first night.
//	CheckOut      – departure day, not occupied.
//	Status        – lifecycle state.
//	PaymentStatus – derived settlement state.
//	TotalPrice    – agreed price for the whole stay.
//	Currency      – ISO currency code of TotalPrice.
//	Channel       – booking source (DIRECT, PHONE, OTA...).
//	Notes         – free text.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – stamped on every transition.
type Reservation struct {
	ID            uint64            `json:"id"`             // reservations.id
	AccountID     uint64            `json:"account_id"`     // reservations.account_id
	HotelID       uint64            `json:"hotel_id"`       // reservations.hotel_id
	RoomTypeID    uint64            `json:"room_type_id"`   // reservations.room_type_id
	RoomID        *uint64           `json:"room_id"`        // reservations.room_id (nullable)
	CheckIn       time.Time         `json:"check_in"`       // reservations.check_in
	CheckOut      time.Time         `json:"check_out"`      // reservations.check_out
	Status        ReservationStatus `json:"status"`         // reservations.status
	PaymentStatus PaymentStatus     `json:"payment_status"` // reservations.payment_status
	TotalPrice    decimal.Decimal   `json:"total_price"`    // reservations.total_price
	Currency      string            `json:"currency"`       // reservations.currency
	Channel       string            `json:"channel"`        // reservations.channel
	Notes         string            `json:"notes"`          // reservations.notes
	CreatedAt     time.Time         `json:"created_at"`     // reservations.created_at
	UpdatedAt     time.Time         `json:"updated_at"`     // reservations.updated_at
}

// OnRoom reports whether the reservation is assigned to roomID.
func (r Reservation) OnRoom(roomID uint64) bool {
	return r.RoomID != nil && *r.RoomID == roomID
}

// Occupies reports whether the night starting on date falls inside
// [CheckIn, CheckOut).
func (r Reservation) Occupies(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Overlaps reports whether the half-open intervals [aIn, aOut) and
// [bIn, bOut) intersect.  Touching endpoints do not overlap, which is
// what allows a same-day turnover.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}
