package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation-engine/internal/afip"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository"
)

// Catalog is the read side of the inventory (hotels, room types, rooms)
// and the guest directory.  Every lookup is scoped to the account and
// returns repository.ErrNotFound for rows owned by someone else.
type Catalog interface {
	GetAccount(ctx context.Context, accountID uint64) (model.Account, error)
	GetHotel(ctx context.Context, accountID, hotelID uint64) (model.Hotel, error)
	GetRoomType(ctx context.Context, accountID, roomTypeID uint64) (model.RoomType, error)
	GetRoom(ctx context.Context, accountID, roomID uint64) (model.Room, error)
	ListRooms(ctx context.Context, accountID, hotelID uint64) ([]model.Room, error)
	GetGuest(ctx context.Context, accountID, guestID uint64) (model.Guest, error)
}

// ReservationStore persists reservations.  WithTx runs fn in one atomic
// unit; stores sharing a backend join the same unit when nested.
type ReservationStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockRoom serialises bookings on a room until the unit ends.
	LockRoom(ctx context.Context, roomID uint64) error
	// HasOverlap reports a blocking reservation on roomID intersecting
	// [checkIn, checkOut), ignoring excludeID when non-zero.
	HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error)
	CreateReservation(ctx context.Context, r *model.Reservation, guests []model.ReservationGuest) error
	GetReservation(ctx context.Context, accountID, id uint64) (model.Reservation, error)
	// GetReservationForUpdate locks the row until the unit ends.
	GetReservationForUpdate(ctx context.Context, accountID, id uint64) (model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus, payment model.PaymentStatus, updatedAt time.Time) error
	ReservationGuests(ctx context.Context, reservationID uint64) ([]model.ReservationGuest, error)
	ListReservations(ctx context.Context, accountID uint64) ([]model.Reservation, error)
	ListReservationsByHotel(ctx context.Context, accountID, hotelID uint64) ([]model.Reservation, error)
}

// PaymentStore is the append-only payment ledger.
type PaymentStore interface {
	AppendPayment(ctx context.Context, p *model.Payment) error
	SumPayments(ctx context.Context, reservationID uint64) (decimal.Decimal, error)
	ListPayments(ctx context.Context, reservationID uint64) ([]model.Payment, error)
}

// InvoiceStore persists invoices.  CreateInvoice returns
// repository.ErrDuplicate when the reservation already has one.
type InvoiceStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	InvoiceExists(ctx context.Context, reservationID uint64) (bool, error)
	// LastLocalVoucherNumber returns the highest number used by the account
	// for the point of sale and voucher type, locking the range until the
	// unit ends.
	LastLocalVoucherNumber(ctx context.Context, accountID uint64, pointOfSale int, voucherType string) (int64, error)
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	GetInvoice(ctx context.Context, accountID, id uint64) (model.Invoice, error)
	GetInvoiceByReservation(ctx context.Context, accountID, reservationID uint64) (model.Invoice, error)
	ListInvoices(ctx context.Context, accountID uint64, f repository.InvoiceFilter) ([]model.Invoice, error)
}

// TaxGateway authorizes vouchers with the tax authority.  *afip.Client
// implements it.
type TaxGateway interface {
	Issue(ctx context.Context, req afip.VoucherRequest) afip.Result
}
