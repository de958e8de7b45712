package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iliyamo/hotel-reservation-engine/internal/clock"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/queue"
)

const defaultChannel = "DIRECT"

// CreateReservationInput is what a caller supplies to book a stay.
type CreateReservationInput struct {
	HotelID        uint64          `json:"hotel_id"`
	RoomTypeID     uint64          `json:"room_type_id"`
	RoomID         *uint64         `json:"room_id"`
	CheckIn        time.Time       `json:"check_in"`
	CheckOut       time.Time       `json:"check_out"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Currency       string          `json:"currency"`
	Channel        string          `json:"channel"`
	Notes          string          `json:"notes"`
	PrimaryGuestID uint64          `json:"primary_guest_id"`
	CompanionIDs   []uint64        `json:"companion_ids"`
}

// ReservationView is a reservation together with its guest links.
type ReservationView struct {
	model.Reservation
	PrimaryGuestID uint64   `json:"primary_guest_id"`
	CompanionIDs   []uint64 `json:"companion_ids"`
}

// ReservationService creates reservations and drives their state machine.
// Confirmation is not exposed here; it happens when the ledger records the
// first payment.
type ReservationService struct {
	catalog      Catalog
	store        ReservationStore
	availability *AvailabilityService
	clock        clock.Clock
	opts         options
	metrics      instruments
}

// NewReservationService wires the lifecycle component.
func NewReservationService(catalog Catalog, store ReservationStore, availability *AvailabilityService, clk clock.Clock, opts ...Option) *ReservationService {
	return &ReservationService{
		catalog:      catalog,
		store:        store,
		availability: availability,
		clock:        clk,
		opts:         buildOptions(opts),
		metrics:      newInstruments(),
	}
}

// Create books a stay.  When a room is named the overlap check and the
// insert run under a lock on that room, so two concurrent bookings for the
// same nights cannot both succeed.
func (s *ReservationService) Create(ctx context.Context, accountID uint64, in CreateReservationInput) (ReservationView, error) {
	if err := validateRange(in.CheckIn, in.CheckOut); err != nil {
		return ReservationView{}, err
	}
	if in.TotalPrice.IsNegative() {
		return ReservationView{}, validation("total_price must not be negative")
	}
	if err := checkAmount("total_price", in.TotalPrice); err != nil {
		return ReservationView{}, err
	}
	if _, err := s.catalog.GetHotel(ctx, accountID, in.HotelID); err != nil {
		return ReservationView{}, lookup(err, "hotel", in.HotelID)
	}
	rt, err := s.catalog.GetRoomType(ctx, accountID, in.RoomTypeID)
	if err != nil {
		return ReservationView{}, lookup(err, "room type", in.RoomTypeID)
	}
	if rt.HotelID != in.HotelID {
		return ReservationView{}, validation("room type %d does not belong to hotel %d", rt.ID, in.HotelID)
	}
	if in.RoomID != nil {
		room, err := s.catalog.GetRoom(ctx, accountID, *in.RoomID)
		if err != nil {
			return ReservationView{}, lookup(err, "room", *in.RoomID)
		}
		switch {
		case room.HotelID != in.HotelID:
			return ReservationView{}, validation("room %d does not belong to hotel %d", room.ID, in.HotelID)
		case room.RoomTypeID != in.RoomTypeID:
			return ReservationView{}, validation("room %d is not of room type %d", room.ID, in.RoomTypeID)
		case !room.IsActive:
			return ReservationView{}, validation("room %d is not active", room.ID)
		}
	}
	guests, err := s.guestLinks(ctx, accountID, in.PrimaryGuestID, in.CompanionIDs)
	if err != nil {
		return ReservationView{}, err
	}

	now := s.clock.Now()
	r := model.Reservation{
		AccountID:     accountID,
		HotelID:       in.HotelID,
		RoomTypeID:    in.RoomTypeID,
		RoomID:        in.RoomID,
		CheckIn:       model.DateOf(in.CheckIn),
		CheckOut:      model.DateOf(in.CheckOut),
		Status:        model.ReservationPending,
		PaymentStatus: model.PaymentPending,
		TotalPrice:    in.TotalPrice,
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		Channel:       strings.ToUpper(strings.TrimSpace(in.Channel)),
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if r.Currency == "" {
		r.Currency = s.opts.invoiceCurrency
	}
	if r.Channel == "" {
		r.Channel = defaultChannel
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		if r.RoomID != nil {
			if err := s.store.LockRoom(ctx, *r.RoomID); err != nil {
				return err
			}
			overlap, err := s.availability.IsOverlapping(ctx, *r.RoomID, r.CheckIn, r.CheckOut, 0)
			if err != nil {
				return err
			}
			if overlap {
				return conflict("room %d is already booked between %s and %s",
					*r.RoomID, r.CheckIn.Format(model.DateLayout), r.CheckOut.Format(model.DateLayout))
			}
		}
		return s.store.CreateReservation(ctx, &r, guests)
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			add(ctx, s.metrics.bookingConflicts, attribute.Int64("hotel_id", int64(r.HotelID)))
		}
		return ReservationView{}, err
	}
	log.Printf("[reservation] created id=%d account=%d hotel=%d check_in=%s check_out=%s",
		r.ID, accountID, r.HotelID, r.CheckIn.Format(model.DateLayout), r.CheckOut.Format(model.DateLayout))
	return newView(r, guests), nil
}

// guestLinks resolves the primary guest and the companions, dropping
// duplicate companions and any companion equal to the primary.
func (s *ReservationService) guestLinks(ctx context.Context, accountID, primaryID uint64, companionIDs []uint64) ([]model.ReservationGuest, error) {
	if primaryID == 0 {
		return nil, validation("primary_guest_id is required")
	}
	if _, err := s.catalog.GetGuest(ctx, accountID, primaryID); err != nil {
		return nil, lookup(err, "guest", primaryID)
	}
	links := []model.ReservationGuest{{GuestID: primaryID, IsPrimary: true}}
	seen := map[uint64]bool{primaryID: true}
	for _, id := range companionIDs {
		if id == 0 || seen[id] {
			continue
		}
		if _, err := s.catalog.GetGuest(ctx, accountID, id); err != nil {
			return nil, lookup(err, "guest", id)
		}
		seen[id] = true
		links = append(links, model.ReservationGuest{GuestID: id})
	}
	return links, nil
}

// Get returns one reservation owned by the account.
func (s *ReservationService) Get(ctx context.Context, accountID, id uint64) (ReservationView, error) {
	r, err := s.store.GetReservation(ctx, accountID, id)
	if err != nil {
		return ReservationView{}, lookup(err, "reservation", id)
	}
	return s.view(ctx, r)
}

// List returns the account's reservations, optionally for one hotel only.
func (s *ReservationService) List(ctx context.Context, accountID uint64, hotelID *uint64) ([]ReservationView, error) {
	var (
		rs  []model.Reservation
		err error
	)
	if hotelID != nil {
		if _, err := s.catalog.GetHotel(ctx, accountID, *hotelID); err != nil {
			return nil, lookup(err, "hotel", *hotelID)
		}
		rs, err = s.store.ListReservationsByHotel(ctx, accountID, *hotelID)
	} else {
		rs, err = s.store.ListReservations(ctx, accountID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]ReservationView, 0, len(rs))
	for _, r := range rs {
		v, err := s.view(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Cancel moves any open reservation to CANCELLED.  Cancelling twice, or
// cancelling a finished stay, is rejected.
func (s *ReservationService) Cancel(ctx context.Context, accountID, id uint64) (ReservationView, error) {
	var previous model.ReservationStatus
	v, err := s.transition(ctx, accountID, id, model.ReservationCancelled, func(cur model.ReservationStatus) error {
		if cur.Terminal() {
			return precondition("reservation %d is %s and cannot be cancelled", id, cur)
		}
		previous = cur
		return nil
	})
	if err != nil {
		return ReservationView{}, err
	}
	log.Printf("[reservation] cancelled id=%d account=%d previous=%s", id, accountID, previous)
	s.opts.publish(ctx, queue.ReservationCancelledEvent{
		ReservationID:  v.ID,
		AccountID:      v.AccountID,
		HotelID:        v.HotelID,
		RoomID:         v.RoomID,
		PreviousStatus: string(previous),
		CancelledAt:    v.UpdatedAt.Format(time.RFC3339),
	})
	return v, nil
}

// CheckIn moves a CONFIRMED reservation to CHECKED_IN.
func (s *ReservationService) CheckIn(ctx context.Context, accountID, id uint64) (ReservationView, error) {
	return s.transition(ctx, accountID, id, model.ReservationCheckedIn, func(cur model.ReservationStatus) error {
		if cur != model.ReservationConfirmed {
			return precondition("only confirmed reservations may check in")
		}
		return nil
	})
}

// CheckOut moves a CHECKED_IN reservation to CHECKED_OUT.
func (s *ReservationService) CheckOut(ctx context.Context, accountID, id uint64) (ReservationView, error) {
	return s.transition(ctx, accountID, id, model.ReservationCheckedOut, func(cur model.ReservationStatus) error {
		if cur != model.ReservationCheckedIn {
			return precondition("only checked-in reservations may check out")
		}
		return nil
	})
}

// transition locks the reservation, lets guard veto the move and stamps
// UpdatedAt on success.
func (s *ReservationService) transition(ctx context.Context, accountID, id uint64, next model.ReservationStatus, guard func(model.ReservationStatus) error) (ReservationView, error) {
	var r model.Reservation
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.store.GetReservationForUpdate(ctx, accountID, id)
		if err != nil {
			return lookup(err, "reservation", id)
		}
		if err := guard(r.Status); err != nil {
			return err
		}
		r.Status = next
		r.UpdatedAt = s.clock.Now()
		return s.store.UpdateReservationStatus(ctx, r.ID, r.Status, r.PaymentStatus, r.UpdatedAt)
	})
	if err != nil {
		return ReservationView{}, err
	}
	return s.view(ctx, r)
}

func (s *ReservationService) view(ctx context.Context, r model.Reservation) (ReservationView, error) {
	guests, err := s.store.ReservationGuests(ctx, r.ID)
	if err != nil {
		return ReservationView{}, err
	}
	return newView(r, guests), nil
}

func newView(r model.Reservation, guests []model.ReservationGuest) ReservationView {
	v := ReservationView{Reservation: r, CompanionIDs: []uint64{}}
	for _, g := range guests {
		if g.IsPrimary {
			v.PrimaryGuestID = g.GuestID
			continue
		}
		v.CompanionIDs = append(v.CompanionIDs, g.GuestID)
	}
	return v
}
