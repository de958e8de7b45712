package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// AvailabilityService answers whether rooms are free for a date range.
// Two stays overlap when their half-open [checkIn, checkOut) intervals
// intersect; only reservations in a blocking status count.
type AvailabilityService struct {
	catalog      Catalog
	reservations ReservationStore
}

// NewAvailabilityService wires the checker to its stores.
func NewAvailabilityService(catalog Catalog, reservations ReservationStore) *AvailabilityService {
	return &AvailabilityService{catalog: catalog, reservations: reservations}
}

// HotelAvailability is the result of a hotel-wide search.
type HotelAvailability struct {
	HotelID         uint64       `json:"hotel_id"`
	CheckIn         time.Time    `json:"check_in"`
	CheckOut        time.Time    `json:"check_out"`
	HasAvailability bool         `json:"has_availability"`
	AvailableCount  int          `json:"available_count"`
	Rooms           []model.Room `json:"rooms"`
}

// IsOverlapping reports whether a blocking reservation on roomID
// intersects [checkIn, checkOut).  excludeID, when non-zero, ignores that
// reservation.  It runs inside the caller's unit of work when ctx carries
// one.
func (s *AvailabilityService) IsOverlapping(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
	return s.reservations.HasOverlap(ctx, roomID, model.DateOf(checkIn), model.DateOf(checkOut), excludeID)
}

// RoomAvailable checks a single room owned by the account.
func (s *AvailabilityService) RoomAvailable(ctx context.Context, accountID, roomID uint64, checkIn, checkOut time.Time) (bool, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return false, err
	}
	if _, err := s.catalog.GetRoom(ctx, accountID, roomID); err != nil {
		return false, lookup(err, "room", roomID)
	}
	overlap, err := s.IsOverlapping(ctx, roomID, checkIn, checkOut, 0)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

// Hotel lists the active rooms of a hotel that are free for the whole
// range.  Each room is checked on its own.
func (s *AvailabilityService) Hotel(ctx context.Context, accountID, hotelID uint64, checkIn, checkOut time.Time) (HotelAvailability, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return HotelAvailability{}, err
	}
	if _, err := s.catalog.GetHotel(ctx, accountID, hotelID); err != nil {
		return HotelAvailability{}, lookup(err, "hotel", hotelID)
	}
	rooms, err := s.catalog.ListRooms(ctx, accountID, hotelID)
	if err != nil {
		return HotelAvailability{}, err
	}

	free := make([]model.Room, 0, len(rooms))
	for _, room := range rooms {
		if !room.IsActive {
			continue
		}
		overlap, err := s.IsOverlapping(ctx, room.ID, checkIn, checkOut, 0)
		if err != nil {
			return HotelAvailability{}, err
		}
		if !overlap {
			free = append(free, room)
		}
	}
	return HotelAvailability{
		HotelID:         hotelID,
		CheckIn:         model.DateOf(checkIn),
		CheckOut:        model.DateOf(checkOut),
		HasAvailability: len(free) > 0,
		AvailableCount:  len(free),
		Rooms:           free,
	}, nil
}

func validateRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return validation("check_in and check_out are required")
	}
	if !model.DateOf(checkIn).Before(model.DateOf(checkOut)) {
		return validation("check_in must be before check_out")
	}
	return nil
}
