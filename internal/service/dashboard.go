package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-reservation-engine/internal/clock"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// DailySummary is the occupancy picture of one hotel on one date.
type DailySummary struct {
	HotelID             uint64  `json:"hotel_id"`
	Date                string  `json:"date"`
	TotalRooms          int     `json:"total_rooms"`
	OccupiedRooms       int     `json:"occupied_rooms"`
	CheckInsToday       int     `json:"check_ins_today"`
	CheckOutsToday      int     `json:"check_outs_today"`
	ReservationsToday   int     `json:"reservations_created_today"`
	OccupancyPercentage float64 `json:"occupancy_percentage"`
}

// DashboardService projects reservations into daily counters.  It reads
// only and uses the same blocking set as the availability checker.
type DashboardService struct {
	catalog      Catalog
	reservations ReservationStore
	clock        clock.Clock
}

func NewDashboardService(catalog Catalog, reservations ReservationStore, clk clock.Clock) *DashboardService {
	return &DashboardService{catalog: catalog, reservations: reservations, clock: clk}
}

// Daily summarises hotelID on date, today when date is nil.
func (s *DashboardService) Daily(ctx context.Context, accountID, hotelID uint64, date *time.Time) (DailySummary, error) {
	day := clock.Today(s.clock)
	if date != nil {
		day = model.DateOf(*date)
	}
	if _, err := s.catalog.GetHotel(ctx, accountID, hotelID); err != nil {
		return DailySummary{}, lookup(err, "hotel", hotelID)
	}
	rooms, err := s.catalog.ListRooms(ctx, accountID, hotelID)
	if err != nil {
		return DailySummary{}, err
	}
	rs, err := s.reservations.ListReservationsByHotel(ctx, accountID, hotelID)
	if err != nil {
		return DailySummary{}, err
	}

	sum := DailySummary{HotelID: hotelID, Date: day.Format(model.DateLayout), TotalRooms: len(rooms)}
	occupied := map[uint64]bool{}
	for _, r := range rs {
		if r.Status.Blocking() && r.RoomID != nil && r.Occupies(day) {
			occupied[*r.RoomID] = true
		}
		if model.DateOf(r.CreatedAt).Equal(day) {
			sum.ReservationsToday++
		}
		if r.Status == model.ReservationCancelled {
			continue
		}
		if r.CheckIn.Equal(day) {
			sum.CheckInsToday++
		}
		if r.CheckOut.Equal(day) {
			sum.CheckOutsToday++
		}
	}
	sum.OccupiedRooms = len(occupied)
	if sum.TotalRooms > 0 {
		sum.OccupancyPercentage = float64(sum.OccupiedRooms) * 100 / float64(sum.TotalRooms)
	}
	return sum, nil
}
