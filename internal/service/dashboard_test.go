package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

func TestDailySummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddRoom(model.Room{HotelID: f.hotel.ID, RoomTypeID: f.roomType.ID, Code: "Z", IsActive: true})
	f.store.AddRoom(model.Room{HotelID: f.hotel.ID, RoomTypeID: f.roomType.ID, Code: "W", IsActive: true})

	f.book(t, f.room.ID, "2024-02-27", "2024-03-01", "100") // leaves today
	f.book(t, f.room.ID, "2024-03-01", "2024-03-04", "100") // arrives today
	cancelled := f.book(t, f.spare.ID, "2024-03-01", "2024-03-02", "100")
	_, err := f.reservations.Cancel(ctx, f.account.ID, cancelled.ID)
	require.NoError(t, err)
	_, err = f.reservations.Create(ctx, f.account.ID, f.input(nil, "2024-03-01", "2024-03-03", "100"))
	require.NoError(t, err)

	sum, err := f.dashboard.Daily(ctx, f.account.ID, f.hotel.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", sum.Date)
	assert.Equal(t, 4, sum.TotalRooms)
	assert.Equal(t, 1, sum.OccupiedRooms)
	assert.Equal(t, 2, sum.CheckInsToday)
	assert.Equal(t, 1, sum.CheckOutsToday)
	assert.Equal(t, 4, sum.ReservationsToday)
	assert.InDelta(t, 25.0, sum.OccupancyPercentage, 1e-9)

	next := day("2024-03-02")
	sum, err = f.dashboard.Daily(ctx, f.account.ID, f.hotel.ID, &next)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OccupiedRooms)
	assert.Zero(t, sum.CheckInsToday)
	assert.Zero(t, sum.ReservationsToday)
}

func TestDailySummaryEmptyHotel(t *testing.T) {
	f := newFixture(t)
	empty := f.store.AddHotel(model.Hotel{AccountID: f.account.ID, Name: "New"})

	sum, err := f.dashboard.Daily(context.Background(), f.account.ID, empty.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, sum.TotalRooms)
	assert.Zero(t, sum.OccupancyPercentage)

	_, err = f.dashboard.Daily(context.Background(), f.otherAccount().ID, f.hotel.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
