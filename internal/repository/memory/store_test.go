package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository"
)

func date(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func seed(t *testing.T) (*Store, model.Account, model.Room) {
	t.Helper()
	s := New()
	acct := s.AddAccount(model.Account{Name: "Acme", TaxID: "20409378472"})
	h := s.AddHotel(model.Hotel{AccountID: acct.ID, Name: "Centro"})
	rt := s.AddRoomType(model.RoomType{HotelID: h.ID, Name: "Double", Capacity: 2})
	room := s.AddRoom(model.Room{HotelID: h.ID, RoomTypeID: rt.ID, Code: "101", IsActive: true})
	return s, acct, room
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s, acct, room := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		r := model.Reservation{AccountID: acct.ID, RoomID: &room.ID, Status: model.ReservationPending,
			CheckIn: date("2024-03-01"), CheckOut: date("2024-03-05")}
		require.NoError(t, s.CreateReservation(ctx, &r, nil))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := s.ListReservations(ctx, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// the id sequence is rolled back with the rows
	r := model.Reservation{AccountID: acct.ID, Status: model.ReservationPending}
	require.NoError(t, s.CreateReservation(ctx, &r, nil))
	assert.Equal(t, uint64(1), r.ID)
}

func TestWithTxNestedJoinsOuterUnit(t *testing.T) {
	s, acct, _ := seed(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context) error {
		return s.WithTx(ctx, func(ctx context.Context) error {
			r := model.Reservation{AccountID: acct.ID, Status: model.ReservationPending}
			return s.CreateReservation(ctx, &r, nil)
		})
	})
	require.NoError(t, err)

	list, err := s.ListReservations(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestHasOverlapIgnoresNonBlockingAndExcluded(t *testing.T) {
	s, acct, room := seed(t)
	ctx := context.Background()

	cancelled := model.Reservation{AccountID: acct.ID, RoomID: &room.ID, Status: model.ReservationCancelled,
		CheckIn: date("2024-03-01"), CheckOut: date("2024-03-05")}
	require.NoError(t, s.CreateReservation(ctx, &cancelled, nil))
	got, err := s.HasOverlap(ctx, room.ID, date("2024-03-02"), date("2024-03-03"), 0)
	require.NoError(t, err)
	assert.False(t, got)

	live := model.Reservation{AccountID: acct.ID, RoomID: &room.ID, Status: model.ReservationConfirmed,
		CheckIn: date("2024-03-01"), CheckOut: date("2024-03-05")}
	require.NoError(t, s.CreateReservation(ctx, &live, nil))
	got, err = s.HasOverlap(ctx, room.ID, date("2024-03-02"), date("2024-03-03"), 0)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = s.HasOverlap(ctx, room.ID, date("2024-03-02"), date("2024-03-03"), live.ID)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCatalogIsAccountScoped(t *testing.T) {
	s, acct, room := seed(t)
	ctx := context.Background()
	other := s.AddAccount(model.Account{Name: "Other"})

	_, err := s.GetRoom(ctx, acct.ID, room.ID)
	assert.NoError(t, err)
	_, err = s.GetRoom(ctx, other.ID, room.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.GetHotel(ctx, other.ID, room.HotelID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.ListRooms(ctx, other.ID, room.HotelID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvoicesUniquePerReservation(t *testing.T) {
	s, acct, _ := seed(t)
	ctx := context.Background()
	resID := uint64(9)

	first := model.Invoice{AccountID: acct.ID, ReservationID: &resID, PointOfSale: 1, VoucherType: "B",
		VoucherNumber: 4, TotalAmount: decimal.NewFromInt(10), IssuedAt: time.Now()}
	require.NoError(t, s.CreateInvoice(ctx, &first))

	dup := first
	assert.ErrorIs(t, s.CreateInvoice(ctx, &dup), repository.ErrDuplicate)

	last, err := s.LastLocalVoucherNumber(ctx, acct.ID, 1, "B")
	require.NoError(t, err)
	assert.Equal(t, int64(4), last)
	last, err = s.LastLocalVoucherNumber(ctx, acct.ID, 2, "B")
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestUsersUniqueEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, model.User{Email: " Ops@Hotel.test ", Role: model.RoleAdmin, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "ops@hotel.test", u.Email)

	_, err = s.CreateUser(ctx, model.User{Email: "ops@hotel.test"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := s.GetUserByEmail(ctx, "OPS@hotel.test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}
