package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation-engine/internal/afip"
	"github.com/iliyamo/hotel-reservation-engine/internal/clock"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/queue"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository/memory"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Issue(ctx context.Context, req afip.VoucherRequest) afip.Result {
	args := m.Called(ctx, req)
	return args.Get(0).(afip.Result)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev queue.Event) error {
	return m.Called(ctx, ev).Error(0)
}

var now = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	account   model.Account
	hotel     model.Hotel
	roomType  model.RoomType
	room      model.Room
	spare     model.Room
	guest     model.Guest
	companion model.Guest

	gateway *mockGateway
	events  *mockPublisher

	availability *AvailabilityService
	reservations *ReservationService
	ledger       *LedgerService
	invoices     *InvoiceService
	dashboard    *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	f := &fixture{store: s, gateway: &mockGateway{}, events: &mockPublisher{}}
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.account = s.AddAccount(model.Account{Name: "Hotel Group", TaxID: "20409378472", CreatedAt: now})
	f.hotel = s.AddHotel(model.Hotel{AccountID: f.account.ID, Name: "Hotel H"})
	f.roomType = s.AddRoomType(model.RoomType{HotelID: f.hotel.ID, Name: "Double", Capacity: 2,
		BasePrice: decimal.NewFromInt(100)})
	f.room = s.AddRoom(model.Room{HotelID: f.hotel.ID, RoomTypeID: f.roomType.ID, Code: "X", IsActive: true})
	f.spare = s.AddRoom(model.Room{HotelID: f.hotel.ID, RoomTypeID: f.roomType.ID, Code: "Y", IsActive: true})
	f.guest = s.AddGuest(model.Guest{AccountID: f.account.ID, FullName: "Ana Perez", DocType: "DNI", DocNumber: "30123456"})
	f.companion = s.AddGuest(model.Guest{AccountID: f.account.ID, FullName: "Luis Perez", DocType: "DNI", DocNumber: "31123456"})

	clk := clock.NewFixed(now)
	opts := []Option{WithPublisher(f.events)}
	f.availability = NewAvailabilityService(s, s)
	f.reservations = NewReservationService(s, s, f.availability, clk, opts...)
	f.ledger = NewLedgerService(s, s, clk, opts...)
	f.invoices = NewInvoiceService(s, s, s, f.gateway, clk, opts...)
	f.dashboard = NewDashboardService(s, s, clk)
	return f
}

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) input(roomID *uint64, in, out, price string) CreateReservationInput {
	return CreateReservationInput{
		HotelID:        f.hotel.ID,
		RoomTypeID:     f.roomType.ID,
		RoomID:         roomID,
		CheckIn:        day(in),
		CheckOut:       day(out),
		TotalPrice:     money(price),
		PrimaryGuestID: f.guest.ID,
	}
}

func (f *fixture) book(t *testing.T, roomID uint64, in, out, price string) ReservationView {
	t.Helper()
	v, err := f.reservations.Create(context.Background(), f.account.ID, f.input(&roomID, in, out, price))
	require.NoError(t, err)
	return v
}

func (f *fixture) pay(t *testing.T, reservationID uint64, amount string) ReservationView {
	t.Helper()
	v, err := f.ledger.RecordPayment(context.Background(), f.account.ID, RecordPaymentInput{
		ReservationID: reservationID,
		Amount:        money(amount),
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) otherAccount() model.Account {
	return f.store.AddAccount(model.Account{Name: "Someone Else", TaxID: "27111111113"})
}
