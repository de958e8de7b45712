package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation-engine/internal/afip"
	"github.com/iliyamo/hotel-reservation-engine/internal/clock"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

func approved(number int64, cae string) afip.Result {
	expiry := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	return afip.Result{Outcome: afip.OutcomeApproved, Authorization: afip.Authorization{
		Approved: true, CAE: cae, CAEExpiry: &expiry, VoucherNumber: number,
	}}
}

func issueInput(reservationID uint64) IssueInvoiceInput {
	return IssueInvoiceInput{
		ReservationID:      reservationID,
		VoucherType:        "B",
		PointOfSale:        3,
		RecipientDocType:   "DNI",
		RecipientDocNumber: "30123456",
		RecipientName:      "Ana Perez",
	}
}

func TestIssueApproved(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	f.gateway.On("Issue", mock.Anything, mock.MatchedBy(func(req afip.VoucherRequest) bool {
		return req.IssuerTaxID == f.account.TaxID && req.PointOfSale == 3 && req.VoucherType == "B" &&
			req.Currency == "PES" && req.Amount.Equal(money("200")) && req.IssueDate.Equal(day("2024-03-01"))
	})).Return(approved(8, "74123456789012")).Once()

	inv, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(r.ID))
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceApproved, inv.Status)
	assert.True(t, inv.Fiscal())
	assert.Equal(t, "74123456789012", *inv.CAE)
	assert.Equal(t, int64(8), inv.VoucherNumber)
	assert.Equal(t, "ARS", inv.Currency)
	assert.Equal(t, f.hotel.ID, inv.HotelID)
	assert.Equal(t, f.account.TaxID, inv.IssuerTaxID)
	assert.Equal(t, "Invoice generated for reservation 1", inv.Detail)
	assert.Equal(t, now, inv.IssuedAt)
	f.gateway.AssertExpectations(t)
	f.events.AssertCalled(t, "Publish", mock.Anything, mock.AnythingOfType("queue.InvoiceIssuedEvent"))
}

func TestIssueDeclinedIsInternal(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	f.gateway.On("Issue", mock.Anything, mock.Anything).Return(afip.Result{
		Outcome:       afip.OutcomeDeclined,
		Authorization: afip.Authorization{VoucherNumber: 12},
	}).Once()

	inv, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(r.ID))
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceInternal, inv.Status)
	assert.Nil(t, inv.CAE)
	assert.False(t, inv.Fiscal())
	assert.Equal(t, int64(12), inv.VoucherNumber)
}

func TestIssueFallsBackToDemoMode(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	second := f.book(t, f.spare.ID, "2024-03-01", "2024-03-05", "300")
	f.gateway.On("Issue", mock.Anything, mock.Anything).Return(afip.Failure(errors.New("dial tcp: timeout")))

	a, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(first.ID))
	require.NoError(t, err)
	b, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(second.ID))
	require.NoError(t, err)

	for _, inv := range []model.Invoice{a, b} {
		assert.Equal(t, model.InvoiceInternal, inv.Status)
		assert.Nil(t, inv.CAE)
		require.NotNil(t, inv.CAEExpiry)
		assert.Equal(t, day("2024-03-11"), *inv.CAEExpiry)
	}
	assert.Equal(t, demoVoucherBase, a.VoucherNumber)
	assert.Equal(t, demoVoucherBase+1, b.VoucherNumber)
	assert.True(t, b.TotalAmount.Equal(money("300")))
}

func TestDemoNumbersStayAboveGatewayRange(t *testing.T) {
	f := newFixture(t)
	fiscal := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	local := f.book(t, f.spare.ID, "2024-03-01", "2024-03-05", "200")
	next := f.book(t, f.room.ID, "2024-03-05", "2024-03-07", "200")

	f.gateway.On("Issue", mock.Anything, mock.Anything).Return(approved(41, "74123456789012")).Once()
	f.gateway.On("Issue", mock.Anything, mock.Anything).Return(afip.Failure(errors.New("connection refused"))).Once()
	f.gateway.On("Issue", mock.Anything, mock.Anything).Return(approved(42, "74123456789013")).Once()

	a, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(fiscal.ID))
	require.NoError(t, err)
	b, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(local.ID))
	require.NoError(t, err)
	c, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(next.ID))
	require.NoError(t, err)

	assert.Equal(t, int64(41), a.VoucherNumber)
	assert.Equal(t, model.InvoiceInternal, b.Status)
	assert.Equal(t, demoVoucherBase, b.VoucherNumber)
	assert.Equal(t, int64(42), c.VoucherNumber)
	assert.NotEqual(t, b.VoucherNumber, c.VoucherNumber)
}

func TestIssueWithoutGateway(t *testing.T) {
	f := newFixture(t)
	f.invoices = NewInvoiceService(f.store, f.store, f.store, nil, clock.NewFixed(now),
		WithCurrency("USD", "DOL"), WithDemoExpiry(48*time.Hour))
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")

	inv, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(r.ID))
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceInternal, inv.Status)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, day("2024-03-03"), *inv.CAEExpiry)
	assert.Equal(t, demoVoucherBase, inv.VoucherNumber)
}

func TestIssueConflictBeforeGateway(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	f.gateway.On("Issue", mock.Anything, mock.Anything).Return(approved(1, "111"))

	_, err := f.invoices.Issue(context.Background(), f.account.ID, issueInput(r.ID))
	require.NoError(t, err)
	_, err = f.invoices.Issue(context.Background(), f.account.ID, issueInput(r.ID))
	assert.ErrorIs(t, err, ErrConflict)

	f.gateway.AssertNumberOfCalls(t, "Issue", 1)
	list, err := f.invoices.List(context.Background(), f.account.ID, nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestIssueValidationAndScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")

	bad := issueInput(r.ID)
	bad.VoucherType = "Z"
	_, err := f.invoices.Issue(ctx, f.account.ID, bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = issueInput(r.ID)
	bad.PointOfSale = 0
	_, err = f.invoices.Issue(ctx, f.account.ID, bad)
	assert.ErrorIs(t, err, ErrValidation)

	zero := money("0")
	bad = issueInput(r.ID)
	bad.Amount = &zero
	_, err = f.invoices.Issue(ctx, f.account.ID, bad)
	assert.ErrorIs(t, err, ErrValidation)

	for _, amount := range []string{"0.001", "10000000000.00"} {
		a := money(amount)
		bad = issueInput(r.ID)
		bad.Amount = &a
		_, err = f.invoices.Issue(ctx, f.account.ID, bad)
		assert.ErrorIs(t, err, ErrValidation, amount)
	}

	_, err = f.invoices.Issue(ctx, f.otherAccount().ID, issueInput(r.ID))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.invoices.Issue(ctx, f.account.ID, issueInput(999))
	assert.ErrorIs(t, err, ErrNotFound)

	f.gateway.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
}

func TestIssueDefaultsFromReservation(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	var sent afip.VoucherRequest
	f.gateway.On("Issue", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(afip.VoucherRequest)
	}).Return(approved(5, "999"))

	amount := money("120.50")
	inv, err := f.invoices.Issue(context.Background(), f.account.ID, IssueInvoiceInput{
		ReservationID: r.ID,
		PointOfSale:   1,
		Amount:        &amount,
	})
	require.NoError(t, err)

	assert.Equal(t, "B", inv.VoucherType)
	assert.True(t, inv.TotalAmount.Equal(amount))
	assert.Equal(t, "Ana Perez", inv.RecipientName)
	assert.Equal(t, "DNI", inv.RecipientDocType)
	assert.Equal(t, "30123456", inv.RecipientDocNumber)
	assert.Equal(t, "Ana Perez", sent.RecipientName)
	assert.True(t, sent.Amount.Equal(amount))
}

func TestIssueKeepsCallerDocType(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	f.gateway.On("Issue", mock.Anything, mock.Anything).Return(approved(5, "999"))

	inv, err := f.invoices.Issue(context.Background(), f.account.ID, IssueInvoiceInput{
		ReservationID:    r.ID,
		PointOfSale:      1,
		RecipientDocType: "CUIT",
	})
	require.NoError(t, err)

	assert.Equal(t, "CUIT", inv.RecipientDocType)
	assert.Equal(t, "30123456", inv.RecipientDocNumber)
}

func TestInvoiceReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.otherAccount()
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	f.gateway.On("Issue", mock.Anything, mock.Anything).Return(approved(1, "111"))
	inv, err := f.invoices.Issue(ctx, f.account.ID, issueInput(r.ID))
	require.NoError(t, err)

	got, err := f.invoices.Get(ctx, f.account.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	got, err = f.invoices.GetByReservation(ctx, f.account.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	_, err = f.invoices.Get(ctx, other.ID, inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.invoices.GetByReservation(ctx, other.ID, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	from, to := day("2024-03-01"), day("2024-03-01")
	list, err := f.invoices.List(ctx, f.account.ID, &from, &to, &f.hotel.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	later := day("2024-03-02")
	list, err = f.invoices.List(ctx, f.account.ID, &later, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	otherHotel := f.store.AddHotel(model.Hotel{AccountID: f.account.ID, Name: "Hotel K"})
	list, err = f.invoices.List(ctx, f.account.ID, nil, nil, &otherHotel.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.invoices.List(ctx, other.ID, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = f.invoices.List(ctx, other.ID, nil, nil, &f.hotel.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.invoices.List(ctx, f.account.ID, &later, &from, nil)
	assert.ErrorIs(t, err, ErrValidation)
}
