package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/queue"
)

func TestRecordPaymentProgression(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "100")

	steps := []struct {
		amount  string
		wantPay model.PaymentStatus
	}{
		{"50", model.PaymentPartiallyPaid},
		{"50", model.PaymentPaid},
		{"50", model.PaymentPaid},
	}
	for _, st := range steps {
		v := f.pay(t, r.ID, st.amount)
		assert.Equal(t, st.wantPay, v.PaymentStatus)
		assert.Equal(t, model.ReservationConfirmed, v.Status)
	}

	sum, err := f.ledger.ListPayments(context.Background(), f.account.ID, r.ID)
	require.NoError(t, err)
	assert.Len(t, sum.Payments, 3)
	assert.True(t, sum.TotalPaid.Equal(money("150")))
	assert.True(t, sum.OutstandingBalance.IsZero())
	assert.Equal(t, model.PaymentPaid, sum.PaymentStatus)
}

func TestFirstPaymentPublishesConfirmation(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	f.pay(t, r.ID, "50")
	f.pay(t, r.ID, "50")

	var confirmations int
	for _, c := range f.events.Calls {
		if ev, ok := c.Arguments.Get(1).(queue.ReservationConfirmedEvent); ok {
			confirmations++
			assert.Equal(t, r.ID, ev.ReservationID)
			assert.Equal(t, "50.00", ev.TotalPaid)
		}
	}
	assert.Equal(t, 1, confirmations)
}

func TestListPaymentsOutstanding(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")

	empty, err := f.ledger.ListPayments(context.Background(), f.account.ID, r.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Payments)
	assert.True(t, empty.OutstandingBalance.Equal(money("200")))
	assert.Equal(t, model.PaymentPending, empty.PaymentStatus)

	f.pay(t, r.ID, "75.25")
	sum, err := f.ledger.ListPayments(context.Background(), f.account.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, sum.OutstandingBalance.Equal(money("124.75")))
	assert.Equal(t, "ARS", sum.Payments[0].Currency)
	assert.Equal(t, "CASH", sum.Payments[0].Method)
	assert.Equal(t, now, sum.Payments[0].PaidAt)
}

func TestPaymentsAreDecimalExact(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "0.3")

	for i := 0; i < 3; i++ {
		f.pay(t, r.ID, "0.1")
	}
	sum, err := f.ledger.ListPayments(context.Background(), f.account.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, sum.TotalPaid.Equal(money("0.3")))
	assert.Equal(t, model.PaymentPaid, sum.PaymentStatus)
}

func TestPaymentGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")

	for _, amount := range []string{"0", "-5"} {
		_, err := f.ledger.RecordPayment(ctx, f.account.ID, RecordPaymentInput{ReservationID: r.ID, Amount: money(amount)})
		assert.ErrorIs(t, err, ErrValidation)
	}
	_, err := f.ledger.RecordPayment(ctx, f.account.ID, RecordPaymentInput{ReservationID: r.ID, Amount: money("5"), Currency: "USD"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.ledger.RecordPayment(ctx, f.account.ID, RecordPaymentInput{ReservationID: 999, Amount: money("5")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.ledger.RecordPayment(ctx, f.otherAccount().ID, RecordPaymentInput{ReservationID: r.ID, Amount: money("5")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.reservations.Cancel(ctx, f.account.ID, r.ID)
	require.NoError(t, err)
	_, err = f.ledger.RecordPayment(ctx, f.account.ID, RecordPaymentInput{ReservationID: r.ID, Amount: money("5")})
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.EqualError(t, err, "cannot take payment on a closed reservation")

	sum, err := f.ledger.ListPayments(ctx, f.account.ID, r.ID)
	require.NoError(t, err)
	assert.Empty(t, sum.Payments)
}

func TestPaymentAmountMustFitStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")

	for _, amount := range []string{"0.001", "10.005", "10000000000"} {
		_, err := f.ledger.RecordPayment(ctx, f.account.ID, RecordPaymentInput{ReservationID: r.ID, Amount: money(amount)})
		assert.ErrorIs(t, err, ErrValidation, amount)
	}
	got, err := f.reservations.Get(ctx, f.account.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, got.Status)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)

	v := f.pay(t, r.ID, "10.500")
	assert.Equal(t, model.ReservationConfirmed, v.Status)
	v = f.pay(t, r.ID, "9999999999.99")
	assert.Equal(t, model.PaymentPaid, v.PaymentStatus)
}

func TestPaymentOnCheckedOutIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	f.pay(t, r.ID, "200")
	_, err := f.reservations.CheckIn(ctx, f.account.ID, r.ID)
	require.NoError(t, err)

	// payments during the stay are fine
	v := f.pay(t, r.ID, "20")
	assert.Equal(t, model.ReservationCheckedIn, v.Status)

	_, err = f.reservations.CheckOut(ctx, f.account.ID, r.ID)
	require.NoError(t, err)
	_, err = f.ledger.RecordPayment(ctx, f.account.ID, RecordPaymentInput{ReservationID: r.ID, Amount: money("1")})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestConcurrentPaymentsSumExactly(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "1000")

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordPayment(context.Background(), f.account.ID,
				RecordPaymentInput{ReservationID: r.ID, Amount: money("12.5")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sum, err := f.ledger.ListPayments(context.Background(), f.account.ID, r.ID)
	require.NoError(t, err)
	assert.Len(t, sum.Payments, 40)
	assert.True(t, sum.TotalPaid.Equal(money("500")))

	got, err := f.reservations.Get(context.Background(), f.account.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPartiallyPaid, got.PaymentStatus)
	f.events.AssertNumberOfCalls(t, "Publish", 1)
}

func TestPublishFailureDoesNotFailPayment(t *testing.T) {
	f := newFixture(t)
	broken := &mockPublisher{}
	broken.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)
	f.ledger = NewLedgerService(f.store, f.store, f.ledger.clock, WithPublisher(broken))

	r := f.book(t, f.room.ID, "2024-03-01", "2024-03-05", "200")
	v := f.pay(t, r.ID, "50")

	assert.Equal(t, model.ReservationConfirmed, v.Status)
	broken.AssertExpectations(t)
}
