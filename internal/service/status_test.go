package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name        string
		paid, price string
		current     model.ReservationStatus
		wantPay     model.PaymentStatus
		wantRes     model.ReservationStatus
	}{
		{"nothing paid", "0", "100", model.ReservationPending, model.PaymentPending, model.ReservationPending},
		{"deposit confirms", "50", "100", model.ReservationPending, model.PaymentPartiallyPaid, model.ReservationConfirmed},
		{"exact", "100", "100", model.ReservationConfirmed, model.PaymentPaid, model.ReservationConfirmed},
		{"overpaid", "150", "100", model.ReservationConfirmed, model.PaymentPaid, model.ReservationConfirmed},
		{"full payment confirms", "100", "100", model.ReservationPending, model.PaymentPaid, model.ReservationConfirmed},
		{"free stay never paid", "10", "0", model.ReservationPending, model.PaymentPartiallyPaid, model.ReservationConfirmed},
		{"checked in untouched", "20", "100", model.ReservationCheckedIn, model.PaymentPartiallyPaid, model.ReservationCheckedIn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ps, rs := DeriveStatus(money(tc.paid), money(tc.price), tc.current)
			assert.Equal(t, tc.wantPay, ps)
			assert.Equal(t, tc.wantRes, rs)
		})
	}
}

func TestOutstanding(t *testing.T) {
	assert.True(t, outstanding(money("200"), money("50")).Equal(money("150")))
	assert.True(t, outstanding(money("200"), money("250")).IsZero())
}
