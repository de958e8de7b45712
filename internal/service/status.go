package service

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// DeriveStatus computes the settlement state of a reservation from the
// sum of its payments and applies the only automatic lifecycle change:
// the first positive payment confirms a PENDING reservation.
func DeriveStatus(totalPaid, totalPrice decimal.Decimal, current model.ReservationStatus) (model.PaymentStatus, model.ReservationStatus) {
	var ps model.PaymentStatus
	switch {
	case totalPaid.IsZero():
		ps = model.PaymentPending
	case totalPrice.IsPositive() && totalPaid.GreaterThanOrEqual(totalPrice):
		ps = model.PaymentPaid
	default:
		ps = model.PaymentPartiallyPaid
	}

	rs := current
	if totalPaid.IsPositive() && current == model.ReservationPending {
		rs = model.ReservationConfirmed
	}
	return ps, rs
}

// maxAmount is the largest value a DECIMAL(12,2) column holds.
var maxAmount = decimal.RequireFromString("9999999999.99")

// checkAmount rejects amounts the store cannot hold exactly: more than two
// decimals or above maxAmount.
func checkAmount(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(2)) {
		return validation("%s supports at most 2 decimals", field)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return validation("%s must not exceed %s", field, maxAmount.StringFixed(2))
	}
	return nil
}

// outstanding is max(0, price - paid).
func outstanding(totalPrice, totalPaid decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, totalPrice.Sub(totalPaid))
}
