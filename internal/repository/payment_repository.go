package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// PaymentRepo is the append-only payments ledger.  There is no update or
// delete.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to db.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func (r *PaymentRepo) AppendPayment(ctx context.Context, p *model.Payment) error {
	const q = `
INSERT INTO payments (reservation_id, amount, currency, method, reference, channel_paid, paid_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := conn(ctx, r.db).ExecContext(ctx, q,
		p.ReservationID, p.Amount, p.Currency, p.Method, p.Reference, p.ChannelPaid, p.PaidAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// SumPayments adds the amounts in SQL; DECIMAL arithmetic is exact.
func (r *PaymentRepo) SumPayments(ctx context.Context, reservationID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE reservation_id = ?`
	var total decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx, q, reservationID).Scan(&total)
	return total, err
}

func (r *PaymentRepo) ListPayments(ctx context.Context, reservationID uint64) ([]model.Payment, error) {
	const q = `
SELECT id, reservation_id, amount, currency, method, reference, channel_paid, paid_at
  FROM payments WHERE reservation_id = ? ORDER BY id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		var ref sql.NullString
		if err := rows.Scan(&p.ID, &p.ReservationID, &p.Amount, &p.Currency, &p.Method, &ref, &p.ChannelPaid, &p.PaidAt); err != nil {
			return nil, err
		}
		p.Reference = ref.String
		out = append(out, p)
	}
	return out, rows.Err()
}
