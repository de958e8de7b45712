package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// InvoiceRepo stores invoices.  reservation_id carries a UNIQUE index, so
// a second invoice for a reservation fails with ErrDuplicate even when
// two requests race past the existence check.
type InvoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo returns an InvoiceRepo bound to db.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

func (r *InvoiceRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

func (r *InvoiceRepo) InvoiceExists(ctx context.Context, reservationID uint64) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE reservation_id = ?)`, reservationID).Scan(&exists)
	return exists, err
}

// LastLocalVoucherNumber reads the highest number for the series and
// locks the scanned index range until the transaction ends.
func (r *InvoiceRepo) LastLocalVoucherNumber(ctx context.Context, accountID uint64, pointOfSale int, voucherType string) (int64, error) {
	const q = `
SELECT voucher_number FROM invoices
 WHERE account_id = ? AND point_of_sale = ? AND voucher_type = ?
 ORDER BY voucher_number DESC LIMIT 1 FOR UPDATE`
	var last int64
	err := conn(ctx, r.db).QueryRowContext(ctx, q, accountID, pointOfSale, voucherType).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return last, err
}

func (r *InvoiceRepo) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	const q = `
INSERT INTO invoices
  (account_id, hotel_id, reservation_id, voucher_type, point_of_sale, voucher_number, issuer_tax_id,
   recipient_doc_type, recipient_doc_number, recipient_name, issued_at, total_amount, currency,
   cae, cae_expiry, status, detail)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := conn(ctx, r.db).ExecContext(ctx, q,
		inv.AccountID, inv.HotelID, inv.ReservationID, inv.VoucherType, inv.PointOfSale, inv.VoucherNumber,
		inv.IssuerTaxID, inv.RecipientDocType, inv.RecipientDocNumber, inv.RecipientName, inv.IssuedAt,
		inv.TotalAmount, inv.Currency, inv.CAE, inv.CAEExpiry, inv.Status, inv.Detail)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

const invoiceColumns = `id, account_id, hotel_id, reservation_id, voucher_type, point_of_sale, voucher_number,
  issuer_tax_id, recipient_doc_type, recipient_doc_number, recipient_name, issued_at, total_amount,
  currency, cae, cae_expiry, status, detail`

func scanInvoice(sc interface{ Scan(...any) error }) (model.Invoice, error) {
	var (
		inv    model.Invoice
		resID  sql.NullInt64
		cae    sql.NullString
		expiry sql.NullTime
		detail sql.NullString
	)
	err := sc.Scan(&inv.ID, &inv.AccountID, &inv.HotelID, &resID, &inv.VoucherType, &inv.PointOfSale,
		&inv.VoucherNumber, &inv.IssuerTaxID, &inv.RecipientDocType, &inv.RecipientDocNumber,
		&inv.RecipientName, &inv.IssuedAt, &inv.TotalAmount, &inv.Currency, &cae, &expiry,
		&inv.Status, &detail)
	if err != nil {
		return model.Invoice{}, err
	}
	if resID.Valid {
		id := uint64(resID.Int64)
		inv.ReservationID = &id
	}
	if cae.Valid {
		inv.CAE = &cae.String
	}
	if expiry.Valid {
		inv.CAEExpiry = &expiry.Time
	}
	inv.Detail = detail.String
	return inv, nil
}

func (r *InvoiceRepo) GetInvoice(ctx context.Context, accountID, id uint64) (model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ? AND account_id = ?`
	inv, err := scanInvoice(conn(ctx, r.db).QueryRowContext(ctx, q, id, accountID))
	return inv, notFound(err)
}

func (r *InvoiceRepo) GetInvoiceByReservation(ctx context.Context, accountID, reservationID uint64) (model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE reservation_id = ? AND account_id = ?`
	inv, err := scanInvoice(conn(ctx, r.db).QueryRowContext(ctx, q, reservationID, accountID))
	return inv, notFound(err)
}

// ListInvoices returns matches newest first.
func (r *InvoiceRepo) ListInvoices(ctx context.Context, accountID uint64, f InvoiceFilter) ([]model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE account_id = ? AND issued_at BETWEEN ? AND ?`
	args := []any{accountID, f.From, f.To}
	if f.HotelID != nil {
		q += ` AND hotel_id = ?`
		args = append(args, *f.HotelID)
	}
	q += ` ORDER BY issued_at DESC, id DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
