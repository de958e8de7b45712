package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// ReservationRepo persists reservations and their guest links.  Calls
// made with a context returned by WithTx run on that transaction.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to db.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// WithTx runs fn in a transaction shared by every repository on the same
// database.
func (r *ReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

// LockRoom takes a row lock on the room until the transaction ends, which
// serialises concurrent bookings of that room.
func (r *ReservationRepo) LockRoom(ctx context.Context, roomID uint64) error {
	var id uint64
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, roomID).Scan(&id)
	return notFound(err)
}

// blockingIn is the SQL list of blocking statuses.
var blockingIn = func() string {
	quoted := make([]string, len(model.BlockingStatuses))
	for i, s := range model.BlockingStatuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return "(" + strings.Join(quoted, ",") + ")"
}()

// HasOverlap applies the half-open interval test in SQL:
// existing.check_in < checkOut AND checkIn < existing.check_out.
func (r *ReservationRepo) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
	q := `
SELECT EXISTS (
  SELECT 1 FROM reservations
   WHERE room_id = ?
     AND status IN ` + blockingIn + `
     AND check_in < ? AND ? < check_out
     AND id <> ?)`
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx, q, roomID, checkOut, checkIn, excludeID).Scan(&exists)
	return exists, err
}

// CreateReservation inserts the reservation and its guest links and sets
// the generated id on res.
func (r *ReservationRepo) CreateReservation(ctx context.Context, res *model.Reservation, guests []model.ReservationGuest) error {
	return r.WithTx(ctx, func(ctx context.Context) error {
		const q = `
INSERT INTO reservations
  (account_id, hotel_id, room_type_id, room_id, check_in, check_out, status, payment_status,
   total_price, currency, channel, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		result, err := conn(ctx, r.db).ExecContext(ctx, q,
			res.AccountID, res.HotelID, res.RoomTypeID, res.RoomID, res.CheckIn, res.CheckOut,
			res.Status, res.PaymentStatus, res.TotalPrice, res.Currency, res.Channel, res.Notes,
			res.CreatedAt, res.UpdatedAt)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = uint64(id)

		if len(guests) == 0 {
			return nil
		}
		query := `INSERT INTO reservation_guests (reservation_id, guest_id, is_primary) VALUES `
		args := make([]any, 0, len(guests)*3)
		for i, g := range guests {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, res.ID, g.GuestID, g.IsPrimary)
		}
		_, err = conn(ctx, r.db).ExecContext(ctx, query, args...)
		return err
	})
}

const reservationColumns = `id, account_id, hotel_id, room_type_id, room_id, check_in, check_out,
  status, payment_status, total_price, currency, channel, notes, created_at, updated_at`

func scanReservation(sc interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res    model.Reservation
		roomID sql.NullInt64
		notes  sql.NullString
	)
	err := sc.Scan(&res.ID, &res.AccountID, &res.HotelID, &res.RoomTypeID, &roomID,
		&res.CheckIn, &res.CheckOut, &res.Status, &res.PaymentStatus, &res.TotalPrice,
		&res.Currency, &res.Channel, &notes, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if roomID.Valid {
		id := uint64(roomID.Int64)
		res.RoomID = &id
	}
	res.Notes = notes.String
	return res, nil
}

func (r *ReservationRepo) GetReservation(ctx context.Context, accountID, id uint64) (model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND account_id = ?`
	res, err := scanReservation(conn(ctx, r.db).QueryRowContext(ctx, q, id, accountID))
	return res, notFound(err)
}

// GetReservationForUpdate locks the row; it must run inside WithTx.
func (r *ReservationRepo) GetReservationForUpdate(ctx context.Context, accountID, id uint64) (model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND account_id = ? FOR UPDATE`
	res, err := scanReservation(conn(ctx, r.db).QueryRowContext(ctx, q, id, accountID))
	return res, notFound(err)
}

func (r *ReservationRepo) UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus, payment model.PaymentStatus, updatedAt time.Time) error {
	const q = `UPDATE reservations SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?`
	result, err := conn(ctx, r.db).ExecContext(ctx, q, status, payment, updatedAt, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReservationRepo) ReservationGuests(ctx context.Context, reservationID uint64) ([]model.ReservationGuest, error) {
	const q = `SELECT reservation_id, guest_id, is_primary FROM reservation_guests WHERE reservation_id = ? ORDER BY is_primary DESC, guest_id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ReservationGuest
	for rows.Next() {
		var g model.ReservationGuest
		if err := rows.Scan(&g.ReservationID, &g.GuestID, &g.IsPrimary); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListReservations returns the account's reservations, newest first.
func (r *ReservationRepo) ListReservations(ctx context.Context, accountID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE account_id = ? ORDER BY id DESC`
	return r.list(ctx, q, accountID)
}

// ListReservationsByHotel returns one hotel's reservations, newest first.
func (r *ReservationRepo) ListReservationsByHotel(ctx context.Context, accountID, hotelID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE account_id = ? AND hotel_id = ? ORDER BY id DESC`
	return r.list(ctx, q, accountID, hotelID)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
