package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// CatalogRepo reads accounts, hotels, room types, rooms and guests.  Every
// query is constrained to the caller's account so rows owned by another
// tenant look missing.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a CatalogRepo bound to db.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// CreateAccount inserts a tenant.  It is used by the bootstrap only;
// account management lives elsewhere.
func (r *CatalogRepo) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `INSERT INTO accounts (name, tax_id) VALUES (?, ?)`, a.Name, a.TaxID)
	if err != nil {
		if isDuplicate(err) {
			return model.Account{}, ErrDuplicate
		}
		return model.Account{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Account{}, err
	}
	return r.GetAccount(ctx, uint64(id))
}

func (r *CatalogRepo) GetAccount(ctx context.Context, accountID uint64) (model.Account, error) {
	const q = `SELECT id, name, tax_id, created_at FROM accounts WHERE id = ?`
	var a model.Account
	err := conn(ctx, r.db).QueryRowContext(ctx, q, accountID).Scan(&a.ID, &a.Name, &a.TaxID, &a.CreatedAt)
	return a, notFound(err)
}

func (r *CatalogRepo) GetHotel(ctx context.Context, accountID, hotelID uint64) (model.Hotel, error) {
	const q = `SELECT id, account_id, name, address, created_at FROM hotels WHERE id = ? AND account_id = ?`
	var h model.Hotel
	var addr sql.NullString
	err := conn(ctx, r.db).QueryRowContext(ctx, q, hotelID, accountID).
		Scan(&h.ID, &h.AccountID, &h.Name, &addr, &h.CreatedAt)
	h.Address = addr.String
	return h, notFound(err)
}

func (r *CatalogRepo) GetRoomType(ctx context.Context, accountID, roomTypeID uint64) (model.RoomType, error) {
	const q = `
SELECT rt.id, rt.hotel_id, rt.name, rt.capacity, rt.base_price
  FROM room_types rt
  JOIN hotels h ON h.id = rt.hotel_id
 WHERE rt.id = ? AND h.account_id = ?`
	var rt model.RoomType
	err := conn(ctx, r.db).QueryRowContext(ctx, q, roomTypeID, accountID).
		Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.Capacity, &rt.BasePrice)
	return rt, notFound(err)
}

const roomColumns = `r.id, r.hotel_id, r.room_type_id, r.code, r.floor, r.is_active`

func scanRoom(sc interface{ Scan(...any) error }) (model.Room, error) {
	var rm model.Room
	var floor sql.NullString
	err := sc.Scan(&rm.ID, &rm.HotelID, &rm.RoomTypeID, &rm.Code, &floor, &rm.IsActive)
	rm.Floor = floor.String
	return rm, err
}

func (r *CatalogRepo) GetRoom(ctx context.Context, accountID, roomID uint64) (model.Room, error) {
	q := `SELECT ` + roomColumns + `
  FROM rooms r
  JOIN hotels h ON h.id = r.hotel_id
 WHERE r.id = ? AND h.account_id = ?`
	rm, err := scanRoom(conn(ctx, r.db).QueryRowContext(ctx, q, roomID, accountID))
	return rm, notFound(err)
}

// ListRooms returns every room of the hotel, active or not, ordered by id.
func (r *CatalogRepo) ListRooms(ctx context.Context, accountID, hotelID uint64) ([]model.Room, error) {
	if _, err := r.GetHotel(ctx, accountID, hotelID); err != nil {
		return nil, err
	}
	q := `SELECT ` + roomColumns + ` FROM rooms r WHERE r.hotel_id = ? ORDER BY r.id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) GetGuest(ctx context.Context, accountID, guestID uint64) (model.Guest, error) {
	const q = `SELECT id, account_id, full_name, doc_type, doc_number, email FROM guests WHERE id = ? AND account_id = ?`
	var g model.Guest
	var email sql.NullString
	err := conn(ctx, r.db).QueryRowContext(ctx, q, guestID, accountID).
		Scan(&g.ID, &g.AccountID, &g.FullName, &g.DocType, &g.DocNumber, &email)
	g.Email = email.String
	return g, notFound(err)
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
