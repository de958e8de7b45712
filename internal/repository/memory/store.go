// Package memory is an in-process implementation of every store the
// services depend on.  A single mutex serialises all access, so a unit of
// work opened with WithTx is both atomic and isolated.  It backs the tests
// and STORE_DRIVER=memory.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository"
)

type txKey struct{}

type tables struct {
	seq          map[string]uint64
	accounts     map[uint64]model.Account
	users        map[uint64]model.User
	hotels       map[uint64]model.Hotel
	roomTypes    map[uint64]model.RoomType
	rooms        map[uint64]model.Room
	guests       map[uint64]model.Guest
	reservations map[uint64]model.Reservation
	links        map[uint64][]model.ReservationGuest
	payments     []model.Payment
	invoices     map[uint64]model.Invoice
	tokens       map[string]refreshToken
}

type refreshToken struct {
	userID    uint64
	expiresAt time.Time
	revoked   bool
}

func newTables() tables {
	return tables{
		seq:          map[string]uint64{},
		accounts:     map[uint64]model.Account{},
		users:        map[uint64]model.User{},
		hotels:       map[uint64]model.Hotel{},
		roomTypes:    map[uint64]model.RoomType{},
		rooms:        map[uint64]model.Room{},
		guests:       map[uint64]model.Guest{},
		reservations: map[uint64]model.Reservation{},
		links:        map[uint64][]model.ReservationGuest{},
		invoices:     map[uint64]model.Invoice{},
		tokens:       map[string]refreshToken{},
	}
}

func (t tables) clone() tables {
	return tables{
		seq:          maps.Clone(t.seq),
		accounts:     maps.Clone(t.accounts),
		users:        maps.Clone(t.users),
		hotels:       maps.Clone(t.hotels),
		roomTypes:    maps.Clone(t.roomTypes),
		rooms:        maps.Clone(t.rooms),
		guests:       maps.Clone(t.guests),
		reservations: maps.Clone(t.reservations),
		links:        maps.Clone(t.links),
		payments:     slices.Clone(t.payments),
		invoices:     maps.Clone(t.invoices),
		tokens:       maps.Clone(t.tokens),
	}
}

func (t tables) next(table string) uint64 {
	t.seq[table]++
	return t.seq[table]
}

// Store keeps every table in maps.  The zero value is not usable; call
// New.
type Store struct {
	mu sync.Mutex
	t  tables
}

func New() *Store { return &Store{t: newTables()} }

// WithTx runs fn holding the store lock.  Changes made by fn are rolled
// back when it returns an error.  Nested calls join the outer unit.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.t.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store lock unless ctx already holds it through WithTx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Seeding.  These helpers assign ids the way an auto-increment column
// would and are used by tests and by the demo bootstrap.

func (s *Store) AddAccount(a model.Account) model.Account {
	defer s.lock(context.Background())()
	a.ID = s.t.next("accounts")
	s.t.accounts[a.ID] = a
	return a
}

func (s *Store) AddHotel(h model.Hotel) model.Hotel {
	defer s.lock(context.Background())()
	h.ID = s.t.next("hotels")
	s.t.hotels[h.ID] = h
	return h
}

func (s *Store) AddRoomType(rt model.RoomType) model.RoomType {
	defer s.lock(context.Background())()
	rt.ID = s.t.next("room_types")
	s.t.roomTypes[rt.ID] = rt
	return rt
}

func (s *Store) AddRoom(r model.Room) model.Room {
	defer s.lock(context.Background())()
	r.ID = s.t.next("rooms")
	s.t.rooms[r.ID] = r
	return r
}

func (s *Store) AddGuest(g model.Guest) model.Guest {
	defer s.lock(context.Background())()
	g.ID = s.t.next("guests")
	s.t.guests[g.ID] = g
	return g
}

// CreateUser stores u with a normalised email.  Emails are unique.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	defer s.lock(ctx)()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.t.users {
		if existing.Email == u.Email {
			return model.User{}, repository.ErrDuplicate
		}
	}
	u.ID = s.t.next("users")
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.t.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	defer s.lock(ctx)()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.t.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (model.User, error) {
	defer s.lock(ctx)()
	u, ok := s.t.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// CreateAccount is AddAccount with the signature the bootstrap expects.
func (s *Store) CreateAccount(_ context.Context, a model.Account) (model.Account, error) {
	return s.AddAccount(a), nil
}

// Refresh tokens.

func (s *Store) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	defer s.lock(ctx)()
	s.t.tokens[tokenHash] = refreshToken{userID: userID, expiresAt: exp}
	return nil
}

func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	defer s.lock(ctx)()
	tok, ok := s.t.tokens[tokenHash]
	if !ok || tok.revoked || time.Now().UTC().After(tok.expiresAt) {
		return 0, repository.ErrNotFound
	}
	return tok.userID, nil
}

func (s *Store) RevokeByHash(ctx context.Context, tokenHash string) error {
	defer s.lock(ctx)()
	if tok, ok := s.t.tokens[tokenHash]; ok {
		tok.revoked = true
		s.t.tokens[tokenHash] = tok
	}
	return nil
}

func (s *Store) RevokeAllForUser(ctx context.Context, userID uint64) error {
	defer s.lock(ctx)()
	for h, tok := range s.t.tokens {
		if tok.userID == userID {
			tok.revoked = true
			s.t.tokens[h] = tok
		}
	}
	return nil
}

// Catalog.

func (s *Store) GetAccount(ctx context.Context, accountID uint64) (model.Account, error) {
	defer s.lock(ctx)()
	a, ok := s.t.accounts[accountID]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetHotel(ctx context.Context, accountID, hotelID uint64) (model.Hotel, error) {
	defer s.lock(ctx)()
	return s.hotel(accountID, hotelID)
}

func (s *Store) hotel(accountID, hotelID uint64) (model.Hotel, error) {
	h, ok := s.t.hotels[hotelID]
	if !ok || h.AccountID != accountID {
		return model.Hotel{}, repository.ErrNotFound
	}
	return h, nil
}

func (s *Store) GetRoomType(ctx context.Context, accountID, roomTypeID uint64) (model.RoomType, error) {
	defer s.lock(ctx)()
	rt, ok := s.t.roomTypes[roomTypeID]
	if !ok {
		return model.RoomType{}, repository.ErrNotFound
	}
	if _, err := s.hotel(accountID, rt.HotelID); err != nil {
		return model.RoomType{}, err
	}
	return rt, nil
}

func (s *Store) GetRoom(ctx context.Context, accountID, roomID uint64) (model.Room, error) {
	defer s.lock(ctx)()
	r, ok := s.t.rooms[roomID]
	if !ok {
		return model.Room{}, repository.ErrNotFound
	}
	if _, err := s.hotel(accountID, r.HotelID); err != nil {
		return model.Room{}, err
	}
	return r, nil
}

func (s *Store) ListRooms(ctx context.Context, accountID, hotelID uint64) ([]model.Room, error) {
	defer s.lock(ctx)()
	if _, err := s.hotel(accountID, hotelID); err != nil {
		return nil, err
	}
	var out []model.Room
	for _, r := range s.t.rooms {
		if r.HotelID == hotelID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b model.Room) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetGuest(ctx context.Context, accountID, guestID uint64) (model.Guest, error) {
	defer s.lock(ctx)()
	g, ok := s.t.guests[guestID]
	if !ok || g.AccountID != accountID {
		return model.Guest{}, repository.ErrNotFound
	}
	return g, nil
}

// Reservations.

// LockRoom is satisfied by the store lock held for the whole unit.
func (s *Store) LockRoom(ctx context.Context, roomID uint64) error {
	defer s.lock(ctx)()
	if _, ok := s.t.rooms[roomID]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
	defer s.lock(ctx)()
	for _, r := range s.t.reservations {
		if r.ID == excludeID || !r.OnRoom(roomID) || !r.Status.Blocking() {
			continue
		}
		if model.Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateReservation(ctx context.Context, r *model.Reservation, guests []model.ReservationGuest) error {
	defer s.lock(ctx)()
	r.ID = s.t.next("reservations")
	s.t.reservations[r.ID] = *r
	links := make([]model.ReservationGuest, len(guests))
	for i, g := range guests {
		g.ReservationID = r.ID
		links[i] = g
	}
	s.t.links[r.ID] = links
	return nil
}

func (s *Store) GetReservation(ctx context.Context, accountID, id uint64) (model.Reservation, error) {
	defer s.lock(ctx)()
	r, ok := s.t.reservations[id]
	if !ok || r.AccountID != accountID {
		return model.Reservation{}, repository.ErrNotFound
	}
	return r, nil
}

// GetReservationForUpdate is GetReservation; the unit already holds the
// store lock.
func (s *Store) GetReservationForUpdate(ctx context.Context, accountID, id uint64) (model.Reservation, error) {
	return s.GetReservation(ctx, accountID, id)
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus, payment model.PaymentStatus, updatedAt time.Time) error {
	defer s.lock(ctx)()
	r, ok := s.t.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status, r.PaymentStatus, r.UpdatedAt = status, payment, updatedAt
	s.t.reservations[id] = r
	return nil
}

func (s *Store) ReservationGuests(ctx context.Context, reservationID uint64) ([]model.ReservationGuest, error) {
	defer s.lock(ctx)()
	return slices.Clone(s.t.links[reservationID]), nil
}

func (s *Store) ListReservations(ctx context.Context, accountID uint64) ([]model.Reservation, error) {
	defer s.lock(ctx)()
	return s.reservationsWhere(func(r model.Reservation) bool { return r.AccountID == accountID }), nil
}

func (s *Store) ListReservationsByHotel(ctx context.Context, accountID, hotelID uint64) ([]model.Reservation, error) {
	defer s.lock(ctx)()
	return s.reservationsWhere(func(r model.Reservation) bool {
		return r.AccountID == accountID && r.HotelID == hotelID
	}), nil
}

// reservationsWhere returns matches newest first.
func (s *Store) reservationsWhere(keep func(model.Reservation) bool) []model.Reservation {
	var out []model.Reservation
	for _, r := range s.t.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b model.Reservation) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

// Payments.

func (s *Store) AppendPayment(ctx context.Context, p *model.Payment) error {
	defer s.lock(ctx)()
	if _, ok := s.t.reservations[p.ReservationID]; !ok {
		return repository.ErrNotFound
	}
	p.ID = s.t.next("payments")
	s.t.payments = append(s.t.payments, *p)
	return nil
}

func (s *Store) SumPayments(ctx context.Context, reservationID uint64) (decimal.Decimal, error) {
	defer s.lock(ctx)()
	total := decimal.Zero
	for _, p := range s.t.payments {
		if p.ReservationID == reservationID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *Store) ListPayments(ctx context.Context, reservationID uint64) ([]model.Payment, error) {
	defer s.lock(ctx)()
	var out []model.Payment
	for _, p := range s.t.payments {
		if p.ReservationID == reservationID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Invoices.

func (s *Store) InvoiceExists(ctx context.Context, reservationID uint64) (bool, error) {
	defer s.lock(ctx)()
	_, ok := s.invoiceFor(reservationID)
	return ok, nil
}

func (s *Store) invoiceFor(reservationID uint64) (model.Invoice, bool) {
	for _, inv := range s.t.invoices {
		if inv.ReservationID != nil && *inv.ReservationID == reservationID {
			return inv, true
		}
	}
	return model.Invoice{}, false
}

func (s *Store) LastLocalVoucherNumber(ctx context.Context, accountID uint64, pointOfSale int, voucherType string) (int64, error) {
	defer s.lock(ctx)()
	var last int64
	for _, inv := range s.t.invoices {
		if inv.AccountID == accountID && inv.PointOfSale == pointOfSale &&
			inv.VoucherType == voucherType && inv.VoucherNumber > last {
			last = inv.VoucherNumber
		}
	}
	return last, nil
}

func (s *Store) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	defer s.lock(ctx)()
	if inv.ReservationID != nil {
		if _, ok := s.invoiceFor(*inv.ReservationID); ok {
			return repository.ErrDuplicate
		}
	}
	inv.ID = s.t.next("invoices")
	s.t.invoices[inv.ID] = *inv
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, accountID, id uint64) (model.Invoice, error) {
	defer s.lock(ctx)()
	inv, ok := s.t.invoices[id]
	if !ok || inv.AccountID != accountID {
		return model.Invoice{}, repository.ErrNotFound
	}
	return inv, nil
}

func (s *Store) GetInvoiceByReservation(ctx context.Context, accountID, reservationID uint64) (model.Invoice, error) {
	defer s.lock(ctx)()
	inv, ok := s.invoiceFor(reservationID)
	if !ok || inv.AccountID != accountID {
		return model.Invoice{}, repository.ErrNotFound
	}
	return inv, nil
}

// ListInvoices returns matches newest first.
func (s *Store) ListInvoices(ctx context.Context, accountID uint64, f repository.InvoiceFilter) ([]model.Invoice, error) {
	defer s.lock(ctx)()
	var out []model.Invoice
	for _, inv := range s.t.invoices {
		if inv.AccountID != accountID || inv.IssuedAt.Before(f.From) || inv.IssuedAt.After(f.To) {
			continue
		}
		if f.HotelID != nil && inv.HotelID != *f.HotelID {
			continue
		}
		out = append(out, inv)
	}
	slices.SortFunc(out, func(a, b model.Invoice) int {
		if c := b.IssuedAt.Compare(a.IssuedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}
