package model

// Guest is a person who can be attached to reservations, either as the
// primary guest (the holder) or as a companion.
type Guest struct {
	ID        uint64 `json:"id"`         // guests.id
	AccountID uint64 `json:"account_id"` // guests.account_id
	FullName  string `json:"full_name"`  // guests.full_name
	DocType   string `json:"doc_type"`   // guests.doc_type (DNI, CUIT, PASSPORT)
	DocNumber string `json:"doc_number"` // guests.doc_number
	Email     string `json:"email"`      // guests.email
}

// ReservationGuest links a guest to a reservation.  Exactly one link per
// reservation has IsPrimary set.
type ReservationGuest struct {
	ReservationID uint64 `json:"reservation_id"` // reservation_guests.reservation_id
	GuestID       uint64 `json:"guest_id"`       // reservation_guests.guest_id
	IsPrimary     bool   `json:"is_primary"`     // reservation_guests.is_primary
}
