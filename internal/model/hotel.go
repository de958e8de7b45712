package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hotel groups room types and rooms under a single account.
//
// Fields:
//
//	ID        – primary key identifier.
//	AccountID – owning account.
//	Name      – display name, unique per account.
//	Address   – optional street address.
//	CreatedAt – creation timestamp.
type Hotel struct {
	ID        uint64    `json:"id"`         // hotels.id
	AccountID uint64    `json:"account_id"` // hotels.account_id
	Name      string    `json:"name"`       // hotels.name
	Address   string    `json:"address"`    // hotels.address
	CreatedAt time.Time `json:"created_at"` // hotels.created_at
}

// RoomType describes a category of rooms inside a hotel (e.g. double,
// suite).  BasePrice is informational; reservations carry their own
// agreed total.
type RoomType struct {
	ID        uint64          `json:"id"`         // room_types.id
	HotelID   uint64          `json:"hotel_id"`   // room_types.hotel_id
	Name      string          `json:"name"`       // room_types.name
	Capacity  int             `json:"capacity"`   // room_types.capacity
	BasePrice decimal.Decimal `json:"base_price"` // room_types.base_price
}

// Room is a physical, bookable unit.  Inactive rooms never appear in
// availability listings but keep their reservation history.
//
// Fields:
//
//	ID         – primary key identifier.
//	HotelID    – hotel the room belongs to.
//	RoomTypeID – category of the room.
//	Code       – room number or label, unique per hotel.
//	Floor      – optional floor label.
//	IsActive   – whether the room can be offered.
type Room struct {
	ID         uint64 `json:"id"`           // rooms.id
	HotelID    uint64 `json:"hotel_id"`     // rooms.hotel_id
	RoomTypeID uint64 `json:"room_type_id"` // rooms.room_type_id
	Code       string `json:"code"`         // rooms.code
	Floor      string `json:"floor"`        // rooms.floor
	IsActive   bool   `json:"is_active"`    // rooms.is_active
}
