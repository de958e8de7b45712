// Package repository holds the MySQL-backed stores and the sentinel
// errors shared by every store implementation (including the in-memory
// one).  Services translate these into their own error taxonomy.
package repository

import (
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist or belongs to a
// different account.  Cross-account reads look like missing rows.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert hits a unique key, such as a
// second invoice for the same reservation.
var ErrDuplicate = errors.New("duplicate")

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// InvoiceFilter narrows an invoice listing.  From and To bound IssuedAt,
// inclusive; HotelID, when set, keeps one hotel only.
type InvoiceFilter struct {
	From    time.Time
	To      time.Time
	HotelID *uint64
}
