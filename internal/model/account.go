package model

import "time"

// Account is the tenant that owns hotels, guests, reservations and
// invoices.  TaxID is the issuer identifier (CUIT) printed on every
// invoice emitted on behalf of the account.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – business name.
//	TaxID     – fiscal identifier used as invoice issuer.
//	CreatedAt – creation timestamp.
type Account struct {
	ID        uint64    `json:"id"`         // accounts.id
	Name      string    `json:"name"`       // accounts.name
	TaxID     string    `json:"tax_id"`     // accounts.tax_id
	CreatedAt time.Time `json:"created_at"` // accounts.created_at
}
