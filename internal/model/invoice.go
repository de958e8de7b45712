package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus tells whether the tax authority authorized the voucher.
type InvoiceStatus string

const (
	// InvoiceApproved carries a CAE and is fiscally valid.
	InvoiceApproved InvoiceStatus = "APPROVED"
	// InvoiceInternal is a business record without authorization.  It
	// is produced when the gateway declines or cannot be reached.
	InvoiceInternal InvoiceStatus = "INTERNAL"
)

// Invoice is the single fiscal document emitted for a reservation.  It is
// written once and never updated.
//
// Fields:
//
//	ID                 – primary key identifier.
//	AccountID          – owning account.
//	HotelID            – hotel of the invoiced reservation.
//	ReservationID      – invoiced reservation (unique when set).
//	VoucherType        – A, B or C.
//	PointOfSale        – issuing point of sale.
//	VoucherNumber      – gateway-assigned or locally assigned number.
//	IssuerTaxID        – account CUIT.
//	RecipientDocType   – DNI, CUIT or other.
//	RecipientDocNumber – recipient document number.
//	RecipientName      – recipient display name.
//	IssuedAt           – issue timestamp.
//	TotalAmount        – invoiced amount.
//	Currency           – ISO currency code.
//	CAE                – authorization code (nil when not authorized).
//	CAEExpiry          – authorization expiry date (nullable).
//	Status             – APPROVED or INTERNAL.
//	Detail             – free text.
type Invoice struct {
	ID                 uint64          `json:"id"`                   // invoices.id
	AccountID          uint64          `json:"account_id"`           // invoices.account_id
	HotelID            uint64          `json:"hotel_id"`             // invoices.hotel_id
	ReservationID      *uint64         `json:"reservation_id"`       // invoices.reservation_id (nullable, unique)
	VoucherType        string          `json:"voucher_type"`         // invoices.voucher_type
	PointOfSale        int             `json:"point_of_sale"`        // invoices.point_of_sale
	VoucherNumber      int64           `json:"voucher_number"`       // invoices.voucher_number
	IssuerTaxID        string          `json:"issuer_tax_id"`        // invoices.issuer_tax_id
	RecipientDocType   string          `json:"recipient_doc_type"`   // invoices.recipient_doc_type
	RecipientDocNumber string          `json:"recipient_doc_number"` // invoices.recipient_doc_number
	RecipientName      string          `json:"recipient_name"`       // invoices.recipient_name
	IssuedAt           time.Time       `json:"issued_at"`            // invoices.issued_at
	TotalAmount        decimal.Decimal `json:"total_amount"`         // invoices.total_amount
	Currency           string          `json:"currency"`             // invoices.currency
	CAE                *string         `json:"cae"`                  // invoices.cae (nullable)
	CAEExpiry          *time.Time      `json:"cae_expiry"`           // invoices.cae_expiry (nullable)
	Status             InvoiceStatus   `json:"status"`               // invoices.status
	Detail             string          `json:"detail"`               // invoices.detail
}

// Fiscal reports whether the invoice carries a tax authority
// authorization code.
func (i Invoice) Fiscal() bool { return i.CAE != nil && *i.CAE != "" }
