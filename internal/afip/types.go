// Package afip is the client for the tax authority electronic invoicing
// gateway (AFIP WSFE exposed through a REST bridge).  One issuance is
// three sequential calls on the same session: authenticate, read the last
// authorized voucher number, and authorize the next one.  Callers get an
// explicit Result and decide themselves how to degrade.
package afip

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Session is the short-lived token/sign pair returned by /auth.
type Session struct {
	Token string `json:"token"`
	Sign  string `json:"sign"`
}

// VoucherRequest describes a single voucher to authorize.
type VoucherRequest struct {
	IssuerTaxID        string          // CUIT of the issuing account
	PointOfSale        int             // PtoVta
	VoucherType        string          // A, B or C
	IssueDate          time.Time       // CbteFch
	Currency           string          // gateway currency code, e.g. PES
	Amount             decimal.Decimal // whole amount, sent as non-taxed
	RecipientDocType   string          // DNI, CUIT or anything else
	RecipientDocNumber string
	RecipientName      string
}

// Authorization is what the gateway answered for a voucher.
type Authorization struct {
	Approved      bool
	CAE           string
	CAEExpiry     *time.Time
	VoucherNumber int64
}

// Outcome classifies an issuance attempt.
type Outcome int

const (
	// OutcomeApproved means the voucher got a CAE.
	OutcomeApproved Outcome = iota
	// OutcomeDeclined means the gateway answered but did not approve.
	OutcomeDeclined
	// OutcomeFailed means the gateway could not be used at all
	// (network error, bad status, malformed payload, timeout).
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeDeclined:
		return "declined"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the explicit outcome of Client.Issue.  Authorization is
// meaningful for approved and declined results; Err is set only for
// failures.
type Result struct {
	Outcome       Outcome
	Authorization Authorization
	Err           error
}

// Failure wraps err as a failed Result.
func Failure(err error) Result { return Result{Outcome: OutcomeFailed, Err: err} }

// StatusError is returned when the gateway answers with an HTTP error.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("afip %s: status %d: %s", e.Path, e.Code, e.Body)
}
