package afip

import (
	"errors"
	"strconv"
	"strings"
)

// VoucherTypeCode maps a voucher letter to its CbteTipo code.  Unknown
// letters fall back to B (6).
func VoucherTypeCode(letter string) int {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "A":
		return 1
	case "B":
		return 6
	case "C":
		return 11
	}
	return 6
}

// DocTypeCode maps a recipient document type to its DocTipo code.
// Anything that is not a CUIT or DNI is reported as 99 (final consumer).
func DocTypeCode(docType string) string {
	switch strings.ToUpper(strings.TrimSpace(docType)) {
	case "CUIT":
		return "80"
	case "DNI":
		return "96"
	}
	return "99"
}

// digits keeps only ASCII digits, so "20-12345678-3" becomes "20123456783".
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseTaxID(s string) (int64, error) {
	d := digits(s)
	if d == "" {
		return 0, errors.New("afip: empty tax id")
	}
	return strconv.ParseInt(d, 10, 64)
}

// parseDocNumber returns 0 for an empty number, as used for anonymous
// final consumers.
func parseDocNumber(s string) (int64, error) {
	d := digits(s)
	if d == "" {
		return 0, nil
	}
	return strconv.ParseInt(d, 10, 64)
}
