package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(ReservationCancelledEvent{ReservationID: 9}, at)
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, EventReservationCancelled, env.Name)
	assert.JSONEq(t, `{"reservation_id":9,"account_id":0,"hotel_id":0,"previous_status":"","cancelled_at":""}`, string(env.Payload))

	other, err := NewEnvelope(ReservationCancelledEvent{ReservationID: 9}, at)
	require.NoError(t, err)
	assert.NotEqual(t, env.ID, other.ID)
}

func TestFormatAuditLine(t *testing.T) {
	room := uint64(12)
	cases := []struct {
		name string
		ev   Event
		want string
	}{
		{
			name: "confirmed",
			ev: ReservationConfirmedEvent{ReservationID: 1, AccountID: 2, HotelID: 3, RoomID: &room,
				CheckIn: "2024-03-01", CheckOut: "2024-03-05", TotalPrice: "200", TotalPaid: "50", Currency: "ARS"},
			want: "[2024-03-01T12:30:00Z] Reservation confirmed | reservation_id=1 | account_id=2 | hotel_id=3 | room_id=12 | stay=2024-03-01..2024-03-05 | paid=50/200 ARS\n",
		},
		{
			name: "cancelled without room",
			ev:   ReservationCancelledEvent{ReservationID: 1, AccountID: 2, HotelID: 3, PreviousStatus: "PENDING"},
			want: "[2024-03-01T12:30:00Z] Reservation cancelled | reservation_id=1 | account_id=2 | hotel_id=3 | room_id=- | from=PENDING\n",
		},
		{
			name: "invoice",
			ev: InvoiceIssuedEvent{InvoiceID: 7, ReservationID: 1, AccountID: 2, VoucherType: "B", PointOfSale: 3,
				VoucherNumber: 42, Status: "INTERNAL", TotalAmount: "200", Currency: "ARS"},
			want: "[2024-03-01T12:30:00Z] Invoice issued | invoice_id=7 | reservation_id=1 | account_id=2 | voucher=B 0003-00000042 | status=INTERNAL | fiscal=false | total=200 ARS\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := NewEnvelope(tc.ev, at)
			require.NoError(t, err)
			line, err := FormatAuditLine(env)
			require.NoError(t, err)
			assert.Equal(t, tc.want, line)
		})
	}

	_, err := FormatAuditLine(Envelope{Name: "unknown", Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestHandleMessageAppends(t *testing.T) {
	prev := AuditLogPath
	AuditLogPath = filepath.Join(t.TempDir(), "logs", "audit.log")
	t.Cleanup(func() { AuditLogPath = prev })

	env, err := NewEnvelope(ReservationCancelledEvent{ReservationID: 5, PreviousStatus: "CONFIRMED"}, at)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, handleMessage(body))
	require.NoError(t, handleMessage(body))

	data, err := os.ReadFile(AuditLogPath)
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(string(data)))

	assert.Error(t, handleMessage([]byte("not json")))
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
