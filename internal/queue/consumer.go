package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogPath is where StartAuditConsumer appends one line per event.
var AuditLogPath = filepath.Join("logs", "audit.log")

// StartAuditConsumer consumes QueueName and appends each event to
// AuditLogPath.  It reconnects with exponential backoff and never returns
// under normal operation, so callers run it in its own goroutine.
// Messages that cannot be handled are rejected without requeue.
func StartAuditConsumer(url string) error {
	if url == "" {
		return errors.New("audit consumer: empty broker url")
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("[queue] audit consumer: dial failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.Printf("[queue] audit consumer: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("[queue] audit consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("[queue] audit consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	line, err := FormatAuditLine(env)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(AuditLogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(AuditLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders an envelope as a single human-readable line
// terminated by a newline.
func FormatAuditLine(env Envelope) (string, error) {
	ts := env.OccurredAt.UTC().Format(time.RFC3339)
	switch env.Name {
	case EventReservationConfirmed:
		var ev ReservationConfirmedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", env.Name, err)
		}
		return fmt.Sprintf("[%s] Reservation confirmed | reservation_id=%d | account_id=%d | hotel_id=%d | room_id=%s | stay=%s..%s | paid=%s/%s %s\n",
			ts, ev.ReservationID, ev.AccountID, ev.HotelID, optID(ev.RoomID), ev.CheckIn, ev.CheckOut, ev.TotalPaid, ev.TotalPrice, ev.Currency), nil
	case EventReservationCancelled:
		var ev ReservationCancelledEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", env.Name, err)
		}
		return fmt.Sprintf("[%s] Reservation cancelled | reservation_id=%d | account_id=%d | hotel_id=%d | room_id=%s | from=%s\n",
			ts, ev.ReservationID, ev.AccountID, ev.HotelID, optID(ev.RoomID), ev.PreviousStatus), nil
	case EventInvoiceIssued:
		var ev InvoiceIssuedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", env.Name, err)
		}
		return fmt.Sprintf("[%s] Invoice issued | invoice_id=%d | reservation_id=%d | account_id=%d | voucher=%s %04d-%08d | status=%s | fiscal=%t | total=%s %s\n",
			ts, ev.InvoiceID, ev.ReservationID, ev.AccountID, ev.VoucherType, ev.PointOfSale, ev.VoucherNumber, ev.Status, ev.Fiscal, ev.TotalAmount, ev.Currency), nil
	}
	return "", fmt.Errorf("unknown event %q", env.Name)
}

func optID(id *uint64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}
