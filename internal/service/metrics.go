package service

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/iliyamo/hotel-reservation-engine/internal/service"

// instruments groups the counters the services emit.  They are created
// from the global meter provider, which is a no-op until telemetry is
// initialised.
type instruments struct {
	bookingConflicts metric.Int64Counter
	payments         metric.Int64Counter
	invoices         metric.Int64Counter
	gatewayFallbacks metric.Int64Counter
}

func newInstruments() instruments {
	m := otel.Meter(instrumentationName)
	return instruments{
		bookingConflicts: counter(m, "reservations_conflicts_total", "Bookings rejected because the room was taken"),
		payments:         counter(m, "payments_recorded_total", "Payments appended to the ledger"),
		invoices:         counter(m, "invoices_issued_total", "Invoices persisted, by status"),
		gatewayFallbacks: counter(m, "invoice_gateway_fallbacks_total", "Invoices issued in demo mode after a gateway failure"),
	}
}

func counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		log.Printf("[metrics] create %s failed: %v", name, err)
	}
	return c
}

func add(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}
