package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/hotel-reservation-engine/internal/queue"
)

const (
	defaultInvoiceCurrency = "ARS"
	defaultGatewayCurrency = "PES"
	defaultDemoExpiry      = 10 * 24 * time.Hour
)

type options struct {
	publisher       queue.Publisher
	invoiceCurrency string
	gatewayCurrency string
	demoExpiry      time.Duration
}

// Option tunes a service at construction.
type Option func(*options)

// WithPublisher sends domain events to p once their unit of work has
// committed.
func WithPublisher(p queue.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithCurrency sets the currency stored on invoices and the code sent to
// the tax authority for it.
func WithCurrency(stored, gateway string) Option {
	return func(o *options) {
		if stored != "" {
			o.invoiceCurrency = stored
		}
		if gateway != "" {
			o.gatewayCurrency = gateway
		}
	}
}

// WithDemoExpiry sets how long a demo-mode authorization is reported as
// valid.
func WithDemoExpiry(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.demoExpiry = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		publisher:       queue.NopPublisher{},
		invoiceCurrency: defaultInvoiceCurrency,
		gatewayCurrency: defaultGatewayCurrency,
		demoExpiry:      defaultDemoExpiry,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.publisher == nil {
		o.publisher = queue.NopPublisher{}
	}
	return o
}

// publish logs and swallows broker errors; an event is never a reason to
// fail a committed operation.
func (o options) publish(ctx context.Context, ev queue.Event) {
	if err := o.publisher.Publish(ctx, ev); err != nil {
		log.Printf("[events] publish %s failed: %v", ev.EventName(), err)
	}
}
