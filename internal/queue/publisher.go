package queue

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const dialTimeout = 3 * time.Second

// Publisher sends domain events to the broker.  Failures are returned so
// callers can log them; they never roll back the business operation.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// AMQPPublisher publishes each event as a persistent JSON message on
// QueueName through the default exchange.
type AMQPPublisher struct {
	url   string
	queue string
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: QueueName}
}

// Publish dials the broker, declares the queue and sends ev.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	env, err := NewEnvelope(ev, time.Now())
	if err != nil {
		log.Printf("[queue] marshal %s failed: %v", ev.EventName(), err)
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		log.Printf("[queue] dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("[queue] channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		log.Printf("[queue] queue declare failed: %v", err)
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Type:         env.Name,
		Timestamp:    env.OccurredAt,
		Body:         body,
	}); err != nil {
		log.Printf("[queue] publish %s failed: %v", env.Name, err)
		return err
	}
	return nil
}

// NopPublisher drops every event.  It is used when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// AsyncPublisher hands events to next in the background so request
// latency does not depend on the broker.  Close waits for in-flight
// publishes.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncPublisher wraps next; each publish gets its own timeout.
func NewAsyncPublisher(next Publisher, timeout time.Duration) *AsyncPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AsyncPublisher{next: next, timeout: timeout}
}

// Publish never fails; errors from next are logged.
func (a *AsyncPublisher) Publish(_ context.Context, ev Event) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Publish(ctx, ev); err != nil {
			log.Printf("[queue] async publish %s dropped: %v", ev.EventName(), err)
		}
	}()
	return nil
}

// Close blocks until every pending publish has finished.
func (a *AsyncPublisher) Close() { a.wg.Wait() }
