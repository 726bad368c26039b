package amqp

import (
	"context"
	"fmt"
)

// Delivery a decoded inbound message.
//
// when the body could not be decoded Err holds an *UndecodableMessageError and Message is the
// zero value, the delivery can still be acknowledged or rejected.
type Delivery[T any] struct {
	Message    T
	Body       []byte
	Properties Properties
	Envelope   Envelope
	Err        error

	raw Message
}

// Context returns the scoped context of the delivery.
func (d *Delivery[T]) Context() context.Context { return d.raw.Context() }

// Ack acknowledges the delivery.
func (d *Delivery[T]) Ack() error { return d.raw.Ack() }

// Nack negatively acknowledges the delivery.
func (d *Delivery[T]) Nack(requeue bool) error { return d.raw.Nack(requeue) }

// Reject rejects the delivery.
func (d *Delivery[T]) Reject(requeue bool) error { return d.raw.Reject(requeue) }

// Consumer consumes typed messages from a queue. Deliveries are never acknowledged
// on the application's behalf.
type Consumer[T any] struct {
	ch        Channel
	converter Converter[T]
}

// NewConsumer creates a consumer which decodes deliveries using c.
func NewConsumer[T any](ch Channel, c Converter[T]) (*Consumer[T], error) {
	if ch == nil {
		return nil, fmt.Errorf("%w: channel is required", ErrInvalidArgument)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: converter is required", ErrInvalidArgument)
	}
	return &Consumer[T]{ch: ch, converter: c}, nil
}

// Consume starts consuming from queue. The returned channel is closed once ctx is done,
// cancel is called or the transport stops delivering.
func (c *Consumer[T]) Consume(
	ctx context.Context,
	queue, consumerName string,
	exclusive bool,
) (<-chan *Delivery[T], CancelFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	msgs, stop, err := c.ch.Consume(ctx, queue, consumerName, false, exclusive)
	if err != nil {
		cancel()
		return nil, emptyFunc, err
	}

	out := make(chan *Delivery[T])
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- c.decode(m):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() {
		cancel()
		stop()
	}, nil
}

// Decode converts a single transport message into a delivery.
func (c *Consumer[T]) Decode(m Message) *Delivery[T] {
	return c.decode(m)
}

func (c *Consumer[T]) decode(m Message) *Delivery[T] {
	d := &Delivery[T]{
		Body:       m.Body(),
		Properties: m.Properties(),
		Envelope:   m.Envelope(),
		raw:        m,
	}

	body, err := Decompress(d.Properties.ContentEncoding, d.Body)
	if err != nil {
		d.Err = &UndecodableMessageError{Body: d.Body, Properties: d.Properties, Envelope: d.Envelope, Err: err}
	} else {
		d.Message, d.Err = DecodeMessage(c.converter, body, d.Properties, d.Envelope)
		if ue, ok := d.Err.(*UndecodableMessageError); ok {
			ue.Body = d.Body // the body as delivered, before decompression.
		}
	}

	if d.Err != nil {
		Logger().Warn().
			Err(d.Err).
			Uint64("delivery_tag", d.Envelope.DeliveryTag()).
			Str("exchange", d.Envelope.Exchange()).
			Str("routing_key", d.Envelope.RoutingKey()).
			Msg("could not decode delivery")
	}
	return d
}

// represents a function which does nothing.
var emptyFunc = func() {
	// intentionally empty so callers can always call the returned cancel function.
}
