package amqp

import "fmt"

// Envelope the delivery metadata attached to an inbound message.
//
// the delivery tag is scoped to the channel the message was delivered on and is
// only valid for acknowledging or rejecting that delivery.
type Envelope struct {
	deliveryTag uint64
	redelivered bool
	exchange    string
	routingKey  string
}

// NewEnvelope creates an envelope, this is called by transports for each delivery.
func NewEnvelope(deliveryTag uint64, redelivered bool, exchange, routingKey string) Envelope {
	return Envelope{
		deliveryTag: deliveryTag,
		redelivered: redelivered,
		exchange:    exchange,
		routingKey:  routingKey,
	}
}

// DeliveryTag returns the channel scoped tag used to acknowledge or reject the message.
func (e Envelope) DeliveryTag() uint64 { return e.deliveryTag }

// Redelivered whether the message has been delivered previously.
func (e Envelope) Redelivered() bool { return e.redelivered }

// Exchange returns the name of the exchange the message was published through.
func (e Envelope) Exchange() string { return e.exchange }

// RoutingKey returns the routing key used to publish the message.
func (e Envelope) RoutingKey() string { return e.routingKey }

func (e Envelope) String() string {
	return fmt.Sprintf("Envelope[deliveryTag=%d,redelivered=%t,exchange=%s,routingKey=%s]",
		e.deliveryTag, e.redelivered, e.exchange, e.routingKey)
}
