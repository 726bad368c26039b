package rabbitmq

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"github.com/jacklaaa89/amqp/v2"
)

// message implements a AMQP message
type message struct {
	ctx context.Context
	amqp091.Delivery
}

// Context returns the attached ctx
func (m *message) Context() context.Context {
	return m.ctx
}

// Ack attempts to acknowledge a message.
func (m *message) Ack() error {
	return m.Delivery.Ack(false)
}

// Nack attempts to negatively acknowledge a message.
func (m *message) Nack(requeue bool) error {
	return m.Delivery.Nack(false, requeue)
}

// Reject attempts to reject a message.
func (m *message) Reject(requeue bool) error {
	return m.Delivery.Reject(requeue)
}

// Body returns the raw message body.
func (m *message) Body() []byte {
	return m.Delivery.Body
}

// Properties returns the delivery properties.
func (m *message) Properties() amqp.Properties {
	return amqp.Properties{
		ContentType:     m.Delivery.ContentType,
		ContentEncoding: m.Delivery.ContentEncoding,
		Headers:         fromTable(m.Delivery.Headers),
		DeliveryMode:    amqp.DeliveryModeFromValue(m.Delivery.DeliveryMode),
		Priority:        m.Delivery.Priority,
		CorrelationID:   m.Delivery.CorrelationId,
		ReplyTo:         m.Delivery.ReplyTo,
		Expiration:      m.Delivery.Expiration,
		MessageID:       m.Delivery.MessageId,
		Timestamp:       m.Delivery.Timestamp,
		Type:            m.Delivery.Type,
		UserID:          m.Delivery.UserId,
		AppID:           m.Delivery.AppId,
	}
}

// Envelope returns the delivery metadata.
func (m *message) Envelope() amqp.Envelope {
	return amqp.NewEnvelope(
		m.Delivery.DeliveryTag,
		m.Delivery.Redelivered,
		m.Delivery.Exchange,
		m.Delivery.RoutingKey,
	)
}

// publishing maps properties and a body onto an amqp091.Publishing.
func publishing(body []byte, props amqp.Properties) amqp091.Publishing {
	return amqp091.Publishing{
		Headers:         toTable(props.Headers),
		ContentType:     props.ContentType,
		ContentEncoding: props.ContentEncoding,
		DeliveryMode:    props.DeliveryMode.Value(),
		Priority:        props.Priority,
		CorrelationId:   props.CorrelationID,
		ReplyTo:         props.ReplyTo,
		Expiration:      props.Expiration,
		MessageId:       props.MessageID,
		Timestamp:       props.Timestamp,
		Type:            props.Type,
		UserId:          props.UserID,
		AppId:           props.AppID,
		Body:            body,
	}
}

// toTable converts headers to an amqp091.Table, nil stays nil.
func toTable(t map[string]any) amqp091.Table {
	if t == nil {
		return nil
	}
	out := make(amqp091.Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// fromTable converts an amqp091.Table to headers, nil stays nil.
func fromTable(t amqp091.Table) amqp.Table {
	if t == nil {
		return nil
	}
	out := make(amqp.Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
