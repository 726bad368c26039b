package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Publisher publishes typed messages to a single exchange.
// a publisher is safe for concurrent use when its channel is.
type Publisher[T any] struct {
	ch        Channel
	exchange  *Exchange
	converter Converter[T]

	declareOnPublish bool
	appID            string
	now              func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(p *publisherConfig)

type publisherConfig struct {
	declareOnPublish bool
	appID            string
}

// WithDeclareOnPublish declares the exchange before every publish.
func WithDeclareOnPublish(declare bool) PublisherOption {
	return func(c *publisherConfig) { c.declareOnPublish = declare }
}

// WithAppID sets the app id property of every published message.
func WithAppID(appID string) PublisherOption {
	return func(c *publisherConfig) { c.appID = appID }
}

// NewPublisher creates a publisher for exchange using converter c.
func NewPublisher[T any](ch Channel, exchange *Exchange, c Converter[T], opts ...PublisherOption) (*Publisher[T], error) {
	if ch == nil {
		return nil, fmt.Errorf("%w: channel is required", ErrInvalidArgument)
	}
	if exchange == nil {
		return nil, fmt.Errorf("%w: exchange is required", ErrInvalidArgument)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: converter is required", ErrInvalidArgument)
	}

	var cfg publisherConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Publisher[T]{
		ch:               ch,
		exchange:         exchange,
		converter:        c,
		declareOnPublish: cfg.declareOnPublish,
		appID:            cfg.appID,
		now:              time.Now,
	}, nil
}

// Exchange returns the exchange messages are published to.
func (p *Publisher[T]) Exchange() *Exchange { return p.exchange }

// Declare declares the exchange on the channel.
func (p *Publisher[T]) Declare(ctx context.Context) error {
	return p.ch.DeclareExchange(ctx, p.exchange)
}

// PublishOption configures a single publish.
type PublishOption func(o *publishOptions)

type publishOptions struct {
	mandatory  bool
	properties []func(b *PropertiesBuilder)
}

// WithMandatory sets the mandatory flag, the broker returns the message when it cannot be routed.
func WithMandatory(mandatory bool) PublishOption {
	return func(o *publishOptions) { o.mandatory = mandatory }
}

// WithHeaders adds headers to the published message.
func WithHeaders(headers Table) PublishOption {
	return WithProperties(func(b *PropertiesBuilder) { b.SetHeaders(headers) })
}

// WithProperties allows the caller to set properties before the message is encoded.
func WithProperties(fn func(b *PropertiesBuilder)) PublishOption {
	return func(o *publishOptions) {
		if fn != nil {
			o.properties = append(o.properties, fn)
		}
	}
}

// Publish encodes msg and publishes it with routingKey. The delivery mode comes from the exchange,
// a message id and timestamp are set unless already present, and the body is compressed using
// the exchange compression.
func (p *Publisher[T]) Publish(ctx context.Context, routingKey string, msg T, opts ...PublishOption) error {
	var o publishOptions
	for _, opt := range opts {
		opt(&o)
	}

	b := NewPropertiesBuilder().
		SetDeliveryMode(p.exchange.DeliveryMode()).
		SetMessageID(uuid.NewString()).
		SetTimestamp(p.now().UTC())
	if p.appID != "" {
		b.SetAppID(p.appID)
	}
	for _, fn := range o.properties {
		fn(b)
	}

	body, err := EncodeMessage(p.converter, msg, b)
	if err != nil {
		return err
	}

	if c := p.exchange.Compression(); c != CompressionNone {
		if b.ContentEncoding() != "" {
			return NewConversionError("compress", b.ContentType(),
				fmt.Errorf("cannot apply %s compression to a body with content encoding %q", c, b.ContentEncoding()))
		}
		if body, err = Compress(c, body); err != nil {
			return NewConversionError("compress", b.ContentType(), err)
		}
		b.SetContentEncoding(c.ContentEncoding())
	}

	if p.declareOnPublish {
		if err = p.Declare(ctx); err != nil {
			return err
		}
	}

	return p.ch.Publish(ctx, p.exchange.Name(), routingKey, body, b.Build(), o.mandatory)
}
