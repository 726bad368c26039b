package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, routingKey string
	body                 []byte
	props                Properties
	mandatory            bool
}

func TestNewPublisher_Validation(t *testing.T) {
	ch := &mockChannel{h: newDefaultChannelHandlers()}
	ex := MustExchange("events", ExchangeTypeTopic, true, false)

	_, err := NewPublisher[*counter](nil, ex, counterConverter)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewPublisher[*counter](ch, nil, counterConverter)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewPublisher[*counter](ch, ex, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPublisher_Publish(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tt := []struct {
		Name     string
		Exchange *Exchange
		Options  []PublisherOption
		Publish  []PublishOption
		Setup    func(h *mockChannelHandlers)
		Expected func(t *testing.T, p *published, declared int, err error)
	}{
		{
			Name:     "Valid",
			Exchange: MustExchange("events", ExchangeTypeTopic, true, false),
			Options:  []PublisherOption{WithAppID("zenhub")},
			Publish:  []PublishOption{WithHeaders(Table{"x-origin": "test"}), WithMandatory(true)},
			Expected: func(t *testing.T, p *published, declared int, err error) {
				require.NoError(t, err)
				assert.Zero(t, declared)
				assert.Equal(t, "events", p.exchange)
				assert.Equal(t, "zenoss.events.raw", p.routingKey)
				assert.True(t, p.mandatory)
				assert.Equal(t, []byte("42"), p.body)
				assert.Equal(t, "text/plain", p.props.ContentType)
				assert.Empty(t, p.props.ContentEncoding)
				assert.Equal(t, Persistent, p.props.DeliveryMode)
				assert.Equal(t, now, p.props.Timestamp)
				assert.Equal(t, "zenhub", p.props.AppID)
				_, uErr := uuid.Parse(p.props.MessageID)
				assert.NoError(t, uErr)
				v, _ := p.props.HeaderString("x-origin")
				assert.Equal(t, "test", v)
			},
		},
		{
			Name:     "NonPersistentDeflate",
			Exchange: MustExchange("perf", ExchangeTypeFanout, false, true, WithDeliveryMode(NonPersistent), WithCompression(CompressionDeflate)),
			Expected: func(t *testing.T, p *published, _ int, err error) {
				require.NoError(t, err)
				assert.Equal(t, NonPersistent, p.props.DeliveryMode)
				assert.Equal(t, "deflate", p.props.ContentEncoding)

				body, dErr := Decompress(p.props.ContentEncoding, p.body)
				require.NoError(t, dErr)
				assert.Equal(t, []byte("42"), body)
			},
		},
		{
			Name:     "OverridesProperties",
			Exchange: MustExchange("events", ExchangeTypeDirect, true, false),
			Publish: []PublishOption{WithProperties(func(b *PropertiesBuilder) {
				b.SetMessageID("fixed").SetCorrelationID("corr")
			})},
			Expected: func(t *testing.T, p *published, _ int, err error) {
				require.NoError(t, err)
				assert.Equal(t, "fixed", p.props.MessageID)
				assert.Equal(t, "corr", p.props.CorrelationID)
			},
		},
		{
			Name:     "DeclareOnPublish",
			Exchange: MustExchange("events", ExchangeTypeTopic, true, false),
			Options:  []PublisherOption{WithDeclareOnPublish(true)},
			Expected: func(t *testing.T, p *published, declared int, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, declared)
				assert.NotNil(t, p)
			},
		},
		{
			Name:     "ErrFromDeclare",
			Exchange: MustExchange("events", ExchangeTypeTopic, true, false),
			Options:  []PublisherOption{WithDeclareOnPublish(true)},
			Setup: func(h *mockChannelHandlers) {
				h.DeclareExchange = func(_ *Exchange) error { return errors.New("access refused") }
			},
			Expected: func(t *testing.T, p *published, _ int, err error) {
				assert.Error(t, err)
				assert.Nil(t, p)
			},
		},
		{
			Name:     "ErrFromTransport",
			Exchange: MustExchange("events", ExchangeTypeTopic, true, false),
			Setup: func(h *mockChannelHandlers) {
				h.Publish = func(_, _ string, _ []byte, _ Properties, _ bool) error {
					return errors.New("channel closed")
				}
			},
			Expected: func(t *testing.T, _ *published, _ int, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			var (
				p        *published
				declared int
			)
			h := newDefaultChannelHandlers()
			h.DeclareExchange = func(e *Exchange) error {
				assert.Same(t, tc.Exchange, e)
				declared++
				return nil
			}
			h.Publish = func(exchange, routingKey string, body []byte, props Properties, mandatory bool) error {
				p = &published{exchange, routingKey, body, props, mandatory}
				return nil
			}
			if tc.Setup != nil {
				tc.Setup(&h)
			}

			pub, err := NewPublisher[*counter](&mockChannel{h: h}, tc.Exchange, counterConverter, tc.Options...)
			require.NoError(t, err)
			pub.now = func() time.Time { return now }

			err = pub.Publish(context.Background(), "zenoss.events.raw", &counter{N: 42}, tc.Publish...)
			tc.Expected(t, p, declared, err)
		})
	}
}

func TestPublisher_EncodeFailureIsNotPublished(t *testing.T) {
	h := newDefaultChannelHandlers()
	h.Publish = func(_, _ string, _ []byte, _ Properties, _ bool) error {
		panic("should not be called")
	}

	pub, err := NewPublisher[*counter](&mockChannel{h: h}, MustExchange("events", ExchangeTypeTopic, true, false), counterConverter)
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "key", nil)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestPublisher_Declare(t *testing.T) {
	ex := MustExchange("events", ExchangeTypeTopic, true, false)
	var got *Exchange
	h := newDefaultChannelHandlers()
	h.DeclareExchange = func(e *Exchange) error {
		got = e
		return nil
	}

	pub, err := NewPublisher[*counter](&mockChannel{h: h}, ex, counterConverter)
	require.NoError(t, err)
	require.NoError(t, pub.Declare(context.Background()))
	assert.Same(t, ex, got)
	assert.Same(t, ex, pub.Exchange())
}

func TestPublisher_CompressionConflict(t *testing.T) {
	h := newDefaultChannelHandlers()
	h.Publish = func(_, _ string, _ []byte, _ Properties, _ bool) error {
		panic("should not be called")
	}

	gzipped := ConverterFuncs[*counter]{
		EncodeFunc: func(msg *counter, props *PropertiesBuilder) ([]byte, error) {
			props.SetContentType("text/plain").SetContentEncoding("gzip")
			return []byte("already compressed"), nil
		},
	}
	ex := MustExchange("events", ExchangeTypeTopic, true, false, WithCompression(CompressionDeflate))
	pub, err := NewPublisher[*counter](&mockChannel{h: h}, ex, gzipped)
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "key", &counter{N: 1})
	assert.ErrorIs(t, err, ErrConversion)

	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "compress", ce.Op)
	assert.Equal(t, "text/plain", ce.ContentType)
}
