//go:build integration

package rabbitmq

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	rh "github.com/michaelklishin/rabbit-hole/v2"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacklaaa89/amqp/v2"
)

// forceConnectionClose this will close ALL connections
// on the connected rabbit-mq instance.
//
// not intended for use on production instances.
func forceConnectionClose(t *testing.T) {
	m, err := rh.NewClient(managementURLFromEnv(), "guest", "guest")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// keep going until at least a single connection is closed or a timeout happens
forever:
	for {
		select {
		case <-ctx.Done():
			t.Fatalf("timeout attempting to force connection close")
		default:
			conns, lErr := m.ListConnections()
			require.NoError(t, lErr)

			for _, conn := range conns {
				if conn.Vhost != vHost {
					continue
				}
				_, rErr := m.CloseConnection(conn.Name)
				require.NoError(t, rErr)
				break forever
			}
		}
	}
}

// integrationChannel dials the integration v-host and opens a channel.
func integrationChannel(t *testing.T) (amqp.Connection, amqp.Channel) {
	dialer := DialConfig(context.Background(), integrationURLFromEnv(), Config{
		SASL: []amqp091.Authentication{
			&PlainAuth{
				Username: "guest",
				Password: "guest",
			},
		},
		Vhost: vHost,
	})

	conn, err := dialer()
	require.NoError(t, err)

	ch, err := conn.Channel()
	require.NoError(t, err)
	return conn, ch
}

var counterConverter = amqp.ConverterFuncs[int64]{
	DecodeFunc: func(body []byte, _ amqp.Properties) (int64, error) {
		return strconv.ParseInt(string(body), 10, 64)
	},
	EncodeFunc: func(msg int64, props *amqp.PropertiesBuilder) ([]byte, error) {
		props.SetContentType("text/plain")
		return []byte(strconv.FormatInt(msg, 10)), nil
	},
}

func TestChannel_DeclareExchange_Integration(t *testing.T) {
	setup(t)
	defer teardown(t)

	conn, ch := integrationChannel(t)
	defer conn.Close()

	ex := amqp.MustExchange("test-events", amqp.ExchangeTypeTopic, true, false,
		amqp.WithArguments(map[string]any{"alternate-exchange": "test-unrouted"}))
	require.NoError(t, ch.DeclareExchange(context.Background(), ex))

	m, err := rh.NewClient(managementURLFromEnv(), "guest", "guest")
	require.NoError(t, err)

	info, err := m.GetExchange(vHost, "test-events")
	require.NoError(t, err)
	assert.Equal(t, "topic", info.Type)
	assert.True(t, info.Durable)
	assert.False(t, info.AutoDelete)
	assert.Equal(t, "test-unrouted", info.Arguments["alternate-exchange"])
}

func TestPublisherConsumer_Integration(t *testing.T) {
	setup(t)
	defer teardown(t)

	conn, ch := integrationChannel(t)
	defer conn.Close()

	ex := amqp.MustExchange("test-counters", amqp.ExchangeTypeDirect, false, true,
		amqp.WithCompression(amqp.CompressionDeflate))

	p, err := amqp.NewPublisher[int64](ch, ex, counterConverter, amqp.WithDeclareOnPublish(true))
	require.NoError(t, err)
	require.NoError(t, p.Declare(context.Background()))

	q, err := ch.CreateQueue(context.Background(), "test-counters", false, true, false)
	require.NoError(t, err)
	require.NoError(t, q.Bind(context.Background(), ex.Name(), "count"))

	c, err := amqp.NewConsumer[int64](ch, counterConverter)
	require.NoError(t, err)
	d, cancel, err := c.Consume(context.Background(), q.Name(), "test-consumer", false)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, p.Publish(context.Background(), "count", 42))

	select {
	case msg := <-d:
		require.NoError(t, msg.Err)
		assert.Equal(t, int64(42), msg.Message)
		assert.Equal(t, "deflate", msg.Properties.ContentEncoding)
		assert.Equal(t, "test-counters", msg.Envelope.Exchange())
		assert.NoError(t, msg.Ack())
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for delivery")
	}
}

func TestChannel_Reconnection_Integration(t *testing.T) {
	setup(t)
	defer teardown(t)

	conn, ch := integrationChannel(t)

	// listen to reconnects on the channel.
	var reconnected int64
	ch.NotifyReconnect(func() {
		atomic.StoreInt64(&reconnected, 1)
	})

	// create a new queue for testing.
	q, err := ch.CreateQueue(context.Background(), "test-queue", true, false, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)

	// start two go-routines which continuously publish and consume from a queue
	// the publish will continuously send the reconnection state.
	go func() {
		for {
			time.Sleep(time.Second) // add some jitter.

			b := []byte(strconv.FormatInt(atomic.LoadInt64(&reconnected), 10))
			_ = ch.Publish(context.Background(), "", "test-queue", b, amqp.Properties{}, false)
		}
	}()

	// and the consume will stop consuming once we have received that we have reconnected once
	// this proves that:
	// a: the `d` chan did not close mid reconnect
	// b: we are still able to consume after a reconnection has occurred
	// c: the notification omitter for reconnections has worked to tell use we have reconnected
	go func() {
		defer wg.Done()
		d, cancel, cErr := q.Consume(context.Background(), "test-consumer", true, false)
		require.NoError(t, cErr)
		defer cancel()

		for msg := range d {
			body, pErr := counterConverter.Decode(msg.Body(), msg.Properties())
			require.NoError(t, pErr)
			if body > 0 {
				break
			}
		}
	}()

	// allow normal operation for a small amount of time.
	time.Sleep(2 * time.Second)

	// use the management API to force a connection close which is
	// outside of the control of this library.
	forceConnectionClose(t)

	// wait for the the consume to receive the message that we
	// reconnected.
	wg.Wait()

	// assert one reconnection occurred.
	assert.Equal(t, int64(1), atomic.LoadInt64(&reconnected))

	// clean-up connection.
	conn.Close()
}
