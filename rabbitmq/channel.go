package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rabbitmq/amqp091-go"

	"github.com/jacklaaa89/amqp/v2"
)

// signals sent to active consumes.
const (
	reconnection = iota // the channel was re-opened, consumes must restart.
)

// channel a reconnecting amqp091 channel.
//
// every (re)opened channel gets the topology of its connection declared before use.
type channel struct {
	mu       sync.RWMutex    // guards Channel, closed and consumerNotifications.
	reconnMu sync.Mutex      // serialises reconnects.
	omitMu   sync.RWMutex    // guards the event handlers.
	ctx      context.Context // bounds reconnect retries.
	conn     *connection     // opens replacement channels.

	closeOnce  sync.Once
	closes     []func()
	reconnects []func()

	// closed is only set by Close, a channel closed by the broker is reconnected instead.
	closed bool

	// consumerNotifications one signal channel per active consume, keyed by consumer name.
	// consumes register when they start and deregister when cancelled so a finished
	// consume never receives a reconnect signal.
	consumerNotifications map[string]chan int

	Channel amqp091Channel
}

var _ amqp.Channel = (*channel)(nil)

// QoS sets the prefetch count and size.
func (c *channel) QoS(ctx context.Context, count, size int64, global bool) error {
	return c.onChannel(ctx, func(ch amqp091Channel) error {
		return ch.Qos(int(count), int(size), global)
	})
}

// CreateQueue declares a queue.
func (c *channel) CreateQueue(ctx context.Context, name string, durable, autoDelete, exclusive bool) (amqp.Queue, error) {
	var q amqp091.Queue
	err := c.onChannel(ctx, func(ch amqp091Channel) error {
		var qErr error
		q, qErr = ch.QueueDeclare(name, durable, autoDelete, exclusive, false, nil)
		return qErr
	})
	return &queue{q, c}, err
}

// BindQueue binds queue to exchange using routingKey.
func (c *channel) BindQueue(ctx context.Context, queue, exchange, routingKey string) error {
	return c.onChannel(ctx, func(ch amqp091Channel) error {
		return ch.QueueBind(queue, routingKey, exchange, false, nil)
	})
}

// DeclareExchange declares exchange using the descriptor fields verbatim.
func (c *channel) DeclareExchange(ctx context.Context, exchange *amqp.Exchange) error {
	if exchange == nil {
		return fmt.Errorf("%w: exchange is required", amqp.ErrInvalidArgument)
	}

	return c.onChannel(ctx, func(ch amqp091Channel) error {
		return declare(ch, exchange)
	})
}

// Publish publishes body to exchange with routingKey.
// when neither a content type nor a content encoding is set, the content type is detected from the body.
func (c *channel) Publish(
	ctx context.Context,
	exchange, routingKey string,
	body []byte,
	props amqp.Properties,
	mandatory bool,
) error {
	if props.ContentType == "" && props.ContentEncoding == "" {
		props.ContentType = mimetype.Detect(body).String()
	}

	msg := publishing(body, props)
	return c.onChannel(ctx, func(ch amqp091Channel) error {
		return ch.PublishWithContext(ctx, exchange, routingKey, mandatory, false, msg)
	})
}

// declare declares e using the descriptor fields verbatim, as a non-internal exchange.
func declare(ch amqp091Channel, e *amqp.Exchange) error {
	var args amqp091.Table
	if e.Arguments().Len() > 0 {
		args = toTable(e.Arguments().Map())
	}
	return ch.ExchangeDeclare(e.Name(), e.Type().Name(), e.Durable(), e.AutoDelete(), false, false, args)
}

// NotifyClose registers fn, called once when the channel is closed for good.
func (c *channel) NotifyClose(fn func()) {
	if fn == nil {
		return
	}

	c.omitMu.Lock()
	defer c.omitMu.Unlock()
	c.closes = append(c.closes, fn)
}

// NotifyReconnect registers fn, called after every successful reconnect.
func (c *channel) NotifyReconnect(fn func()) {
	if fn == nil {
		return
	}

	c.omitMu.Lock()
	defer c.omitMu.Unlock()
	c.reconnects = append(c.reconnects, fn)
}

// Close stops every active consume and closes the raw channel.
// closing twice returns amqp091.ErrClosed.
func (c *channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return amqp091.ErrClosed
	}
	c.closed = true
	c.mu.Unlock()

	c.closeActiveConsumes()
	go c.closeOnce.Do(c.omitClose)
	return c.Channel.Close()
}

// IsClosed whether Close was called or the raw channel is down.
func (c *channel) IsClosed() bool {
	if c == nil {
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed || isClosed(c.Channel)
}

// Consume consumes from queue until ctx is done or cancel is called.
// unlike amqp091, the delivery channel stays open across reconnects.
func (c *channel) Consume(
	ctx context.Context,
	queue, consumerName string,
	autoAck, exclusive bool,
) (messages <-chan amqp.Message, cancel amqp.CancelFunc, err error) {
	out := make(chan amqp.Message)
	sub := subscription{queue: queue, consumer: consumerName, autoAck: autoAck, exclusive: exclusive}
	cancel, err = c.consume(ctx, sub, out)
	return out, cancel, err
}

// onChannel runs fn against the raw channel, reconnecting first when it is down.
func (c *channel) onChannel(ctx context.Context, fn func(ch amqp091Channel) error) error {
	if c.IsClosed() {
		if err := c.reconnect(); err != nil {
			return err
		}
	}

	c.mu.RLock()
	err := fn(c.Channel)
	c.mu.RUnlock()

	logError(ctx, err)
	return err
}

// reconnect replaces a raw channel closed by the broker.
// the replacement is opened through the connection, which reconnects itself first if needed.
func (c *channel) reconnect() error {
	c.reconnMu.Lock()
	defer c.reconnMu.Unlock()

	if !c.IsClosed() {
		return nil
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return amqp091.ErrClosed
	}

	err := backoff.Retry(func() error {
		raw, err := c.conn.rawChannel()
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.Channel = raw
		c.mu.Unlock()

		if err = c.init(); err != nil {
			logError(c.ctx, raw.Close())
			return err
		}
		return nil
	}, c.conn.retryPolicy())

	if err != nil {
		logError(c.ctx, c.Close())
		return err
	}

	amqp.Logger().Info().Str("transport", "rabbitmq").Msg("channel re-established")

	// neither may block the reconnect.
	go c.signalConsumers(reconnection)
	go c.omitReconnect()

	return nil
}

func (c *channel) omitReconnect() {
	c.omitMu.RLock()
	defer c.omitMu.RUnlock()
	for _, fn := range c.reconnects {
		fn()
	}
}

// omitClose runs once, after Close or a failed reconnect.
func (c *channel) omitClose() {
	c.omitMu.RLock()
	defer c.omitMu.RUnlock()
	for _, fn := range c.closes {
		fn()
	}
}

// emptyFunc the cancel function returned when a consume could not start.
var emptyFunc = func() {}

// subscription the parameters of a consume, re-used to restart it after a reconnect.
type subscription struct {
	queue     string
	consumer  string
	autoAck   bool
	exclusive bool
}

// consume starts a consume and forwards its deliveries to out until it is stopped.
// after a reconnect the consume is restarted on the new raw channel, writing to the same out.
func (c *channel) consume(ctx context.Context, sub subscription, out chan<- amqp.Message) (amqp.CancelFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	active, err := c.startConsume(ctx, sub)
	if err != nil {
		cancel()
		return emptyFunc, err
	}

	go func() {
		if !c.forward(ctx, sub, active, out) {
			logError(ctx, active.cancel())
			c.deregisterConsume(sub.consumer)
			cancel()
			close(out)
			return
		}

		logError(ctx, active.cancel())

		// the restarted consume is bound to the same ctx, so cancel still stops it.
		_, rErr := c.consume(ctx, sub, out)
		logError(ctx, rErr)
	}()

	return cancel, nil
}

// forward pushes deliveries of active to out. It returns true when the consume
// must be restarted after a reconnect, false when it is finished.
func (c *channel) forward(ctx context.Context, sub subscription, active *activeConsume, out chan<- amqp.Message) bool {
	signals := c.registerConsume(sub.consumer)
	deliveries := active.deliveries

	for {
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-signals:
			// a closed signal channel means the amqp channel was closed for good.
			return ok
		case d, ok := <-deliveries:
			if !ok {
				// amqp091 closes deliveries when the channel drops, wait for the reconnect signal.
				deliveries = nil
				continue
			}
			select {
			case out <- &message{ctx, d}:
			case <-ctx.Done():
				return false
			}
		}
	}
}

// activeConsume a consume running on the current raw channel.
type activeConsume struct {
	deliveries <-chan amqp091.Delivery
	cancel     func() error
}

// startConsume starts sub on the current raw channel.
func (c *channel) startConsume(ctx context.Context, sub subscription) (*activeConsume, error) {
	var deliveries <-chan amqp091.Delivery
	err := c.onChannel(ctx, func(ch amqp091Channel) error {
		var cErr error
		deliveries, cErr = ch.Consume(sub.queue, sub.consumer, sub.autoAck, sub.exclusive, false, false, nil)
		return cErr
	})

	if err != nil {
		return nil, err
	}

	return &activeConsume{
		deliveries: deliveries,
		cancel: func() error {
			return c.onChannel(ctx, func(ch amqp091Channel) error {
				return ch.Cancel(sub.consumer, false)
			})
		},
	}, nil
}

// init declares the topology and then listens for closes.
//
// the topology must be declared before NotifyClose: a refused declaration closes the channel
// and amqp091 blocks until every registered close listener has received the error.
func (c *channel) init() error {
	c.mu.Lock()
	if c.consumerNotifications == nil {
		c.consumerNotifications = make(map[string]chan int)
	}
	c.mu.Unlock()

	if err := c.declareTopology(); err != nil {
		return err
	}

	rcv := make(chan *amqp091.Error)
	err := c.onChannel(c.ctx, func(ch amqp091Channel) error {
		ch.NotifyClose(rcv)
		return nil
	})
	if err != nil {
		return err
	}

	go c.watch(rcv)
	return nil
}

// watch waits for the raw channel to close. A graceful close closes the channel
// and its consumes, any broker error triggers a reconnect.
func (c *channel) watch(rcv <-chan *amqp091.Error) {
	if e, ok := <-rcv; ok && e != nil {
		logError(c.ctx, c.reconnect())
		return
	}
	logError(c.ctx, c.Close())
}

// declareTopology declares the exchanges of the owning connection on the raw channel.
func (c *channel) declareTopology() error {
	for _, e := range c.conn.topology() {
		c.mu.RLock()
		err := declare(c.Channel, e)
		c.mu.RUnlock()

		if err != nil {
			return fmt.Errorf("declare exchange %q: %w", e.Name(), err)
		}
	}
	return nil
}

// registerConsume returns the signal channel of consumerName, creating it when absent.
func (c *channel) registerConsume(consumerName string) <-chan int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if signals, ok := c.consumerNotifications[consumerName]; ok {
		return signals
	}

	signals := make(chan int)
	c.consumerNotifications[consumerName] = signals
	return signals
}

// deregisterConsume removes and closes the signal channel of consumerName.
func (c *channel) deregisterConsume(consumerName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	signals, ok := c.consumerNotifications[consumerName]
	if !ok {
		return
	}

	delete(c.consumerNotifications, consumerName)
	close(signals)
}

// signalConsumers sends e to every active consume.
func (c *channel) signalConsumers(e int) {
	c.mu.RLock()
	signals := make([]chan int, 0, len(c.consumerNotifications))
	for _, s := range c.consumerNotifications {
		signals = append(signals, s)
	}
	c.mu.RUnlock()

	for _, s := range signals {
		s <- e
	}
}

// closeActiveConsumes closes every signal channel, which stops the consumes listening on them.
func (c *channel) closeActiveConsumes() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, signals := range c.consumerNotifications {
		close(signals)
	}
	c.consumerNotifications = make(map[string]chan int)
}
