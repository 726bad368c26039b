package rabbitmq

import (
	"context"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/jacklaaa89/amqp/v2"
)

// helper types exposed from the underlined SDK package.

type (
	Config         = amqp091.Config
	Authentication = amqp091.Authentication
	PlainAuth      = amqp091.PlainAuth
)

// amqp091ConnectionDialer a function which takes no arguments and returns a new amqp091 connection.
type amqp091ConnectionDialer = func() (amqp091Connection, error)

// Option configures a dialled connection.
type Option func(o *options)

type options struct {
	topology []*amqp.Exchange
	onError  amqp.ErrorNotificationFunc
	backoff  func(ctx context.Context) backoff.BackOff
}

// WithExchanges declares exchanges on every channel opened from the connection,
// including channels re-opened after a reconnect.
func WithExchanges(exchanges ...*amqp.Exchange) Option {
	return func(o *options) {
		for _, e := range exchanges {
			if e != nil {
				o.topology = append(o.topology, e)
			}
		}
	}
}

// WithSchema declares every exchange of s, in identifier order, see WithExchanges.
func WithSchema(s *amqp.Schema) Option {
	return func(o *options) {
		if s == nil {
			return
		}
		for _, id := range s.Identifiers() {
			e, err := s.Exchange(id)
			if err == nil {
				o.topology = append(o.topology, e)
			}
		}
	}
}

// WithErrorNotification calls fn with every error which closes the broker connection.
func WithErrorNotification(fn amqp.ErrorNotificationFunc) Option {
	return func(o *options) { o.onError = fn }
}

// WithBackoff replaces the retry policy used when re-establishing connections and channels.
func WithBackoff(fn func(ctx context.Context) backoff.BackOff) Option {
	return func(o *options) { o.backoff = fn }
}

// connection a reconnecting amqp091 connection.
//
// the topology supplied at dial time is declared on every channel the connection hands out.
type connection struct {
	mu       sync.RWMutex // guards Connection and closed.
	reconnMu sync.Mutex   // serialises reconnects.
	omitMu   sync.RWMutex // guards the event handlers.

	dialer amqp091ConnectionDialer // re-used to reconnect.
	ctx    context.Context         // bounds the lifetime of the connection.
	closed bool                    // set once Close is called.
	opts   options

	closeOnce  sync.Once
	closes     []func()
	reconnects []func()

	Connection amqp091Connection
}

// DialConfig returns a dialer for an amqp:// url using Config for authentication, vhost etc.
func DialConfig(ctx context.Context, addr string, c Config, opts ...Option) amqp.Dialer { //nolint // config has to be non-pointer to conform to amqp091.
	return func() (amqp.Connection, error) {
		return wrapDial(ctx, func() (amqp091Connection, error) {
			return dialConfig(addr, c)
		}, opts...)
	}
}

// Dial returns a dialer for an amqp:// url.
func Dial(ctx context.Context, addr string, opts ...Option) amqp.Dialer {
	return func() (amqp.Connection, error) {
		return wrapDial(ctx, func() (amqp091Connection, error) {
			return dial(addr)
		}, opts...)
	}
}

// wrapDial dials once and starts watching the connection for closes.
func wrapDial(ctx context.Context, dial amqp091ConnectionDialer, opts ...Option) (amqp.Connection, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := dial()
	if err != nil {
		return nil, err
	}
	c := &connection{
		Connection: conn,
		dialer:     dial,
		ctx:        ctx,
		opts:       o,
	}
	go c.background()
	return c, nil
}

// Channel opens a channel and declares the connection topology on it.
func (c *connection) Channel() (amqp.Channel, error) {
	ch, err := c.rawChannel()
	if err != nil {
		return nil, err
	}

	wc, err := c.newChannel(ch)
	if err != nil {
		return nil, err
	}
	return wc, nil
}

// newChannel wraps raw and declares the topology on it, raw is closed when that fails.
func (c *connection) newChannel(raw amqp091Channel) (*channel, error) {
	wc := &channel{Channel: raw, conn: c, ctx: c.ctx}
	if err := wc.init(); err != nil {
		logError(c.ctx, raw.Close())
		return nil, err
	}
	return wc, nil
}

// rawChannel opens an amqp091 channel, reconnecting first if required.
func (c *connection) rawChannel() (amqp091Channel, error) {
	var ch amqp091Channel
	err := c.onConnection(func(conn amqp091Connection) error {
		var cErr error
		ch, cErr = conn.Channel()
		return cErr
	})
	return ch, err
}

// topology the exchanges declared on every channel.
func (c *connection) topology() []*amqp.Exchange {
	if c == nil {
		return nil
	}
	return c.opts.topology
}

// retryPolicy the backoff used for reconnects.
func (c *connection) retryPolicy() backoff.BackOff {
	if c.opts.backoff != nil {
		return c.opts.backoff(c.ctx)
	}
	return newBackoff(c.ctx)
}

// NotifyClose registers a handler to be triggered on a close.
func (c *connection) NotifyClose(fn func()) {
	c.omitMu.Lock()
	defer c.omitMu.Unlock()
	if fn == nil {
		return
	}

	c.closes = append(c.closes, fn)
}

// NotifyReconnect registers a handler to be triggered on a successful reconnect.
func (c *connection) NotifyReconnect(fn func()) {
	c.omitMu.Lock()
	defer c.omitMu.Unlock()
	if fn == nil {
		return
	}

	c.reconnects = append(c.reconnects, fn)
}

func (c *connection) omitReconnect() {
	c.omitMu.RLock()
	defer c.omitMu.RUnlock()
	for _, fn := range c.reconnects {
		fn()
	}
}

func (c *connection) omitClose() {
	c.omitMu.RLock()
	defer c.omitMu.RUnlock()
	for _, fn := range c.closes {
		fn()
	}
}

// Close closes the broker connection, close handlers are triggered once.
func (c *connection) Close() error {
	if c.IsClosed() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	go c.closeOnce.Do(c.omitClose)
	return c.Connection.Close()
}

// IsClosed whether the connection was closed, or the broker connection is down.
func (c *connection) IsClosed() bool {
	if c == nil {
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return true
	}

	return isClosed(c.Connection)
}

// onConnection runs fn against the broker connection, reconnecting first when it is down.
func (c *connection) onConnection(fn func(conn amqp091Connection) error) error {
	if c.IsClosed() {
		if err := c.reconnect(); err != nil {
			return err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.Connection)
}

// reconnect re-dials a connection which went down without Close being called.
func (c *connection) reconnect() error {
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
		conn, err := c.dialer()
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.Connection = conn
		c.mu.Unlock()
		return nil
	}, c.retryPolicy())

	if err != nil {
		logError(c.ctx, c.Close())
		return err
	}

	amqp.Logger().Info().Str("transport", "rabbitmq").Msg("connection re-established")

	go c.background()
	go c.omitReconnect()
	return nil
}

// background blocks until the broker connection closes or ctx is done, then either
// closes the connection or reconnects.
// it cannot run inside onConnection as it would hold the read lock while blocking.
func (c *connection) background() {
	ch := make(chan *amqp091.Error)
	err := c.onConnection(func(conn amqp091Connection) error {
		conn.NotifyClose(ch)
		if c.opts.onError != nil {
			handleNotifyError(conn, c.opts.onError)
		}
		return nil
	})

	if err != nil {
		logError(c.ctx, err)
		return
	}

	select {
	case <-c.ctx.Done():
		logError(c.ctx, c.Close())
		return
	case e, ok := <-ch:
		if !ok || e == nil {
			logError(c.ctx, c.Close())
			return
		}
		amqp.Logger().Warn().
			Str("transport", "rabbitmq").
			Int("code", e.Code).
			Str("reason", e.Reason).
			Bool("recover", e.Recover).
			Msg("connection closed by broker, reconnecting")
		if rErr := c.reconnect(); rErr != nil {
			logError(c.ctx, rErr)
		}
	}
}
