package amqp

import (
	"io"
)

// Dialer returns a connection to a broker. Transports return dialers pre-configured with
// an address, credentials and the exchanges to declare on every channel.
type Dialer func() (Connection, error)

// Error a connection or channel close reported by the broker or client library.
type Error interface {
	// Code returns the AMQP reply code, e.g. 404 when an exchange does not exist
	Code() int
	// Reason returns the description of the error
	Reason() string
	// Recover returns true when this error can be recovered by retrying later or with different parameters
	Recover() bool
	// FromServer returns true when initiated from the server, false when from this library
	FromServer() bool
}

// Notifier an interface for types which omit events.
type Notifier interface {
	// NotifyClose triggers the supplied function when a close happens
	// this will be a graceful close only, i.e. triggered from the SDK
	// on a connection this will be triggered on both the connection and all the
	// channels
	// on a channel it will only trigger on the channel.
	NotifyClose(fn func())
	// NotifyReconnect triggers the supplied function when a reconnection
	// is successful.
	// on a connection this will be triggered on both the connection and all the
	// channels
	// on a channel it will only trigger on the channel.
	NotifyReconnect(fn func())
}

// Connection represents a message amqp compatible broker connection
// each broker implementation which handle (usually statically) which
// amqp protocol they implement.
//
// Only the parts of the AMQP protocol required to declare exchanges and queues, publish
// and consume are exposed.
type Connection interface {
	io.Closer
	Notifier

	// Channel attempts to create a new channel to perform actions against
	// typically it is one global connection, and then one channel per thread.
	Channel() (Channel, error)
	// IsClosed determines if the connection is closed.
	IsClosed() bool
}
