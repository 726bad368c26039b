// Package amqp defines the exchange-addressing and message conversion core which sits on top of an AMQP transport.
//
// An Exchange describes how a logical message channel is declared to the broker (name, type, durability, lifecycle,
// delivery mode and the compression applied to published bodies). An Envelope carries the delivery metadata of an
// inbound message. A Converter turns raw payloads into typed application messages and back, reading and writing
// message Properties as it goes.
//
// The package also defines the generic transport interfaces (Connection, Channel, Queue and Message) which only have
// functions relating to operations expected by the AMQP protocol, so that a new broker type can be used once the
// bindings necessary to implement the interfaces have been made. Publisher and Consumer combine a Channel, an
// Exchange and a Converter into a typed publish/consume API.
//
// This package does not know or care about anything outside the AMQP realm, i.e. it does not know about any
// additional plugins or tools a broker may provide to aid in execution.
//
// The only current transport implementation is:
// - rabbitmq (github.com/jacklaaa89/amqp/v2/rabbitmq)
//
// Converters for common payload formats live in github.com/jacklaaa89/amqp/v2/converter.
package amqp
