package amqp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when an exchange or schema definition is missing a required value.
	// you can check for this error with errors.Is
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConversion is matched by every *ConversionError.
	ErrConversion = errors.New("message conversion failed")

	// ErrUndecodable is matched by every *UndecodableMessageError.
	ErrUndecodable = errors.New("undecodable message")

	// errAbsentMessage the cause used when a converter returns no message and no error.
	errAbsentMessage = errors.New("converter returned no message")
)

// ConversionError is returned when a converter fails to encode or decode a body.
type ConversionError struct {
	Op          string // "encode" or "decode"
	ContentType string // content type of the body, when known
	Err         error
}

// NewConversionError wraps err as a conversion failure of op.
func NewConversionError(op, contentType string, err error) *ConversionError {
	return &ConversionError{Op: op, ContentType: contentType, Err: err}
}

func (e *ConversionError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("amqp: %s %s: %v", e.Op, e.ContentType, e.Err)
	}
	return fmt.Sprintf("amqp: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConversionError) Unwrap() error { return e.Err }

// Is matches ErrConversion.
func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// UndecodableMessageError is returned by the consuming layer when a delivery could
// not be decoded. It holds the original body so the message can still be
// acknowledged, rejected, dead-lettered or logged.
type UndecodableMessageError struct {
	Body       []byte
	Properties Properties
	Envelope   Envelope
	Err        error
}

func (e *UndecodableMessageError) Error() string {
	return fmt.Sprintf(
		"amqp: undecodable message (delivery tag %d, exchange %q, routing key %q, %d bytes): %v",
		e.Envelope.DeliveryTag(), e.Envelope.Exchange(), e.Envelope.RoutingKey(), len(e.Body), e.Err,
	)
}

// Unwrap returns the underlying cause.
func (e *UndecodableMessageError) Unwrap() error { return e.Err }

// Is matches ErrUndecodable.
func (e *UndecodableMessageError) Is(target error) bool { return target == ErrUndecodable }
