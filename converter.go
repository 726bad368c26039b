package amqp

import (
	"fmt"
	"reflect"
)

// Converter converts a message to and from its raw body.
//
// a single converter is shared between every publisher and consumer using it, so
// implementations must not hold per-call mutable state.
type Converter[T any] interface {
	// Decode converts a raw body and its properties to a message.
	// callers treat an error or an absent result (a nil pointer, map, slice or interface)
	// as an undecodable message, see DecodeMessage.
	Decode(body []byte, props Properties) (T, error)
	// Encode converts a message to its raw body, writing any derived metadata (content type,
	// headers etc.) to props.
	Encode(msg T, props *PropertiesBuilder) ([]byte, error)
}

// ConverterFuncs adapts a pair of functions to a Converter.
type ConverterFuncs[T any] struct {
	DecodeFunc func(body []byte, props Properties) (T, error)
	EncodeFunc func(msg T, props *PropertiesBuilder) ([]byte, error)
}

// Decode calls DecodeFunc.
func (c ConverterFuncs[T]) Decode(body []byte, props Properties) (T, error) {
	return c.DecodeFunc(body, props)
}

// Encode calls EncodeFunc.
func (c ConverterFuncs[T]) Encode(msg T, props *PropertiesBuilder) ([]byte, error) {
	return c.EncodeFunc(msg, props)
}

// DecodeMessage decodes body using c. Any failure, including a panic in the converter or an
// absent result, is returned as an *UndecodableMessageError which holds body, props and env
// unchanged.
func DecodeMessage[T any](c Converter[T], body []byte, props Properties, env Envelope) (msg T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			msg = zero
			err = &UndecodableMessageError{
				Body:       body,
				Properties: props,
				Envelope:   env,
				Err:        NewConversionError("decode", props.ContentType, fmt.Errorf("converter panic: %v", r)),
			}
		}
	}()

	msg, err = c.Decode(body, props)
	if err == nil && isAbsent(msg) {
		err = errAbsentMessage
	}
	if err != nil {
		var zero T
		return zero, &UndecodableMessageError{Body: body, Properties: props, Envelope: env, Err: err}
	}
	return msg, nil
}

// EncodeMessage encodes msg using c, failures are returned as a *ConversionError.
func EncodeMessage[T any](c Converter[T], msg T, props *PropertiesBuilder) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			body = nil
			err = NewConversionError("encode", props.ContentType(), fmt.Errorf("converter panic: %v", r))
		}
	}()

	body, err = c.Encode(msg, props)
	if err != nil {
		if _, ok := err.(*ConversionError); ok {
			return nil, err
		}
		return nil, NewConversionError("encode", props.ContentType(), err)
	}
	return body, nil
}

// isAbsent whether v is a nil value of a nillable kind.
func isAbsent(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
