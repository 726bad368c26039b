package converter

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/jacklaaa89/amqp/v2"
)

// HeaderProtobufFullName the header carrying the full name of a protobuf message.
const HeaderProtobufFullName = "X-Protobuf-FullName"

// Protobuf converts protobuf messages of type T.
// T is expected to be a pointer to a generated message type.
type Protobuf[T proto.Message] struct{}

// Decode unmarshals body into a new T. The full name header, when present, must match T.
func (Protobuf[T]) Decode(body []byte, props amqp.Properties) (T, error) {
	var zero T
	msg := zero.ProtoReflect().Type().New().Interface().(T)
	name := string(msg.ProtoReflect().Descriptor().FullName())

	if props.ContentType != "" {
		mt, _, err := mediaType(props.ContentType)
		if err != nil {
			return zero, amqp.NewConversionError("decode", props.ContentType, err)
		}
		if mt != ContentTypeProtobuf {
			return zero, amqp.NewConversionError("decode", props.ContentType, fmt.Errorf("expected %s", ContentTypeProtobuf))
		}
	}
	if v, ok := props.Header(HeaderProtobufFullName); ok && fmt.Sprint(v) != name {
		return zero, amqp.NewConversionError("decode", props.ContentType, fmt.Errorf("expected message %s, got %v", name, v))
	}

	if err := proto.Unmarshal(body, msg); err != nil {
		return zero, amqp.NewConversionError("decode", props.ContentType, err)
	}
	return msg, nil
}

// Encode marshals msg, setting the protobuf content type and full name header.
func (Protobuf[T]) Encode(msg T, props *amqp.PropertiesBuilder) ([]byte, error) {
	b, err := proto.Marshal(msg)
	if err != nil {
		return nil, amqp.NewConversionError("encode", ContentTypeProtobuf, err)
	}
	props.SetContentType(ContentTypeProtobuf).
		SetHeader(HeaderProtobufFullName, string(msg.ProtoReflect().Descriptor().FullName()))
	return b, nil
}
