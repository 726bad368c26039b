package converter

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/jacklaaa89/amqp/v2"
)

var (
	json       = jsoniter.ConfigCompatibleWithStandardLibrary
	strictJSON = jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		DisallowUnknownFields:  true,
	}.Froze()
)

var errEmptyBody = errors.New("empty body")

// JSON converts bodies to and from T using JSON.
type JSON[T any] struct {
	// DisallowUnknownFields rejects bodies with fields T does not define.
	DisallowUnknownFields bool
}

// Decode unmarshals body into a T. Bodies declaring a non JSON content type are rejected.
func (c JSON[T]) Decode(body []byte, props amqp.Properties) (T, error) {
	var v T
	if !isJSON(props.ContentType) {
		return v, amqp.NewConversionError("decode", props.ContentType, fmt.Errorf("expected %s", ContentTypeJSON))
	}
	if len(body) == 0 {
		return v, amqp.NewConversionError("decode", props.ContentType, errEmptyBody)
	}

	if err := c.unmarshal(body, &v); err != nil {
		var zero T
		return zero, amqp.NewConversionError("decode", props.ContentType, err)
	}
	return v, nil
}

// Encode marshals msg, setting an application/json content type.
func (c JSON[T]) Encode(msg T, props *amqp.PropertiesBuilder) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, amqp.NewConversionError("encode", ContentTypeJSON, err)
	}
	props.SetContentType(ContentTypeJSON)
	return b, nil
}

func (c JSON[T]) unmarshal(body []byte, v any) error {
	if c.DisallowUnknownFields {
		return strictJSON.Unmarshal(body, v)
	}
	return json.Unmarshal(body, v)
}
