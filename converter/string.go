package converter

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jacklaaa89/amqp/v2"
)

// String converts UTF-8 text bodies.
type String struct{}

var _ amqp.Converter[string] = String{}

// Decode returns the body as a string, bodies which are not valid UTF-8 or which declare
// a charset other than UTF-8 are rejected.
func (String) Decode(body []byte, props amqp.Properties) (string, error) {
	if props.ContentType != "" {
		_, params, err := mediaType(props.ContentType)
		if err != nil {
			return "", amqp.NewConversionError("decode", props.ContentType, err)
		}
		if cs, ok := params["charset"]; ok && !strings.EqualFold(cs, "utf-8") && !strings.EqualFold(cs, "us-ascii") {
			return "", amqp.NewConversionError("decode", props.ContentType, errors.New("unsupported charset "+cs))
		}
	}
	if !utf8.Valid(body) {
		return "", amqp.NewConversionError("decode", props.ContentType, errors.New("body is not valid utf-8"))
	}
	return string(body), nil
}

// Encode returns msg as bytes with a text/plain content type.
func (String) Encode(msg string, props *amqp.PropertiesBuilder) ([]byte, error) {
	props.SetContentType(ContentTypeText)
	return []byte(msg), nil
}
