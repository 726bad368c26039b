package converter

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/jacklaaa89/amqp/v2"
)

// Bytes passes bodies through untouched.
type Bytes struct{}

var _ amqp.Converter[[]byte] = Bytes{}

// Decode returns the body, an empty body decodes to an empty slice.
func (Bytes) Decode(body []byte, _ amqp.Properties) ([]byte, error) {
	if body == nil {
		return []byte{}, nil
	}
	return body, nil
}

// Encode returns msg, detecting the content type when none is set.
func (Bytes) Encode(msg []byte, props *amqp.PropertiesBuilder) ([]byte, error) {
	if props.ContentType() == "" {
		props.SetContentType(mimetype.Detect(msg).String())
	}
	return msg, nil
}
