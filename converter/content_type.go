package converter

import (
	"fmt"
	"mime"
	"strings"
)

// Content types set by the converters in this package.
const (
	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"
	ContentTypeText     = "text/plain; charset=utf-8"
)

// mediaType returns the lower-cased media type of a content type header, without parameters.
func mediaType(contentType string) (string, map[string]string, error) {
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", nil, fmt.Errorf("invalid content type %q: %w", contentType, err)
	}
	return strings.ToLower(mt), params, nil
}

// isJSON whether contentType is empty or names a JSON media type.
func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mediaType(contentType)
	if err != nil {
		return false
	}
	return mt == ContentTypeJSON || strings.HasSuffix(mt, "+json")
}
