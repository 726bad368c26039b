package amqp

import "time"

// Table a set of message headers, see amqp091.Table for supported value types.
type Table map[string]any

// clone returns a copy of t, nil stays nil.
func (t Table) clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Properties the read side of the metadata attached to a message.
type Properties struct {
	ContentType     string       // MIME content type
	ContentEncoding string       // MIME content encoding
	Headers         Table        // application or headers exchange table
	DeliveryMode    DeliveryMode // persistent or non-persistent
	Priority        uint8        // 0 to 9
	CorrelationID   string       // application use - correlation identifier
	ReplyTo         string       // application use - address to reply to
	Expiration      string       // implementation use - message expiration spec
	MessageID       string       // application use - message identifier
	Timestamp       time.Time    // application use - message timestamp
	Type            string       // application use - message type name
	UserID          string       // creating user
	AppID           string       // creating application id
}

// Header returns the header stored under key.
func (p Properties) Header(key string) (any, bool) {
	v, ok := p.Headers[key]
	return v, ok
}

// HeaderString returns the header stored under key when it is a string.
func (p Properties) HeaderString(key string) (string, bool) {
	v, ok := p.Headers[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Builder opens a builder seeded with a copy of p.
func (p Properties) Builder() *PropertiesBuilder {
	p.Headers = p.Headers.clone()
	return &PropertiesBuilder{p: p}
}

// PropertiesBuilder the write side of message metadata, handed to Converter.Encode so
// a converter can set transport level properties such as the content type.
//
// a builder is not safe for concurrent use, one is created per publish.
type PropertiesBuilder struct {
	p Properties
}

// NewPropertiesBuilder returns an empty builder.
func NewPropertiesBuilder() *PropertiesBuilder {
	return &PropertiesBuilder{}
}

// SetContentType sets the MIME content type.
func (b *PropertiesBuilder) SetContentType(v string) *PropertiesBuilder {
	b.p.ContentType = v
	return b
}

// SetContentEncoding sets the MIME content encoding.
func (b *PropertiesBuilder) SetContentEncoding(v string) *PropertiesBuilder {
	b.p.ContentEncoding = v
	return b
}

// SetHeader sets a single header.
func (b *PropertiesBuilder) SetHeader(key string, v any) *PropertiesBuilder {
	if b.p.Headers == nil {
		b.p.Headers = make(Table)
	}
	b.p.Headers[key] = v
	return b
}

// SetHeaders merges headers into the builder.
func (b *PropertiesBuilder) SetHeaders(headers Table) *PropertiesBuilder {
	for k, v := range headers {
		b.SetHeader(k, v)
	}
	return b
}

// SetDeliveryMode sets the delivery mode.
func (b *PropertiesBuilder) SetDeliveryMode(v DeliveryMode) *PropertiesBuilder {
	b.p.DeliveryMode = v
	return b
}

// SetPriority sets the priority.
func (b *PropertiesBuilder) SetPriority(v uint8) *PropertiesBuilder {
	b.p.Priority = v
	return b
}

// SetCorrelationID sets the correlation identifier.
func (b *PropertiesBuilder) SetCorrelationID(v string) *PropertiesBuilder {
	b.p.CorrelationID = v
	return b
}

// SetReplyTo sets the reply address.
func (b *PropertiesBuilder) SetReplyTo(v string) *PropertiesBuilder {
	b.p.ReplyTo = v
	return b
}

// SetExpiration sets the expiration spec.
func (b *PropertiesBuilder) SetExpiration(v string) *PropertiesBuilder {
	b.p.Expiration = v
	return b
}

// SetMessageID sets the message identifier.
func (b *PropertiesBuilder) SetMessageID(v string) *PropertiesBuilder {
	b.p.MessageID = v
	return b
}

// SetTimestamp sets the message timestamp.
func (b *PropertiesBuilder) SetTimestamp(v time.Time) *PropertiesBuilder {
	b.p.Timestamp = v
	return b
}

// SetType sets the message type name.
func (b *PropertiesBuilder) SetType(v string) *PropertiesBuilder {
	b.p.Type = v
	return b
}

// SetUserID sets the creating user.
func (b *PropertiesBuilder) SetUserID(v string) *PropertiesBuilder {
	b.p.UserID = v
	return b
}

// SetAppID sets the creating application.
func (b *PropertiesBuilder) SetAppID(v string) *PropertiesBuilder {
	b.p.AppID = v
	return b
}

// ContentType returns the content type set so far.
func (b *PropertiesBuilder) ContentType() string { return b.p.ContentType }

// ContentEncoding returns the content encoding set so far.
func (b *PropertiesBuilder) ContentEncoding() string { return b.p.ContentEncoding }

// MessageID returns the message id set so far.
func (b *PropertiesBuilder) MessageID() string { return b.p.MessageID }

// Type returns the message type name set so far.
func (b *PropertiesBuilder) Type() string { return b.p.Type }

// Header returns a header set so far.
func (b *PropertiesBuilder) Header(key string) (any, bool) {
	return b.p.Header(key)
}

// Build returns the properties, later changes to the builder do not affect the result.
func (b *PropertiesBuilder) Build() Properties {
	p := b.p
	p.Headers = p.Headers.clone()
	return p
}
