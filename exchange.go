package amqp

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ExchangeType represents a type of exchange.
type ExchangeType string

const (
	// ExchangeTypeDirect represents a direct exchange
	// this is where a message is posted to bound queues where the routing key matches exactly.
	ExchangeTypeDirect ExchangeType = "direct"
	// ExchangeTypeFanout represents a fanout exchange
	// this is where the routing key is ignored and all bound queues receive a copy of the message.
	ExchangeTypeFanout ExchangeType = "fanout"
	// ExchangeTypeTopic represents a topic exchange
	// this extends on top of a direct exchange by allowing the routing key to be pattern based rather
	// than having to match exactly.
	ExchangeTypeTopic ExchangeType = "topic"
	// ExchangeTypeHeaders represents a headers exchange
	// this is where one or more headers are used to route the message
	ExchangeTypeHeaders ExchangeType = "headers"
)

// exchangeTypes every defined exchange type in declaration order.
var exchangeTypes = []ExchangeType{
	ExchangeTypeDirect,
	ExchangeTypeFanout,
	ExchangeTypeTopic,
	ExchangeTypeHeaders,
}

// exchangeTypesByName lookup table built once from exchangeTypes.
var exchangeTypesByName = func() map[string]ExchangeType {
	m := make(map[string]ExchangeType, len(exchangeTypes))
	for _, t := range exchangeTypes {
		if _, ok := m[t.Name()]; ok {
			panic("amqp: duplicate exchange type name " + t.Name())
		}
		m[t.Name()] = t
	}
	return m
}()

// Name returns the exchange type's name as it is passed over the AMQP transport.
func (t ExchangeType) Name() string { return string(t) }

// Valid whether t is one of the defined exchange types.
func (t ExchangeType) Valid() bool {
	_, ok := ExchangeTypeFromName(t.Name())
	return ok
}

// ExchangeTypeFromName returns the exchange type with the supplied name, ok is false
// when the name does not match a defined type.
func ExchangeTypeFromName(name string) (typ ExchangeType, ok bool) {
	typ, ok = exchangeTypesByName[name]
	return typ, ok
}

// ExchangeTypes returns every defined exchange type.
func ExchangeTypes() []ExchangeType {
	out := make([]ExchangeType, len(exchangeTypes))
	copy(out, exchangeTypes)
	return out
}

// Compression the compression applied to message bodies published through an exchange.
type Compression int

const (
	// CompressionNone bodies are published as-is.
	CompressionNone Compression = iota
	// CompressionDeflate bodies are deflated and published with a "deflate" content encoding.
	CompressionDeflate
)

// String returns the upper-case name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "NONE"
	case CompressionDeflate:
		return "DEFLATE"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// ContentEncoding returns the content encoding marker for the compression, empty for none.
func (c Compression) ContentEncoding() string {
	if c == CompressionDeflate {
		return contentEncodingDeflate
	}
	return ""
}

// CompressionFromName parses "NONE" or "DEFLATE" (case insensitive), an empty name is CompressionNone.
func CompressionFromName(name string) (Compression, bool) {
	switch strings.ToUpper(name) {
	case "", "NONE":
		return CompressionNone, true
	case "DEFLATE":
		return CompressionDeflate, true
	}
	return CompressionNone, false
}

// DeliveryMode whether a published message is persisted by the broker.
type DeliveryMode int

const (
	// Persistent messages survive a broker restart.
	Persistent DeliveryMode = iota
	// NonPersistent messages are held in memory only.
	NonPersistent
)

// AMQP delivery-mode property values.
const (
	deliveryModeTransient  uint8 = 1
	deliveryModePersistent uint8 = 2
)

// Value returns the AMQP delivery-mode property value.
func (d DeliveryMode) Value() uint8 {
	if d == NonPersistent {
		return deliveryModeTransient
	}
	return deliveryModePersistent
}

// String returns the upper-case name of the delivery mode.
func (d DeliveryMode) String() string {
	if d == NonPersistent {
		return "NON_PERSISTENT"
	}
	return "PERSISTENT"
}

// DeliveryModeFromValue converts an AMQP delivery-mode property value, only 1 is non persistent.
func DeliveryModeFromValue(v uint8) DeliveryMode {
	if v == deliveryModeTransient {
		return NonPersistent
	}
	return Persistent
}

// DeliveryModeFromName parses "PERSISTENT" or "NON_PERSISTENT" (case insensitive), an empty name is Persistent.
func DeliveryModeFromName(name string) (DeliveryMode, bool) {
	switch strings.ToUpper(name) {
	case "", "PERSISTENT":
		return Persistent, true
	case "NON_PERSISTENT", "NON-PERSISTENT", "NONPERSISTENT", "TRANSIENT":
		return NonPersistent, true
	}
	return Persistent, false
}

// Arguments a read-only set of exchange declaration arguments.
// the zero value is the empty set.
type Arguments struct {
	m map[string]any
}

// newArguments copies src, nil and empty maps collapse to the empty set.
func newArguments(src map[string]any) Arguments {
	if len(src) == 0 {
		return Arguments{}
	}
	m := make(map[string]any, len(src))
	for k, v := range src {
		m[k] = v
	}
	return Arguments{m: m}
}

// Len returns the amount of arguments.
func (a Arguments) Len() int { return len(a.m) }

// Get returns the argument stored under key.
func (a Arguments) Get(key string) (any, bool) {
	v, ok := a.m[key]
	return v, ok
}

// Keys returns the argument keys in sorted order.
func (a Arguments) Keys() []string {
	keys := make([]string, 0, len(a.m))
	for k := range a.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for each argument in key order until fn returns false.
func (a Arguments) Range(fn func(key string, value any) bool) {
	for _, k := range a.Keys() {
		if !fn(k, a.m[k]) {
			return
		}
	}
}

// Map returns a copy of the arguments, it is never nil.
func (a Arguments) Map() map[string]any {
	m := make(map[string]any, len(a.m))
	for k, v := range a.m {
		m[k] = v
	}
	return m
}

// Equal whether both sets hold the same keys with deeply equal values.
func (a Arguments) Equal(o Arguments) bool {
	if len(a.m) != len(o.m) {
		return false
	}
	for k, v := range a.m {
		ov, ok := o.m[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// String renders the arguments as {k=v, ...} in key order.
func (a Arguments) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range a.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", k, a.m[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

// Exchange describes how an exchange is declared to the broker and how messages
// published through it are delivered. An Exchange is immutable and safe to share.
type Exchange struct {
	name         string
	typ          ExchangeType
	durable      bool
	autoDelete   bool
	deliveryMode DeliveryMode
	compression  Compression
	arguments    Arguments
}

// ExchangeOption configures optional exchange fields.
type ExchangeOption func(e *Exchange)

// WithArguments sets the broker specific declaration arguments, the map is copied.
func WithArguments(args map[string]any) ExchangeOption {
	return func(e *Exchange) { e.arguments = newArguments(args) }
}

// WithDeliveryMode sets the delivery mode of messages published to the exchange.
func WithDeliveryMode(mode DeliveryMode) ExchangeOption {
	return func(e *Exchange) { e.deliveryMode = mode }
}

// WithCompression sets the compression applied to bodies published to the exchange.
func WithCompression(c Compression) ExchangeOption {
	return func(e *Exchange) { e.compression = c }
}

// NewExchange creates an exchange descriptor. The name and type are required, an error
// wrapping ErrInvalidArgument is returned when either is missing or the type is unknown.
// Delivery mode defaults to Persistent and compression to CompressionNone.
func NewExchange(name string, typ ExchangeType, durable, autoDelete bool, opts ...ExchangeOption) (*Exchange, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: exchange name is required", ErrInvalidArgument)
	}
	if typ == "" {
		return nil, fmt.Errorf("%w: exchange type is required for %q", ErrInvalidArgument, name)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown exchange type %q for %q", ErrInvalidArgument, typ, name)
	}

	e := &Exchange{
		name:         name,
		typ:          typ,
		durable:      durable,
		autoDelete:   autoDelete,
		deliveryMode: Persistent,
		compression:  CompressionNone,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	switch e.compression {
	case CompressionNone, CompressionDeflate:
	default:
		return nil, fmt.Errorf("%w: unknown compression %s for %q", ErrInvalidArgument, e.compression, name)
	}
	switch e.deliveryMode {
	case Persistent, NonPersistent:
	default:
		return nil, fmt.Errorf("%w: unknown delivery mode %d for %q", ErrInvalidArgument, int(e.deliveryMode), name)
	}
	return e, nil
}

// MustExchange is like NewExchange but panics on error.
// intended for package level exchange definitions.
func MustExchange(name string, typ ExchangeType, durable, autoDelete bool, opts ...ExchangeOption) *Exchange {
	e, err := NewExchange(name, typ, durable, autoDelete, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the name of the exchange.
func (e *Exchange) Name() string { return e.name }

// Type returns the type of the exchange.
func (e *Exchange) Type() ExchangeType { return e.typ }

// Durable whether the exchange persists following a restart of the broker.
func (e *Exchange) Durable() bool { return e.durable }

// AutoDelete whether the exchange is deleted by the broker when no longer in use.
func (e *Exchange) AutoDelete() bool { return e.autoDelete }

// DeliveryMode returns the delivery mode of messages published to the exchange.
func (e *Exchange) DeliveryMode() DeliveryMode { return e.deliveryMode }

// Compression returns the compression applied to published bodies.
func (e *Exchange) Compression() Compression { return e.compression }

// Arguments returns the read-only declaration arguments.
func (e *Exchange) Arguments() Arguments { return e.arguments }

// Equal whether both descriptors declare the same exchange.
func (e *Exchange) Equal(o *Exchange) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.name == o.name &&
		e.typ == o.typ &&
		e.durable == o.durable &&
		e.autoDelete == o.autoDelete &&
		e.deliveryMode == o.deliveryMode &&
		e.compression == o.compression &&
		e.arguments.Equal(o.arguments)
}

// String renders the exchange for logs, arguments are only included when set.
func (e *Exchange) String() string {
	var sb strings.Builder
	sb.WriteString("Exchange[")
	fmt.Fprintf(&sb, "name=%s,type=%s,durable=%t,autodelete=%t,compression=%s",
		e.name, strings.ToUpper(e.typ.Name()), e.durable, e.autoDelete, e.compression)
	if e.arguments.Len() > 0 {
		sb.WriteString(",arguments=")
		sb.WriteString(e.arguments.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
