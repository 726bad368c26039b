package converter

import (
	"errors"
	"fmt"
	"reflect"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/jacklaaa89/amqp/v2"
)

// ErrUnknownType is returned when a message type has not been registered.
var ErrUnknownType = errors.New("unknown message type")

// Registry maps message type names, carried in the AMQP type property, to Go types.
// registration is safe while converters using the registry are running.
type Registry struct {
	byName cmap.ConcurrentMap[string, reflect.Type]
	byType cmap.ConcurrentMap[string, string]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: cmap.New[reflect.Type](),
		byType: cmap.New[string](),
	}
}

// Register registers T under name. Registering the same name for a different type is an error.
func Register[T any](r *Registry, name string) error {
	if name == "" {
		return fmt.Errorf("%w: message type name is required", amqp.ErrInvalidArgument)
	}

	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if !r.byName.SetIfAbsent(name, typ) {
		if existing, _ := r.byName.Get(name); existing != typ {
			return fmt.Errorf("%w: message type %q already registered for %s", amqp.ErrInvalidArgument, name, existing)
		}
	}
	r.byType.Set(typeKey(typ), name)
	return nil
}

// Name returns the name registered for the type of v.
func (r *Registry) Name(v any) (string, bool) {
	typ := reflect.TypeOf(v)
	if typ == nil {
		return "", false
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return r.byType.Get(typeKey(typ))
}

// New returns a pointer to a new zero value of the type registered under name.
func (r *Registry) New(name string) (any, bool) {
	typ, ok := r.byName.Get(name)
	if !ok {
		return nil, false
	}
	return reflect.New(typ).Interface(), true
}

// Names returns every registered name.
func (r *Registry) Names() []string {
	return r.byName.Keys()
}

// typeKey a unique key for named types, unnamed types fall back to their literal.
func typeKey(t reflect.Type) string {
	if t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// TypedJSON converts any registered type to and from JSON, using the AMQP type property to
// select the Go type on decode. Decoded messages are pointers to the registered type.
type TypedJSON struct {
	Registry *Registry
}

var _ amqp.Converter[any] = TypedJSON{}

// Decode unmarshals body into a new value of the type named by props.Type.
func (c TypedJSON) Decode(body []byte, props amqp.Properties) (any, error) {
	if !isJSON(props.ContentType) {
		return nil, amqp.NewConversionError("decode", props.ContentType, fmt.Errorf("expected %s", ContentTypeJSON))
	}
	v, ok := c.Registry.New(props.Type)
	if !ok {
		return nil, amqp.NewConversionError("decode", props.ContentType, fmt.Errorf("%w: %q", ErrUnknownType, props.Type))
	}
	if len(body) == 0 {
		return nil, amqp.NewConversionError("decode", props.ContentType, errEmptyBody)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, amqp.NewConversionError("decode", props.ContentType, err)
	}
	return v, nil
}

// Encode marshals msg, setting the type property to its registered name.
func (c TypedJSON) Encode(msg any, props *amqp.PropertiesBuilder) ([]byte, error) {
	name, ok := c.Registry.Name(msg)
	if !ok {
		return nil, amqp.NewConversionError("encode", ContentTypeJSON, fmt.Errorf("%w: %T", ErrUnknownType, msg))
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, amqp.NewConversionError("encode", ContentTypeJSON, err)
	}
	props.SetContentType(ContentTypeJSON).SetType(name)
	return b, nil
}
