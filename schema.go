package amqp

import (
	"fmt"
	"math"
	"os"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// ExchangeConfig the file representation of an exchange.
type ExchangeConfig struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Durable      bool           `json:"durable"`
	AutoDelete   bool           `json:"auto_delete"`
	DeliveryMode string         `json:"delivery_mode,omitempty"`
	Compression  string         `json:"compression,omitempty"`
	Arguments    map[string]any `json:"arguments,omitempty"`
}

// SchemaConfig the file representation of a schema.
type SchemaConfig struct {
	Exchanges map[string]ExchangeConfig `json:"exchanges"`
}

// Exchange validates the config into an exchange descriptor.
func (c ExchangeConfig) Exchange() (*Exchange, error) {
	typ, ok := ExchangeTypeFromName(c.Type)
	if !ok {
		if c.Type == "" {
			return nil, fmt.Errorf("%w: exchange type is required for %q", ErrInvalidArgument, c.Name)
		}
		return nil, fmt.Errorf("%w: unknown exchange type %q for %q", ErrInvalidArgument, c.Type, c.Name)
	}
	mode, ok := DeliveryModeFromName(c.DeliveryMode)
	if !ok {
		return nil, fmt.Errorf("%w: unknown delivery mode %q for %q", ErrInvalidArgument, c.DeliveryMode, c.Name)
	}
	compression, ok := CompressionFromName(c.Compression)
	if !ok {
		return nil, fmt.Errorf("%w: unknown compression %q for %q", ErrInvalidArgument, c.Compression, c.Name)
	}

	return NewExchange(c.Name, typ, c.Durable, c.AutoDelete,
		WithArguments(normalizeArguments(c.Arguments)),
		WithDeliveryMode(mode),
		WithCompression(compression),
	)
}

// normalizeArguments converts integral JSON numbers to int64, brokers reject
// floating point values for arguments such as x-message-ttl.
func normalizeArguments(args map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			out[k] = int64(f)
			continue
		}
		out[k] = v
	}
	return out
}

// Schema a validated set of exchanges keyed by an application identifier.
// a schema is read-only once loaded.
type Schema struct {
	exchanges map[string]*Exchange
}

// ParseSchema parses and validates a JSON schema document.
func ParseSchema(data []byte) (*Schema, error) {
	var cfg SchemaConfig
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("amqp: parse schema: %w", err)
	}
	return NewSchema(cfg)
}

// LoadSchema reads and parses a JSON schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSchema(data)
}

// NewSchema validates every exchange of cfg.
func NewSchema(cfg SchemaConfig) (*Schema, error) {
	s := &Schema{exchanges: make(map[string]*Exchange, len(cfg.Exchanges))}
	for id, ec := range cfg.Exchanges {
		if id == "" {
			return nil, fmt.Errorf("%w: exchange identifier is required", ErrInvalidArgument)
		}
		e, err := ec.Exchange()
		if err != nil {
			return nil, fmt.Errorf("amqp: exchange %q: %w", id, err)
		}
		s.exchanges[id] = e
	}
	return s, nil
}

// Exchange returns the exchange registered under identifier.
func (s *Schema) Exchange(identifier string) (*Exchange, error) {
	e, ok := s.exchanges[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: no exchange %q in schema", ErrInvalidArgument, identifier)
	}
	return e, nil
}

// Identifiers returns every exchange identifier in sorted order.
func (s *Schema) Identifiers() []string {
	ids := make([]string, 0, len(s.exchanges))
	for id := range s.exchanges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
