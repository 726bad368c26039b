package amqp

import (
	"context"
	"sync"
)

type errorFunc func() error

type mockChannelHandlers struct {
	DeclareExchange func(e *Exchange) error
	Publish         func(exchange, routingKey string, body []byte, props Properties, mandatory bool) error
	Consume         func(ctx context.Context) (<-chan Message, CancelFunc, error)
}

// newDefaultChannelHandlers generates a default set of handlers.
func newDefaultChannelHandlers() mockChannelHandlers {
	return mockChannelHandlers{
		DeclareExchange: func(_ *Exchange) error { return nil },
		Publish:         func(_, _ string, _ []byte, _ Properties, _ bool) error { return nil },
		Consume: func(_ context.Context) (<-chan Message, CancelFunc, error) {
			ch := make(chan Message)
			close(ch)
			return ch, func() {}, nil
		},
	}
}

type mockChannel struct {
	h mockChannelHandlers
}

func (m *mockChannel) Close() error             { return nil }
func (m *mockChannel) NotifyClose(_ func())     {}
func (m *mockChannel) NotifyReconnect(_ func()) {}
func (m *mockChannel) IsClosed() bool           { return false }
func (m *mockChannel) QoS(_ context.Context, _, _ int64, _ bool) error {
	return nil
}
func (m *mockChannel) CreateQueue(_ context.Context, _ string, _, _, _ bool) (Queue, error) {
	return nil, nil
}
func (m *mockChannel) BindQueue(_ context.Context, _, _, _ string) error {
	return nil
}
func (m *mockChannel) DeclareExchange(_ context.Context, e *Exchange) error {
	return m.h.DeclareExchange(e)
}
func (m *mockChannel) Publish(
	_ context.Context,
	exchange, routingKey string,
	body []byte,
	props Properties,
	mandatory bool,
) error {
	return m.h.Publish(exchange, routingKey, body, props, mandatory)
}
func (m *mockChannel) Consume(ctx context.Context, _, _ string, _, _ bool) (<-chan Message, CancelFunc, error) {
	return m.h.Consume(ctx)
}

type mockMessageHandlers struct {
	Ack    errorFunc
	Nack   errorFunc
	Reject errorFunc
}

// newDefaultMessageHandlers generates a default set of handlers.
func newDefaultMessageHandlers() mockMessageHandlers {
	return mockMessageHandlers{
		Ack:    func() error { return nil },
		Nack:   func() error { return nil },
		Reject: func() error { return nil },
	}
}

// mockMessage a transport message which records acknowledgements.
type mockMessage struct {
	mu       sync.Mutex
	h        mockMessageHandlers
	body     []byte
	props    Properties
	envelope Envelope
	acks     []string
}

func newMockMessage(body []byte, props Properties, env Envelope) *mockMessage {
	return &mockMessage{h: newDefaultMessageHandlers(), body: body, props: props, envelope: env}
}

func (m *mockMessage) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, op)
}

func (m *mockMessage) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acks...)
}

func (m *mockMessage) Context() context.Context { return context.Background() }
func (m *mockMessage) Ack() error {
	m.record("ack")
	return m.h.Ack()
}
func (m *mockMessage) Nack(_ bool) error {
	m.record("nack")
	return m.h.Nack()
}
func (m *mockMessage) Reject(_ bool) error {
	m.record("reject")
	return m.h.Reject()
}
func (m *mockMessage) Body() []byte           { return m.body }
func (m *mockMessage) Properties() Properties { return m.props }
func (m *mockMessage) Envelope() Envelope     { return m.envelope }
