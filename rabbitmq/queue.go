package rabbitmq

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"github.com/jacklaaa89/amqp/v2"
)

// queue a declared amqp091.Queue bound to the channel which declared it.
type queue struct {
	amqp091.Queue
	ch amqp.Channel
}

var _ amqp.Queue = (*queue)(nil)

// Name returns the broker assigned or requested name of the queue.
func (q *queue) Name() string { return q.Queue.Name }

// Bind binds the queue to exchange using routingKey.
func (q *queue) Bind(ctx context.Context, exchange, routingKey string) error {
	return q.ch.BindQueue(ctx, q.Name(), exchange, routingKey)
}

// Consume consumes from the queue, see amqp.Channel.Consume.
func (q *queue) Consume(
	ctx context.Context,
	consumerName string,
	autoAck, exclusive bool,
) (msgs <-chan amqp.Message, cancel amqp.CancelFunc, err error) {
	return q.ch.Consume(ctx, q.Name(), consumerName, autoAck, exclusive)
}
