package rabbitmq

import (
	"github.com/rabbitmq/amqp091-go"

	"github.com/jacklaaa89/amqp/v2"
)

// notifier is implemented by both amqp091 connections and channels.
type notifier interface {
	NotifyClose(rcv chan *amqp091.Error) chan *amqp091.Error
}

// amqpError adapts an amqp091.Error to amqp.Error.
type amqpError struct {
	*amqp091.Error
}

var _ amqp.Error = (*amqpError)(nil)

// Code returns the AMQP reply code.
func (a *amqpError) Code() int { return a.Error.Code }

// Reason returns the reply text.
func (a *amqpError) Reason() string { return a.Error.Reason }

// Recover whether the error is recoverable.
func (a *amqpError) Recover() bool { return a.Error.Recover }

// FromServer whether the close originated from the broker.
func (a *amqpError) FromServer() bool { return a.Error.Server }

// handleNotifyError forwards every close error of n to fn until n stops notifying.
func handleNotifyError(n notifier, fn amqp.ErrorNotificationFunc) {
	rcv := make(chan *amqp091.Error, 1)
	n.NotifyClose(rcv)

	go func() {
		for e := range rcv {
			if e != nil {
				fn(&amqpError{e})
			}
		}
	}()
}
