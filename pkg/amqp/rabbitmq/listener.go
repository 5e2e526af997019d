package rabbitmq

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

type Listener struct {
	*session
}

func NewListener(addr, queue string, durable bool) (*Listener, error) {
	s, err := open(addr, queue, durable)
	if err != nil {
		return nil, err
	}

	return &Listener{session: s}, nil
}

// Listen consumes the queue with auto-ack. The channel closes when the connection does.
func (r *Listener) Listen() (<-chan amqp.Delivery, error) {
	msgs, err := r.ch.Consume(
		r.queue, // queue
		"",      // consumer
		true,    // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to consume")
	}

	return msgs, nil
}
