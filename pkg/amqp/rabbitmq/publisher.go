package rabbitmq

import (
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

type Publisher struct {
	*session
	deliveryMode uint8
}

func NewPublisher(addr, queue string, durable bool) (*Publisher, error) {
	s, err := open(addr, queue, durable)
	if err != nil {
		return nil, err
	}

	p := &Publisher{session: s, deliveryMode: amqp.Transient}
	if durable {
		p.deliveryMode = amqp.Persistent
	}

	return p, nil
}

func (r *Publisher) Publish(body []byte, contentType string) error {
	err := r.ch.Publish(
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: r.deliveryMode,
			Timestamp:    time.Now(),
			Body:         body,
		})

	return errors.Wrap(err, "rabbitMQ publish failed")
}
