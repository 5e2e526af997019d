package rabbitmq

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/scoir/proofbridge/pkg/util"
)

var logger = util.Logger("rabbitmq")

type session struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// open dials addr and declares queue. The queue survives broker restarts when durable is set.
func open(addr, queue string, durable bool) (*session, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, errors.Wrap(err, "unable to dial AMQP")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "unable to create an AMQP channel")
	}

	_, err = ch.QueueDeclare(
		queue,   // name
		durable, // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "unable to declare AMQP queue %s", queue)
	}

	logger.WithField("queue", queue).Debug("AMQP queue declared")
	return &session{conn: conn, ch: ch, queue: queue}, nil
}

func (r *session) Close() error {
	return errors.Wrap(r.conn.Close(), "unable to close AMQP connection")
}
