package notifier

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/amqp"
	"github.com/scoir/proofbridge/pkg/proofrequest"
)

// Publisher turns proof request transitions into notifications on the AMQP queue.
type Publisher struct {
	pub amqp.Publisher
}

func NewPublisher(pub amqp.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// Publish sends one notification for tr. The event is the status the request moved to.
func (r *Publisher) Publish(tr proofrequest.Transition) error {
	note := &Notification{
		Topic:     TopicProofRequest,
		Event:     string(tr.To),
		EventData: tr.Snapshot,
	}

	d, err := json.Marshal(note)
	if err != nil {
		return errors.Wrap(err, "unable to marshal notification")
	}

	return errors.Wrapf(r.pub.Publish(d, amqp.ContentTypeJSON), "unable to publish %s notification", note.Event)
}

// Handle is a proofrequest.TransitionHandler. Failures are logged, never returned to the lifecycle.
func (r *Publisher) Handle(tr proofrequest.Transition) {
	if err := r.Publish(tr); err != nil {
		logger.WithError(err).WithField("id", tr.Snapshot.ID).Error("notification not published")
	}
}
