package notifier

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/amqp"
	"github.com/scoir/proofbridge/pkg/datastore"
	"github.com/scoir/proofbridge/pkg/util"
)

const (
	hookRetries = 2
	hookTimeout = 10 * time.Second
)

var logger = util.Logger("notifier")

// HookSource lists the webhooks registered for a topic. datastore.Store satisfies it.
type HookSource interface {
	ListWebhooks(topic string) ([]*datastore.Webhook, error)
}

// StaticHooks is a fixed webhook list, typically from configuration.
type StaticHooks []*datastore.Webhook

func (r StaticHooks) ListWebhooks(topic string) ([]*datastore.Webhook, error) {
	var out []*datastore.Webhook
	for _, hook := range r {
		if hook.Topic == topic {
			out = append(out, hook)
		}
	}

	return out, nil
}

// Server relays notifications from the AMQP queue to webhooks.
type Server struct {
	hooks    HookSource
	listener amqp.Listener
	client   *retryablehttp.Client
	errors   chan error
}

type provider interface {
	GetWebhooks() HookSource
	GetAMQPListener(queue string) amqp.Listener
}

func New(prov provider) (*Server, error) {
	listener := prov.GetAMQPListener(QueueName)
	if listener == nil {
		return nil, errors.New("no AMQP listener configured")
	}

	srv := &Server{
		hooks:    prov.GetWebhooks(),
		listener: listener,
		client:   util.NewHTTPClient(hookRetries, hookTimeout),
	}

	return srv, nil
}

// Start relays until the queue closes.
func (r *Server) Start() error {
	return r.listenAndServe()
}

func (r *Server) listenAndServe() error {
	msgs, err := r.listener.Listen()
	if err != nil {
		return errors.Wrap(err, "unable to consume")
	}

	logger.WithField("queue", QueueName).Info("relaying notifications")
	for d := range msgs {
		note := &Notification{}
		err := json.Unmarshal(d.Body, note)
		if err != nil {
			r.Error(errors.Wrap(err, "bad notification message"))
			continue
		}

		hooks, err := r.hooks.ListWebhooks(note.Topic)
		if err != nil {
			r.Error(errors.Wrapf(err, "no webhooks for topic %s", note.Topic))
			continue
		}

		event := &EventMessage{
			Event:     note.Event,
			Timestamp: time.Now().Unix(),
			EventData: note.EventData,
		}
		data, _ := json.Marshal(event)
		for _, hook := range hooks {
			if err := r.post(hook, data); err != nil {
				r.Error(err)
			}
		}
	}

	return errors.New("notification messages closed")
}

func (r *Server) post(hook *datastore.Webhook, data []byte) error {
	resp, err := r.client.Post(hook.URL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return errors.Wrapf(err, "unable to post event to hook %s", hook.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return errors.Errorf("error response from hook %s. code: (%d): %s", hook.URL, resp.StatusCode, string(b))
	}

	return nil
}

// Error reports a relay failure on the Errors channel when one is registered and logs it otherwise.
func (r *Server) Error(err error) {
	if r.errors == nil {
		logger.WithError(err).Warn("notification relay failed")
		return
	}

	select {
	case r.errors <- err:
	default:
		logger.WithError(err).Warn("notification relay failed, error channel full")
	}
}

func (r *Server) Errors() (chan error, error) {
	if r.errors != nil {
		return nil, errors.New("error listener already registered")
	}

	r.errors = make(chan error, 1)
	return r.errors, nil
}
