/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/scoir/proofbridge/pkg/amqp"
	"github.com/scoir/proofbridge/pkg/amqp/rabbitmq"
	"github.com/scoir/proofbridge/pkg/bridge"
	"github.com/scoir/proofbridge/pkg/channel"
	"github.com/scoir/proofbridge/pkg/config"
	"github.com/scoir/proofbridge/pkg/datastore"
	"github.com/scoir/proofbridge/pkg/framework"
	"github.com/scoir/proofbridge/pkg/notifier"
	"github.com/scoir/proofbridge/pkg/presentproof"
	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/template"
	"github.com/scoir/proofbridge/pkg/verifier"
)

// Provider builds every component from configuration and hands them to the packages that need them.
type Provider struct {
	conf       config.Config
	translator *presentproof.Translator
	registry   *prometheus.Registry

	verifier  proofrequest.Verifier
	channel   *channel.Channel
	requests  *proofrequest.Store
	dp        datastore.Provider
	ds        datastore.Store
	publisher amqp.Publisher
	listener  amqp.Listener
}

func NewProvider(conf config.Config) *Provider {
	return &Provider{
		conf:       conf,
		translator: presentproof.New(),
		registry:   prometheus.NewRegistry(),
	}
}

// Build wires the verifier client, the realtime channel and the request store. Extra options
// are applied to the store after the configured ones.
func (r *Provider) Build(opts ...proofrequest.Option) error {
	vc, err := r.conf.Verifier()
	if err != nil {
		return err
	}
	cc, err := r.conf.Channel()
	if err != nil {
		return err
	}
	pc, err := r.conf.ProofRequest()
	if err != nil {
		return err
	}

	r.verifier = newVerifier(vc)
	r.channel = newChannel(vc, cc, r.conf.AppName())

	err = r.registry.Register(collectors.NewGoCollector())
	if err != nil {
		return errors.Wrap(err, "unable to register go collector")
	}
	metrics, err := proofrequest.NewMetrics(r.registry)
	if err != nil {
		return err
	}

	sopts := []proofrequest.Option{
		proofrequest.WithPollInterval(pc.PollInterval),
		proofrequest.WithExpireAfter(pc.ExpireAfter),
		proofrequest.WithMetrics(metrics),
	}

	ds, err := r.Datastore()
	if err != nil {
		return err
	}
	if ds != nil {
		sopts = append(sopts, proofrequest.WithTransitionHandler(datastore.Archiver(ds)))
	}

	pub, err := r.amqpPublisher()
	if err != nil {
		return err
	}
	if pub != nil {
		sopts = append(sopts, proofrequest.WithTransitionHandler(notifier.NewPublisher(pub).Handle))
	}

	r.requests = proofrequest.New(r, append(sopts, opts...)...)
	r.channel.Handle(r.requests.ApplyChannelEvent)

	return nil
}

// Datastore opens the configured store, or returns nil when none is configured.
func (r *Provider) Datastore() (datastore.Store, error) {
	if r.ds != nil {
		return r.ds, nil
	}

	conf := r.conf.WithDatastore()
	if err := conf.Err(); err != nil {
		return nil, err
	}

	dc, err := conf.DataStore()
	if err != nil {
		return nil, err
	}

	r.dp, err = dc.StorageProvider()
	if err != nil {
		return nil, err
	}
	if r.dp == nil {
		logger.Debug("no datastore configured")
		return nil, nil
	}

	r.ds, err = r.dp.OpenStore("")
	if err != nil {
		return nil, errors.Wrap(err, "unable to open datastore")
	}

	return r.ds, nil
}

func (r *Provider) amqpPublisher() (amqp.Publisher, error) {
	conf := r.conf.WithAMQP()
	if err := conf.Err(); err != nil {
		return nil, err
	}

	ac, err := conf.AMQPConfig()
	if err != nil {
		logger.WithError(err).Debug("status notifications disabled")
		return nil, nil
	}

	pub, err := rabbitmq.NewPublisher(ac.Endpoint(), notifier.QueueName, ac.Durable)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect notification publisher")
	}

	r.publisher = pub
	return pub, nil
}

// Close stops the store first so no transition reaches a closed publisher.
func (r *Provider) Close() {
	if r.requests != nil {
		r.requests.Close()
	}
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.publisher != nil {
		_ = r.publisher.Close()
	}
	if r.listener != nil {
		_ = r.listener.Close()
	}
	if r.dp != nil {
		_ = r.dp.Close()
	}
}

func (r *Provider) Verifier() proofrequest.Verifier {
	return r.verifier
}

func (r *Provider) Translator() proofrequest.Translator {
	return r.translator
}

func (r *Provider) Session() proofrequest.SessionSource {
	return r.channel
}

func (r *Provider) Catalogue() bridge.Catalogue {
	files := &template.FileCatalogue{Dir: r.conf.TemplatesDir()}
	if r.ds == nil {
		return files
	}

	return bridge.Catalogues{r.ds, files}
}

func (r *Provider) Requests() bridge.Requests {
	return r.requests
}

func (r *Provider) Channel() bridge.ChannelStatus {
	return r.channel
}

func (r *Provider) Archive() bridge.Archive {
	if r.ds == nil {
		return nil
	}
	return r.ds
}

func (r *Provider) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *Provider) GetWebhooks() notifier.HookSource {
	if r.ds != nil {
		return r.ds
	}

	hooks, err := r.conf.Webhooks()
	if err != nil {
		logger.WithError(err).Warn("invalid webhooks configuration")
		return notifier.StaticHooks{}
	}

	out := notifier.StaticHooks{}
	for _, h := range hooks {
		out = append(out, &datastore.Webhook{Topic: h.Topic, URL: h.URL})
	}
	return out
}

func (r *Provider) GetAMQPListener(queue string) amqp.Listener {
	conf := r.conf.WithAMQP()
	ac, err := conf.AMQPConfig()
	if err != nil {
		logger.WithError(err).Error("amqp is not configured")
		return nil
	}

	l, err := rabbitmq.NewListener(ac.Endpoint(), queue, ac.Durable)
	if err != nil {
		logger.WithError(err).Error("unable to connect notification listener")
		return nil
	}

	r.listener = l
	return l
}

func newVerifier(vc *framework.VerifierConfig) *verifier.Client {
	return verifier.New(vc.URL, verifier.WithRetries(vc.Retries), verifier.WithTimeout(vc.Timeout))
}

func newChannel(vc *framework.VerifierConfig, cc *framework.ChannelConfig, appName string) *channel.Channel {
	return channel.New(channel.NewRegistrar(vc.URL, vc.Timeout), appName,
		channel.WithReconnect(cc.Reconnect),
		channel.WithReconnectDelay(cc.ReconnectDelay),
		channel.WithMaxReconnectDelay(cc.MaxReconnectDelay),
	)
}
