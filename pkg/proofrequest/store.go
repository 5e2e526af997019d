/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proofrequest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/schema"
	"github.com/scoir/proofbridge/pkg/template"
	"github.com/scoir/proofbridge/pkg/util"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultExpireAfter  = 5 * time.Minute
)

// Sources of status updates.
const (
	SourceChannel = "channel"
	SourcePoll    = "poll"
	SourceTimer   = "timer"
)

var (
	ErrNotFound  = errors.New("proof request not found")
	ErrNoSession = errors.New("no channel session registered")
	ErrClosed    = errors.New("proof request store closed")
)

var logger = util.Logger("proofrequest")

//go:generate mockery -name=Verifier
type Verifier interface {
	CreateProofRequest(ctx context.Context, templateID, sessionID string, req *schema.ProofRequest) (*ProofRequest, error)
	Status(ctx context.Context, id string) (*ProofRequest, error)
}

type Translator interface {
	Translate(t *template.ProofTemplate) (*schema.ProofRequest, error)
}

// SessionSource supplies the channel session that push events for new requests are sent to.
type SessionSource interface {
	SessionID() string
}

// TransitionHandler is called after a request status moves. It runs outside the lifecycle lock,
// and transitions of one request reach it in the order they were applied.
type TransitionHandler func(tr Transition)

type provider interface {
	Verifier() Verifier
	Translator() Translator
	Session() SessionSource
}

type Option func(opts *Store)

func WithPollInterval(d time.Duration) Option {
	return func(opts *Store) {
		opts.pollInterval = d
	}
}

func WithExpireAfter(d time.Duration) Option {
	return func(opts *Store) {
		opts.expireAfter = d
	}
}

func WithTransitionHandler(h TransitionHandler) Option {
	return func(opts *Store) {
		opts.handlers = append(opts.handlers, h)
	}
}

func WithMetrics(m *Metrics) Option {
	return func(opts *Store) {
		opts.metrics = m
	}
}

// Store tracks every proof request created through it. It is owned by its caller; several
// stores may coexist.
type Store struct {
	verifier   Verifier
	translator Translator
	session    SessionSource

	pollInterval time.Duration
	expireAfter  time.Duration
	handlers     []TransitionHandler
	metrics      *Metrics

	lock       sync.RWMutex
	lifecycles map[string]*Lifecycle
	seq        uint64
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(prov provider, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		verifier:     prov.Verifier(),
		translator:   prov.Translator(),
		session:      prov.Session(),
		pollInterval: DefaultPollInterval,
		expireAfter:  DefaultExpireAfter,
		lifecycles:   map[string]*Lifecycle{},
		ctx:          ctx,
		cancel:       cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateRequest translates the template, asks the verification service for a new request and
// starts tracking it.
func (r *Store) CreateRequest(ctx context.Context, t *template.ProofTemplate) (*ProofRequest, error) {
	if r.isClosed() {
		return nil, ErrClosed
	}

	wire, err := r.translator.Translate(t)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to translate template %s", t.ID)
	}

	sessionID := r.session.SessionID()
	if sessionID == "" {
		return nil, ErrNoSession
	}

	pr, err := r.verifier.CreateProofRequest(ctx, t.ID, sessionID, wire)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create proof request")
	}

	if pr.ID == "" {
		return nil, errors.New("verification service returned a proof request without id")
	}
	if !pr.Status.Valid() {
		pr.Status = Generated
	}
	if pr.TemplateID == "" {
		pr.TemplateID = t.ID
	}
	pr.Format = t.Format
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = time.Now()
	}

	l := NewLifecycle(pr)

	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return nil, ErrClosed
	}
	if prev, ok := r.lifecycles[pr.ID]; ok && prev.retire() {
		r.metrics.replaced()
	}
	r.seq++
	l.seq = r.seq
	r.lifecycles[pr.ID] = l
	r.track(l)
	r.lock.Unlock()

	r.metrics.created(pr.Status.Terminal())
	logger.WithField("id", pr.ID).WithField("template", t.ID).Info("proof request created")

	return l.Snapshot(), nil
}

// track starts polling and the expiry deadline. Callers hold the store lock.
func (r *Store) track(l *Lifecycle) {
	if l.req.Status.Terminal() {
		return
	}

	ctx, cancel := context.WithCancel(r.ctx)

	l.lock.Lock()
	l.cancel = cancel
	l.polling = true
	if l.req.Status == Generated && r.expireAfter > 0 {
		r.wg.Add(1)
		l.onStop = r.wg.Done
		l.expiry = time.AfterFunc(r.expireAfter, func() {
			defer r.wg.Done()

			if r.isClosed() {
				return
			}
			l.update(l.expireLocked, r.notify)
		})
	}
	l.lock.Unlock()

	r.wg.Add(1)
	go r.poll(ctx, l)
}

func (r *Store) poll(ctx context.Context, l *Lifecycle) {
	defer r.wg.Done()
	defer l.setPolling(false)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pr, err := r.verifier.Status(ctx, l.ID())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).WithField("id", l.ID()).Warn("status poll failed")
			continue
		}

		u, ok := UpdateFromSnapshot(pr)
		if !ok {
			logger.WithField("id", l.ID()).Warnf("status poll returned unknown status %q", pr.Status)
			continue
		}

		r.apply(l, u, SourcePoll)
	}
}

// Status returns the current snapshot of a request.
func (r *Store) Status(id string) (*ProofRequest, error) {
	l, ok := r.lifecycle(id)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", id)
	}

	return l.Snapshot(), nil
}

// ApplyChannelEvent routes one push message to the request it names. Messages for requests this
// store does not track are dropped, since other applications share the channel.
func (r *Store) ApplyChannelEvent(eventType string, data json.RawMessage) {
	e, err := ParseEvent(eventType, data)
	if err != nil {
		logger.WithError(err).Warn("dropping channel event")
		return
	}

	r.HandleEvent(e)
}

// HandleEvent applies a typed event.
func (r *Store) HandleEvent(e Event) {
	u, ok := UpdateFor(e)
	if !ok {
		return
	}

	l, ok := r.lifecycle(e.RequestID())
	if !ok {
		return
	}

	r.apply(l, u, SourceChannel)
}

// History lists every tracked request, most recent first.
func (r *Store) History() []*ProofRequest {
	r.lock.RLock()
	ls := make([]*Lifecycle, 0, len(r.lifecycles))
	for _, l := range r.lifecycles {
		ls = append(ls, l)
	}
	r.lock.RUnlock()

	sort.Slice(ls, func(i, j int) bool {
		return ls[i].seq > ls[j].seq
	})

	out := make([]*ProofRequest, len(ls))
	for i, l := range ls {
		out[i] = l.Snapshot()
	}

	return out
}

// Cancel stops polling one request. Its status is kept.
func (r *Store) Cancel(id string) error {
	l, ok := r.lifecycle(id)
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s", id)
	}

	l.Stop()
	return nil
}

// Close stops every poller and expiry timer and waits for the pollers to exit.
func (r *Store) Close() {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return
	}
	r.closed = true
	for _, l := range r.lifecycles {
		l.Stop()
	}
	r.lock.Unlock()

	r.cancel()
	r.wg.Wait()
}

func (r *Store) lifecycle(id string) (*Lifecycle, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	l, ok := r.lifecycles[id]
	return l, ok
}

func (r *Store) isClosed() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.closed
}

func (r *Store) apply(l *Lifecycle, u Update, source string) {
	l.update(func() Transition {
		return l.applyLocked(u, source)
	}, r.notify)
}

func (r *Store) notify(tr Transition) {
	r.metrics.observe(tr)

	switch tr.Outcome {
	case Rejected:
		logger.WithField("id", tr.Snapshot.ID).Debugf("%s update rejected at %s", tr.Source, tr.From)
		return
	case Unchanged:
		return
	}

	logger.WithField("id", tr.Snapshot.ID).Infof("%s -> %s (%s)", tr.From, tr.To, tr.Source)
	for _, h := range r.handlers {
		h(tr)
	}
}
