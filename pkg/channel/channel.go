/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/scoir/proofbridge/pkg/schema"
	"github.com/scoir/proofbridge/pkg/util"
)

const (
	DefaultReconnectDelay = 3 * time.Second
	sessionParam          = "sessionId"
)

var ErrClosed = errors.New("channel closed")

var logger = util.Logger("channel")

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (r State) String() string {
	switch r {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "disconnected"
}

// Handler receives every well formed push message.
type Handler func(eventType string, data json.RawMessage)

//go:generate mockery -name=SessionRegistrar
type SessionRegistrar interface {
	Register(ctx context.Context, appName string) (*schema.SocketSession, error)
}

type Option func(opts *Channel)

// WithReconnect enables or disables reconnecting after an unexpected close.
func WithReconnect(reconnect bool) Option {
	return func(opts *Channel) {
		opts.reconnect = reconnect
	}
}

func WithReconnectDelay(d time.Duration) Option {
	return func(opts *Channel) {
		opts.delay = d
	}
}

// WithMaxReconnectDelay switches from a fixed reconnect delay to exponential backoff capped at d.
func WithMaxReconnectDelay(d time.Duration) Option {
	return func(opts *Channel) {
		opts.maxDelay = d
	}
}

func WithDialOptions(dopts *websocket.DialOptions) Option {
	return func(opts *Channel) {
		opts.dialOpts = dopts
	}
}

// Channel keeps one persistent connection to the verification service's push endpoint.
type Channel struct {
	registrar SessionRegistrar
	appName   string
	reconnect bool
	delay     time.Duration
	maxDelay  time.Duration
	dialOpts  *websocket.DialOptions

	lock       sync.Mutex
	handler    Handler
	state      State
	session    *schema.SocketSession
	url        string
	conn       *websocket.Conn
	err        error
	manual     bool
	connecting bool
	closed     bool
	timer      *time.Timer
	backoff    backoff.BackOff

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(registrar SessionRegistrar, appName string, opts ...Option) *Channel {
	ctx, cancel := context.WithCancel(context.Background())
	ch := &Channel{
		registrar: registrar,
		appName:   appName,
		reconnect: true,
		delay:     DefaultReconnectDelay,
		ctx:       ctx,
		cancel:    cancel,
	}

	for _, opt := range opts {
		opt(ch)
	}

	ch.backoff = ch.newBackoff()
	return ch
}

func (r *Channel) newBackoff() backoff.BackOff {
	if r.maxDelay <= r.delay {
		return backoff.NewConstantBackOff(r.delay)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.delay
	b.MaxInterval = r.maxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Handle sets the receiver of push messages.
func (r *Channel) Handle(h Handler) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.handler = h
}

// Start registers a new session and opens the connection. A registration failure is returned
// and not retried. A failed dial is returned as well, but reconnection keeps trying in the background.
func (r *Channel) Start(ctx context.Context) error {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return ErrClosed
	}
	if r.state != Disconnected || r.connecting {
		r.lock.Unlock()
		return nil
	}
	r.stopTimerLocked()
	r.state = Connecting
	r.manual = false
	r.lock.Unlock()

	sess, err := r.registrar.Register(ctx, r.appName)
	if err != nil {
		r.lock.Lock()
		r.state = Disconnected
		r.err = err
		r.lock.Unlock()
		return err
	}

	u, err := channelURL(sess)
	if err != nil {
		r.lock.Lock()
		r.state = Disconnected
		r.err = err
		r.lock.Unlock()
		return err
	}

	r.lock.Lock()
	r.session = sess
	r.url = u
	r.lock.Unlock()

	logger.WithField("session", sess.SocketSessionID).Info("channel session registered")
	return r.connect(ctx)
}

// Connect dials the registered session again, typically after Disconnect.
func (r *Channel) Connect(ctx context.Context) error {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return ErrClosed
	}
	if r.url == "" {
		r.lock.Unlock()
		return errors.New("channel session not registered")
	}
	r.manual = false
	r.lock.Unlock()

	return r.connect(ctx)
}

func (r *Channel) connect(ctx context.Context) error {
	r.lock.Lock()
	if r.connecting || r.conn != nil {
		r.lock.Unlock()
		return nil
	}
	if r.closed || r.manual {
		r.state = Disconnected
		r.lock.Unlock()
		return nil
	}
	r.connecting = true
	r.state = Connecting
	u := r.url
	r.lock.Unlock()

	conn, _, err := websocket.Dial(ctx, u, r.dialOpts)

	r.lock.Lock()
	r.connecting = false
	if err != nil {
		r.state = Disconnected
		r.err = err
		r.scheduleLocked()
		r.lock.Unlock()
		return errors.Wrapf(err, "unable to dial channel %s", u)
	}

	if r.closed || r.manual {
		r.state = Disconnected
		r.lock.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
		return nil
	}

	r.conn = conn
	r.state = Connected
	r.err = nil
	r.backoff.Reset()
	r.wg.Add(1)
	r.lock.Unlock()

	logger.Info("channel connected")
	go r.read(conn)
	return nil
}

func (r *Channel) read(conn *websocket.Conn) {
	defer r.wg.Done()

	for {
		_, data, err := conn.Read(r.ctx)
		if err != nil {
			r.dropped(conn, err)
			return
		}

		msg := &schema.ChannelMessage{}
		if err := json.Unmarshal(data, msg); err != nil || msg.Type == "" {
			logger.WithField("message", string(data)).Warn("dropping malformed channel message")
			continue
		}

		r.lock.Lock()
		h := r.handler
		r.lock.Unlock()

		if h != nil {
			h(msg.Type, msg.Data)
		}
	}
}

// dropped handles the end of conn's read loop.
func (r *Channel) dropped(conn *websocket.Conn, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.conn != conn {
		return
	}

	r.conn = nil
	r.state = Disconnected
	if r.manual || r.closed {
		return
	}

	r.err = err
	logger.WithError(err).WithField("status", websocket.CloseStatus(err)).Warn("channel closed unexpectedly")
	r.scheduleLocked()
}

func (r *Channel) scheduleLocked() {
	if !r.reconnect || r.closed || r.manual || r.timer != nil {
		return
	}

	wait := r.backoff.NextBackOff()
	if wait == backoff.Stop {
		logger.Warn("giving up reconnecting channel")
		return
	}

	util.LogBackoff(r.err, wait)

	var t *time.Timer
	r.wg.Add(1)
	t = time.AfterFunc(wait, func() {
		defer r.wg.Done()

		r.lock.Lock()
		if r.timer == t {
			r.timer = nil
		}
		r.lock.Unlock()

		if err := r.connect(r.ctx); err != nil {
			logger.WithError(err).Debug("reconnect failed")
		}
	})
	r.timer = t
}

func (r *Channel) stopTimerLocked() {
	if r.timer == nil {
		return
	}

	if r.timer.Stop() {
		r.wg.Done()
	}
	r.timer = nil
}

// Disconnect closes the connection and cancels any pending reconnect.
func (r *Channel) Disconnect() error {
	r.lock.Lock()
	r.manual = true
	r.stopTimerLocked()
	conn := r.conn
	r.conn = nil
	r.state = Disconnected
	r.lock.Unlock()

	if conn == nil {
		return nil
	}

	err := conn.Close(websocket.StatusNormalClosure, "disconnect")
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		return errors.Wrap(err, "unable to close channel")
	}

	return nil
}

// Close tears the channel down for good and waits for its goroutines.
func (r *Channel) Close() error {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return nil
	}
	r.closed = true
	r.lock.Unlock()

	err := r.Disconnect()
	r.cancel()
	r.wg.Wait()

	return err
}

// Send writes payload as JSON. It is dropped with a warning when the channel is not connected.
func (r *Channel) Send(ctx context.Context, payload interface{}) error {
	r.lock.Lock()
	conn := r.conn
	state := r.state
	r.lock.Unlock()

	if conn == nil || state != Connected {
		logger.Warnf("channel %s, message not sent", state)
		return nil
	}

	return errors.Wrap(wsjson.Write(ctx, conn, payload), "unable to send on channel")
}

func (r *Channel) State() State {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.state
}

// SessionID returns the registered session, or empty before registration.
func (r *Channel) SessionID() string {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.session == nil {
		return ""
	}
	return r.session.SocketSessionID
}

// Err returns the last registration or connection error. It is cleared by a successful connect.
func (r *Channel) Err() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.err
}

func channelURL(sess *schema.SocketSession) (string, error) {
	u, err := url.Parse(sess.WebsocketURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid channel url %s", sess.WebsocketURL)
	}

	q := u.Query()
	if _, ok := q[sessionParam]; !ok {
		q.Set(sessionParam, sess.SocketSessionID)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
