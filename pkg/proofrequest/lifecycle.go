/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proofrequest

import (
	"context"
	"sync"
	"time"
)

type Outcome int

const (
	// Unchanged means the update repeated the current status.
	Unchanged Outcome = iota
	// Advanced means the status moved.
	Advanced
	// Rejected means the update would have regressed the request or arrived after it was terminal.
	Rejected
)

func (r Outcome) String() string {
	switch r {
	case Advanced:
		return "advanced"
	case Rejected:
		return "rejected"
	}
	return "unchanged"
}

// Transition reports the effect of one update on one request.
type Transition struct {
	From     Status
	To       Status
	Source   string
	Outcome  Outcome
	Snapshot *ProofRequest
}

// Lifecycle holds the state of one proof request. Every update goes through Apply under
// the lifecycle lock, so concurrent push and poll updates cannot lose each other.
type Lifecycle struct {
	lock    sync.Mutex
	req     *ProofRequest
	seq     uint64
	now     func() time.Time
	cancel  context.CancelFunc
	expiry  *time.Timer
	onStop  func()
	polling bool
	retired bool

	// applied counts updates under lock; delivered counts handed-off transitions under turn.L.
	applied   uint64
	delivered uint64
	turn      *sync.Cond
}

func NewLifecycle(req *ProofRequest) *Lifecycle {
	return &Lifecycle{req: req.clone(), now: time.Now, turn: sync.NewCond(&sync.Mutex{})}
}

func (r *Lifecycle) ID() string {
	return r.req.ID
}

// Snapshot returns a copy of the current request.
func (r *Lifecycle) Snapshot() *ProofRequest {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.req.clone()
}

// Apply accepts u when it does not lower the rank of a non-terminal request. Terminal
// statuses are always accepted from a non-terminal one and are never left.
func (r *Lifecycle) Apply(u Update, source string) Transition {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.applyLocked(u, source)
}

// Expire moves a request that is still generated to expired.
func (r *Lifecycle) Expire() Transition {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.expireLocked()
}

// update runs step under the lifecycle lock and passes its transition to deliver. Deliveries
// for one lifecycle run one at a time, in the order their steps ran. deliver must not update
// the same lifecycle.
func (r *Lifecycle) update(step func() Transition, deliver func(Transition)) {
	r.lock.Lock()
	tr := step()
	r.applied++
	ticket := r.applied
	r.lock.Unlock()

	r.turn.L.Lock()
	for r.delivered+1 != ticket {
		r.turn.Wait()
	}
	r.turn.L.Unlock()

	defer func() {
		r.turn.L.Lock()
		r.delivered = ticket
		r.turn.Broadcast()
		r.turn.L.Unlock()
	}()

	deliver(tr)
}

func (r *Lifecycle) expireLocked() Transition {
	if r.req.Status != Generated || r.retired {
		return Transition{From: r.req.Status, To: r.req.Status, Source: SourceTimer, Outcome: Unchanged, Snapshot: r.req.clone()}
	}

	return r.applyLocked(Update{Status: Expired}, SourceTimer)
}

func (r *Lifecycle) applyLocked(u Update, source string) Transition {
	cur := r.req.Status
	tr := Transition{From: cur, To: cur, Source: source}

	switch {
	case cur.Terminal(), r.retired, !u.Status.Valid():
		tr.Outcome = Rejected
	case !u.Status.Terminal() && u.Status.Rank() < cur.Rank():
		tr.Outcome = Rejected
	case u.Status == cur:
		tr.Outcome = Unchanged
	default:
		r.req.Status = u.Status
		switch u.Status {
		case Verified:
			r.req.VerificationResult = u.Result
			t := r.now()
			r.req.VerifiedAt = &t
		case Failed:
			r.req.ErrorMessage = u.Error
		}
		tr.To = u.Status
		tr.Outcome = Advanced
	}

	if r.req.Status.Terminal() {
		r.stopLocked()
	}

	tr.Snapshot = r.req.clone()
	return tr
}

// Stop cancels polling and the expiry timer without touching the status.
func (r *Lifecycle) Stop() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.stopLocked()
}

// retire stops the lifecycle for good once another request took its id. It reports whether
// the request was still active.
func (r *Lifecycle) retire() bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.retired = true
	r.stopLocked()
	return !r.req.Status.Terminal()
}

func (r *Lifecycle) stopLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	if r.expiry != nil {
		if r.expiry.Stop() && r.onStop != nil {
			r.onStop()
		}
		r.expiry = nil
	}
}

func (r *Lifecycle) isPolling() bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.polling
}

func (r *Lifecycle) setPolling(polling bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.polling = polling
}
