// Package client implements the reconciler each connected client runs: a
// disposable local projection of the last canonical document it received,
// plus a purely display-side ticking overlay for a running timer. The local
// view is never written back as canonical; only explicit commands submitted
// through the session actor mutate shared state.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/cooksync/internal/document"
	"github.com/cooksync/internal/session"
	"github.com/cooksync/internal/timer"
)

// Submitter is the slice of the session actor a reconciler needs: the
// ability to send commands. Satisfied by *session.Actor.
type Submitter interface {
	Submit(ctx context.Context, cmd session.Command) (document.Document, error)
}

// Reconciler holds one client's local copy of a session document and keeps
// its displayed countdown smooth between server pushes. When the local
// countdown observes the deadline passing it submits a tick_finish command
// and optimistically shows finished until the authoritative echo arrives.
type Reconciler struct {
	submitter Submitter
	interval  time.Duration
	clock     func() time.Time

	mu        sync.Mutex
	doc       document.Document
	displayMs int64
	reported  bool // a finish observation is already in flight
	stop      chan struct{}
	closed    bool
}

// New creates a reconciler that ticks at the given display interval.
func New(submitter Submitter, interval time.Duration) *Reconciler {
	return &Reconciler{
		submitter: submitter,
		interval:  interval,
		clock:     time.Now,
		doc:       document.New(),
	}
}

// Apply replaces the entire local copy with a canonical broadcast. The
// snapshot is authoritative and total: no field-by-field merging, and any
// optimistic local state is discarded. The display ticker is (re)started
// when the timer is running and cancelled when it is not.
func (r *Reconciler) Apply(doc document.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.doc = doc
	r.reported = false
	r.displayMs = timer.RemainingAt(doc.Timer, r.clock())

	if doc.Timer.Status == timer.StatusRunning {
		if r.stop == nil {
			r.stop = make(chan struct{})
			go r.tickLoop(r.stop)
		}
	} else {
		r.cancelTickerLocked()
	}
}

// Run consumes a subscription until the context ends, applying every
// broadcast. The initial snapshot must be applied by the caller beforehand
// (Subscribe returns it separately).
func (r *Reconciler) Run(ctx context.Context, updates <-chan document.Document) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-updates:
			if !ok {
				return
			}
			r.Apply(doc)
		}
	}
}

// Snapshot returns the current local copy of the document.
func (r *Reconciler) Snapshot() document.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc
}

// Remaining returns the remaining milliseconds currently displayed.
func (r *Reconciler) Remaining() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.displayMs
}

// Close tears the reconciler down and cancels any running ticker.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelTickerLocked()
}

func (r *Reconciler) cancelTickerLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

func (r *Reconciler) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick recomputes the displayed remaining time from the deadline. This is
// read-only with respect to canonical state: finishing is reported as an
// ordinary command and confirmed by the next broadcast.
func (r *Reconciler) tick() {
	r.mu.Lock()

	if r.doc.Timer.Status != timer.StatusRunning {
		r.mu.Unlock()
		return
	}

	now := r.clock()
	r.displayMs = timer.RemainingAt(r.doc.Timer, now)

	if !timer.FinishedAt(r.doc.Timer, now) || r.reported {
		r.mu.Unlock()
		return
	}

	// Deadline passed: optimistically show finished and report the
	// observation. The authoritative echo replaces this view either way.
	r.reported = true
	finished, _ := timer.TickFinish(r.doc.Timer, now)
	r.doc = r.doc.WithTimer(finished)
	r.cancelTickerLocked()
	r.mu.Unlock()

	// Fire-and-forget: the next broadcast is the acknowledgment.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = r.submitter.Submit(ctx, session.Command{Op: session.OpTickFinish})
	}()
}
