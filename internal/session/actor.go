package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cooksync/internal/document"
	"github.com/cooksync/internal/store"
	"github.com/cooksync/internal/timer"
	"github.com/cooksync/pkg/logger"
)

const (
	commandBuffer   = 64
	subscribeBuffer = 16
	persistTimeout  = 5 * time.Second
)

// Actor is the single serialized owner of one session's document. All
// mutations from all sources flow through its command channel one at a time;
// total order is arrival order at the actor. After each accepted command the
// actor persists the new document and fans it out to every subscriber,
// including whichever client issued the command.
type Actor struct {
	id    string
	store store.Store
	log   *logger.Logger
	clock func() time.Time

	commands     chan request
	subscribes   chan subscribeRequest
	unsubscribes chan *Subscription

	doc document.Document // owned exclusively by run()
}

type request struct {
	cmd   Command
	reply chan Result
}

type subscribeRequest struct {
	reply chan subscribeReply
}

type subscribeReply struct {
	doc document.Document
	sub *Subscription
}

// Subscription is one client's long-lived view of a session. C delivers
// every canonical document broadcast after the initial snapshot returned by
// Subscribe. Cancel releases the subscription; C is closed afterwards.
type Subscription struct {
	C <-chan document.Document

	ch    chan document.Document
	actor *Actor
	once  sync.Once
}

// Cancel detaches the subscription from the actor.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.actor.unsubscribes <- s
	})
}

func newActor(id string, st store.Store, log *logger.Logger, clock func() time.Time) *Actor {
	return &Actor{
		id:           id,
		store:        st,
		log:          log,
		clock:        clock,
		commands:     make(chan request, commandBuffer),
		subscribes:   make(chan subscribeRequest),
		unsubscribes: make(chan *Subscription, subscribeBuffer),
	}
}

// Submit sends a command into the actor and waits for the outcome: the new
// canonical document, or the rejection that left it untouched.
func (a *Actor) Submit(ctx context.Context, cmd Command) (document.Document, error) {
	req := request{cmd: cmd, reply: make(chan Result, 1)}
	select {
	case a.commands <- req:
	case <-ctx.Done():
		return document.Document{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.Doc, res.Err
	case <-ctx.Done():
		return document.Document{}, ctx.Err()
	}
}

// Subscribe registers a new subscriber and returns the current canonical
// document along with a channel carrying every subsequent broadcast.
func (a *Actor) Subscribe(ctx context.Context) (document.Document, *Subscription, error) {
	req := subscribeRequest{reply: make(chan subscribeReply, 1)}
	select {
	case a.subscribes <- req:
	case <-ctx.Done():
		return document.Document{}, nil, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.doc, res.sub, nil
	case <-ctx.Done():
		return document.Document{}, nil, ctx.Err()
	}
}

// run is the actor's command loop. It restores any persisted snapshot for
// its identifier, then serializes commands, subscriptions, and departures
// until process exit; actor lifetime is tied to the identifier, not to any
// single client connection.
func (a *Actor) run() {
	loadCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	doc, err := a.store.LoadDocument(loadCtx, a.id)
	cancel()
	if err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) {
			a.log.Error("Failed to load document, starting fresh",
				logger.F("session_id", a.id),
				logger.F("error", err.Error()))
		}
		doc = document.New()
	}
	a.doc = doc

	subs := make(map[*Subscription]struct{})

	for {
		select {
		case req := <-a.commands:
			now := a.clock()
			next, err := a.apply(a.doc, req.cmd, now)
			if err != nil {
				// Rejection: canonical state untouched, originator only.
				req.reply <- Result{Err: err}
				continue
			}
			a.doc = next
			a.persist(next)
			for sub := range subs {
				select {
				case sub.ch <- next:
				default:
					// Subscriber is not draining; it will resync from the
					// next broadcast it does receive.
				}
			}
			req.reply <- Result{Doc: next}

		case req := <-a.subscribes:
			sub := &Subscription{
				ch:    make(chan document.Document, subscribeBuffer),
				actor: a,
			}
			sub.C = sub.ch
			subs[sub] = struct{}{}
			req.reply <- subscribeReply{doc: a.doc, sub: sub}

		case sub := <-a.unsubscribes:
			if _, ok := subs[sub]; ok {
				delete(subs, sub)
				close(sub.ch)
			}
		}
	}
}

func (a *Actor) persist(doc document.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := a.store.SaveDocument(ctx, a.id, doc); err != nil {
		// The in-memory document stays canonical; persistence catches up on
		// the next accepted command.
		a.log.Error("Failed to persist document",
			logger.F("session_id", a.id),
			logger.F("error", err.Error()))
	}
}

// apply delegates one command to the timer state machine or a list mutation.
// Pure: any error means the returned document equals the input.
func (a *Actor) apply(doc document.Document, cmd Command, now time.Time) (document.Document, error) {
	switch cmd.Op {
	case OpSelectPreset:
		ts, err := timer.SelectPreset(doc.Timer, cmd.DurationMs, cmd.Label, now)
		return applyTimer(doc, ts, err)
	case OpSetDuration:
		ts, err := timer.SetDuration(doc.Timer, cmd.DurationMs, cmd.Label, now)
		return applyTimer(doc, ts, err)
	case OpStart:
		ts, err := timer.Start(doc.Timer, now)
		return applyTimer(doc, ts, err)
	case OpPause:
		ts, err := timer.Pause(doc.Timer, now)
		return applyTimer(doc, ts, err)
	case OpReset:
		ts, err := timer.Reset(doc.Timer, now)
		return applyTimer(doc, ts, err)
	case OpAddTime:
		ts, err := timer.AddTime(doc.Timer, cmd.DeltaMs, now)
		return applyTimer(doc, ts, err)
	case OpClear:
		ts, err := timer.Clear(doc.Timer, now)
		return applyTimer(doc, ts, err)
	case OpTickFinish:
		ts, err := timer.TickFinish(doc.Timer, now)
		return applyTimer(doc, ts, err)
	case OpAddItems:
		return document.AddItems(doc, cmd.Target, cmd.Items)
	case OpRemoveItemByID:
		return document.RemoveItemByID(doc, cmd.Target, cmd.ItemID)
	case OpRemoveItemByName:
		return document.RemoveItemByName(doc, cmd.Target, cmd.Name)
	case OpUpdateItem:
		return document.UpdateItem(doc, cmd.Target, cmd.Item)
	case OpAddInstruction:
		return document.AddInstruction(doc, cmd.Text)
	case OpRemoveInstructionByIndex:
		return document.RemoveInstructionByIndex(doc, cmd.Index)
	default:
		return doc, fmt.Errorf("unknown command: %q", cmd.Op)
	}
}

func applyTimer(doc document.Document, ts timer.State, err error) (document.Document, error) {
	if err != nil {
		return doc, err
	}
	return doc.WithTimer(ts), nil
}
