package client

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/cooksync/internal/document"
	"github.com/cooksync/internal/session"
	"github.com/cooksync/internal/store"
	"github.com/cooksync/internal/timer"
	"github.com/cooksync/pkg/logger"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingSubmitter struct {
	mu   sync.Mutex
	cmds []session.Command
}

func (s *recordingSubmitter) Submit(ctx context.Context, cmd session.Command) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	return document.New(), nil
}

func (s *recordingSubmitter) commands() []session.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]session.Command, len(s.cmds))
	copy(out, s.cmds)
	return out
}

func runningDoc(deadline time.Time, totalMs int64) document.Document {
	ts, _ := timer.SelectPreset(timer.Idle(), totalMs, "Eggs", deadline.Add(-time.Duration(totalMs)*time.Millisecond))
	ts, _ = timer.Start(ts, deadline.Add(-time.Duration(totalMs)*time.Millisecond))
	return document.New().WithTimer(ts)
}

func TestApplyReplacesWholeLocalCopy(t *testing.T) {
	r := New(&recordingSubmitter{}, time.Hour)
	defer r.Close()

	first := document.New()
	first, _ = document.AddItems(first, document.TargetTracked, []document.ListItem{{ID: "a", Name: "Eggs"}})
	r.Apply(first)

	second := document.New()
	second, _ = document.AddInstruction(second, "Stir")
	r.Apply(second)

	got := r.Snapshot()
	if len(got.TrackedItems) != 0 {
		t.Error("stale tracked items survived a canonical broadcast")
	}
	if !reflect.DeepEqual(got, second) {
		t.Errorf("local copy is not the canonical snapshot: %+v", got)
	}
}

func TestDisplayCountdownDerivesFromDeadline(t *testing.T) {
	r := New(&recordingSubmitter{}, time.Hour)
	defer r.Close()
	r.clock = func() time.Time { return testNow }

	doc := runningDoc(testNow.Add(40*time.Second), 60000)
	r.Apply(doc)

	if got := r.Remaining(); got != 40000 {
		t.Errorf("expected displayed remaining 40000, got %d", got)
	}
}

func TestObservesFinishAndSubmitsTickFinish(t *testing.T) {
	sub := &recordingSubmitter{}
	r := New(sub, 5*time.Millisecond)
	defer r.Close()

	// deadline already in the past when the broadcast arrives mid-countdown
	doc := runningDoc(time.Now().Add(20*time.Millisecond), 60000)
	r.Apply(doc)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Snapshot().Timer.Status == timer.StatusFinished {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := r.Snapshot().Timer
	if got.Status != timer.StatusFinished {
		t.Fatalf("reconciler never observed the finish, status=%s", got.Status)
	}
	if got.RemainingMs != 0 || got.Deadline != nil {
		t.Errorf("optimistic finished view not terminal: %+v", got)
	}

	cmdDeadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(cmdDeadline) && len(sub.commands()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	cmds := sub.commands()
	if len(cmds) != 1 || cmds[0].Op != session.OpTickFinish {
		t.Fatalf("expected exactly one tick_finish submission, got %+v", cmds)
	}
}

func TestAuthoritativeEchoSupersedesOptimisticView(t *testing.T) {
	sub := &recordingSubmitter{}
	r := New(sub, time.Hour)
	defer r.Close()
	r.clock = func() time.Time { return testNow }

	r.Apply(runningDoc(testNow.Add(10*time.Second), 60000))

	// the server computed something different (user reset in the interim)
	ts, _ := timer.SelectPreset(timer.Idle(), 60000, "Eggs", testNow)
	echo := document.New().WithTimer(ts)
	r.Apply(echo)

	if got := r.Snapshot().Timer; got.Status != timer.StatusPaused {
		t.Errorf("echo did not supersede local view: %+v", got)
	}
}

func TestReconcilerAgainstRealActor(t *testing.T) {
	hub := session.NewHub(store.NewMemoryStore(), logger.New())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actor := hub.Get("dinner")
	doc, subscription, err := actor.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer subscription.Cancel()

	r := New(actor, 5*time.Millisecond)
	defer r.Close()
	r.Apply(doc)
	go r.Run(ctx, subscription.C)

	// a very short timer started through the actor
	if _, err := actor.Submit(ctx, session.Command{Op: session.OpSetDuration, DurationMs: 30, Label: "Blink"}); err != nil {
		t.Fatalf("setDuration rejected: %v", err)
	}
	if _, err := actor.Submit(ctx, session.Command{Op: session.OpStart}); err != nil {
		t.Fatalf("start rejected: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if r.Snapshot().Timer.Status == timer.StatusFinished {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := r.Snapshot().Timer; got.Status != timer.StatusFinished {
		t.Fatalf("reconciler and actor never converged on finished, got %s", got.Status)
	}

	// canonical state converged too
	canonical, err := actor.Submit(ctx, session.Command{Op: session.OpTickFinish})
	if err != nil {
		t.Fatalf("tickFinish rejected: %v", err)
	}
	if canonical.Timer.Status != timer.StatusFinished {
		t.Errorf("canonical timer not finished: %+v", canonical.Timer)
	}
}
