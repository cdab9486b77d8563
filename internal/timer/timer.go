package timer

import (
	"errors"
	"time"
)

// Status is the lifecycle phase of a session timer.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// ErrInvalidDuration is returned when a timer command carries a non-positive
// duration. The message is surfaced verbatim to clients and tool callers.
var ErrInvalidDuration = errors.New("Please provide a valid duration greater than 0")

// State is the full timer value carried inside a session document.
//
// Invariants maintained by every transition in this package:
//   - Deadline is set if and only if Status == StatusRunning
//   - RemainingMs >= 0
//   - TotalMs == 0 implies Status == StatusIdle and RemainingMs == 0
//   - Status == StatusFinished implies RemainingMs == 0 and no Deadline
type State struct {
	Status      Status `json:"status"`
	TotalMs     int64  `json:"total_ms"`
	RemainingMs int64  `json:"remaining_ms"`
	Deadline    *int64 `json:"deadline,omitempty"` // epoch ms, present only while running
	Label       string `json:"label,omitempty"`
	UpdatedAt   int64  `json:"updated_at"` // epoch ms of last accepted mutation
}

// Idle returns the empty timer: no duration configured, nothing running.
func Idle() State {
	return State{Status: StatusIdle}
}

func idleAt(now time.Time) State {
	return State{Status: StatusIdle, UpdatedAt: now.UnixMilli()}
}

// SelectPreset replaces the timer with a fresh paused timer of the given
// duration, discarding any timer in progress.
func SelectPreset(s State, durationMs int64, label string, now time.Time) (State, error) {
	if durationMs <= 0 {
		return s, ErrInvalidDuration
	}
	return State{
		Status:      StatusPaused,
		TotalMs:     durationMs,
		RemainingMs: durationMs,
		Label:       label,
		UpdatedAt:   now.UnixMilli(),
	}, nil
}

// SetDuration replaces the timer with a fresh paused timer of an arbitrary,
// possibly sub-minute, duration. Callers are expected to have already
// normalized any minutes/seconds split into a single millisecond value.
func SetDuration(s State, durationMs int64, label string, now time.Time) (State, error) {
	return SelectPreset(s, durationMs, label, now)
}

// Start begins or resumes the countdown. Starting an already-running timer
// is a no-op, as is starting a timer with nothing left to count down.
func Start(s State, now time.Time) (State, error) {
	if s.Status == StatusRunning {
		return s, nil
	}
	baseline := s.RemainingMs
	if baseline <= 0 {
		baseline = s.TotalMs
	}
	if baseline <= 0 {
		if s.TotalMs == 0 {
			return idleAt(now), nil
		}
		return s, nil
	}
	deadline := now.UnixMilli() + baseline
	s.Status = StatusRunning
	s.RemainingMs = baseline
	s.Deadline = &deadline
	s.UpdatedAt = now.UnixMilli()
	return s, nil
}

// Pause stops the countdown, capturing elapsed-aware remaining time from the
// deadline. Pausing a timer that is not running is a no-op.
func Pause(s State, now time.Time) (State, error) {
	if s.Status != StatusRunning || s.Deadline == nil {
		return s, nil
	}
	remaining := *s.Deadline - now.UnixMilli()
	if remaining < 0 {
		remaining = 0
	}
	s.Status = StatusPaused
	s.RemainingMs = remaining
	s.Deadline = nil
	s.UpdatedAt = now.UnixMilli()
	return s, nil
}

// Reset restores the full configured duration as a paused timer, regardless
// of prior status (including finished). With no duration configured it
// collapses to the idle default.
func Reset(s State, now time.Time) (State, error) {
	if s.TotalMs == 0 {
		return idleAt(now), nil
	}
	s.Status = StatusPaused
	s.RemainingMs = s.TotalMs
	s.Deadline = nil
	s.UpdatedAt = now.UnixMilli()
	return s, nil
}

// Clear unconditionally discards the timer.
func Clear(s State, now time.Time) (State, error) {
	return idleAt(now), nil
}

// AddTime adjusts both remaining and total time by deltaMs, which may be
// negative. On an empty timer a positive delta bootstraps a fresh custom
// timer. If the adjustment would leave nothing remaining the timer is
// cancelled outright rather than left at a negative value. While running the
// deadline is extended in place, preserving time already consumed.
func AddTime(s State, deltaMs int64, now time.Time) (State, error) {
	if s.TotalMs == 0 {
		if deltaMs > 0 {
			return SetDuration(s, deltaMs, "Custom", now)
		}
		return idleAt(now), nil
	}

	newRemaining := s.RemainingMs + deltaMs
	newTotal := s.TotalMs + deltaMs
	if newRemaining <= 0 {
		return idleAt(now), nil
	}

	if s.Status == StatusRunning && s.Deadline != nil {
		deadline := *s.Deadline + deltaMs
		s.RemainingMs = newRemaining
		s.TotalMs = newTotal
		s.Deadline = &deadline
		s.UpdatedAt = now.UnixMilli()
		return s, nil
	}

	s.Status = StatusPaused
	s.RemainingMs = newRemaining
	s.TotalMs = newTotal
	s.Deadline = nil
	s.UpdatedAt = now.UnixMilli()
	return s, nil
}

// TickFinish transitions a running timer whose deadline has passed to the
// finished state. Any other state is returned unchanged, which makes the
// transition idempotent: duplicate finish observations from multiple clients
// collapse into one.
func TickFinish(s State, now time.Time) (State, error) {
	if s.Status != StatusRunning || s.Deadline == nil {
		return s, nil
	}
	if now.UnixMilli() < *s.Deadline {
		return s, nil
	}
	s.Status = StatusFinished
	s.RemainingMs = 0
	s.Deadline = nil
	s.UpdatedAt = now.UnixMilli()
	return s, nil
}

// RemainingAt computes the displayed remaining time at a given instant.
// For a running timer this is derived from the deadline; otherwise it is
// the stored remaining value. Read-only: never mutates state.
func RemainingAt(s State, now time.Time) int64 {
	if s.Status == StatusRunning && s.Deadline != nil {
		remaining := *s.Deadline - now.UnixMilli()
		if remaining < 0 {
			return 0
		}
		return remaining
	}
	return s.RemainingMs
}

// FinishedAt reports whether a running timer's deadline has passed at the
// given instant. Read-only counterpart of TickFinish for client-side
// observation.
func FinishedAt(s State, now time.Time) bool {
	return s.Status == StatusRunning && s.Deadline != nil && now.UnixMilli() >= *s.Deadline
}
