package capture

import (
	"errors"
	"time"
)

// Attempt states for the capture sub-machine.
const (
	StateIdle             = "idle"
	StateTriggered        = "triggered"
	StateAwaitingCallback = "awaiting_callback"
	StateSucceeded        = "succeeded"
	StateRetrying         = "retrying"
	StateFailed           = "failed"
	StateTimedOut         = "timed_out"
)

// Domain errors.
var (
	ErrTooBusy           = errors.New("camera busy beyond retry limit")
	ErrTimeout           = errors.New("no capture callback within the timeout")
	ErrCancelled         = errors.New("capture cancelled by operator")
	ErrStaleAttempt      = errors.New("capture result belongs to a superseded attempt")
	ErrInvalidTransition = errors.New("invalid capture attempt transition")
)

// RetryPolicy bounds the busy-retry loop. One policy covers both the
// standard and retake capture paths.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy returns the production busy-retry bounds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		MaxAttempts: 8,
	}
}

// Delay calculates the wait before the given retry attempt.
// Uses exponential backoff: 2^attempt * BaseDelay, capped at MaxDelay.
// PRE: attempt >= 0
// POST: Returns a duration in [BaseDelay, MaxDelay]
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay * (1 << attempt)
	if delay > p.MaxDelay || delay <= 0 {
		return p.MaxDelay
	}
	return delay
}

// Exhausted reports whether the retry budget is spent.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}

// Attempt tracks one in-flight capture of one photo slot. Token is the
// generation counter used to suppress stale results: results carrying a
// superseded token must never reach session state.
type Attempt struct {
	Token         uint64
	SlotIndex     int
	IsRetake      bool
	State         string
	StartedAt     time.Time
	BusyRetries   int
	FilePath      string
	FailureReason string
}

// NewAttempt starts a fresh attempt for a photo slot.
func NewAttempt(token uint64, slotIndex int, isRetake bool, now time.Time) *Attempt {
	return &Attempt{
		Token:     token,
		SlotIndex: slotIndex,
		IsRetake:  isRetake,
		State:     StateIdle,
		StartedAt: now,
	}
}

// Trigger records that the hardware trigger has been issued.
// PRE: Attempt is idle or retrying
func (a *Attempt) Trigger() error {
	if a.State != StateIdle && a.State != StateRetrying {
		return ErrInvalidTransition
	}
	a.State = StateTriggered
	return nil
}

// MarkBusy records a device-busy response to a trigger. The attempt
// moves to retrying until the policy is exhausted, then to failed.
// POST: Returns ErrTooBusy once the retry budget is spent
func (a *Attempt) MarkBusy(policy RetryPolicy) error {
	if a.State != StateTriggered && a.State != StateRetrying {
		return ErrInvalidTransition
	}
	a.BusyRetries++
	if policy.Exhausted(a.BusyRetries) {
		a.State = StateFailed
		a.FailureReason = ErrTooBusy.Error()
		return ErrTooBusy
	}
	a.State = StateRetrying
	return nil
}

// AwaitCallback records that the trigger was accepted and the attempt
// is now waiting on the asynchronous capture callback.
// PRE: Attempt was triggered
func (a *Attempt) AwaitCallback() error {
	if a.State != StateTriggered {
		return ErrInvalidTransition
	}
	a.State = StateAwaitingCallback
	return nil
}

// Succeed records the transferred file path.
// PRE: Attempt was awaiting its callback
func (a *Attempt) Succeed(filePath string) error {
	if a.State != StateAwaitingCallback {
		return ErrInvalidTransition
	}
	a.State = StateSucceeded
	a.FilePath = filePath
	return nil
}

// Fail marks the attempt failed with a reason. Failure aborts only the
// current photo, never the whole session.
func (a *Attempt) Fail(reason string) {
	a.State = StateFailed
	a.FailureReason = reason
}

// TimeOut abandons an attempt whose callback never arrived.
// PRE: Attempt was awaiting its callback
func (a *Attempt) TimeOut() error {
	if a.State != StateAwaitingCallback {
		return ErrInvalidTransition
	}
	a.State = StateTimedOut
	a.FailureReason = ErrTimeout.Error()
	return nil
}

// Terminal reports whether the attempt has reached a final state.
func (a *Attempt) Terminal() bool {
	switch a.State {
	case StateSucceeded, StateFailed, StateTimedOut:
		return true
	}
	return false
}
