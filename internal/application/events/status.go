package events

import (
	"fmt"
	"sync"
)

// StatusRecorder folds the event stream into the single human-readable
// status line shown to guests and operators. Fatal session errors also
// flip ShowStartAffordance back on so the UI returns to its idle
// "start" screen.
type StatusRecorder struct {
	mu      sync.RWMutex
	message string
	idle    bool
}

// NewStatusRecorder starts in the idle state.
func NewStatusRecorder() *StatusRecorder {
	return &StatusRecorder{message: "Touch start to begin", idle: true}
}

// Message returns the current status line.
func (r *StatusRecorder) Message() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.message
}

// ShowStartAffordance reports whether the UI should offer "start".
func (r *StatusRecorder) ShowStartAffordance() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idle
}

// HandleEvent implements Subscriber.
func (r *StatusRecorder) HandleEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev := e.(type) {
	case SessionStarted:
		r.idle = false
		r.message = fmt.Sprintf("Get ready for %d photos!", ev.TotalPhotos)
	case CountdownTick:
		r.message = fmt.Sprintf("Photo %d in %d...", ev.SlotIndex+1, ev.Remaining)
	case CaptureStarted:
		r.message = "Smile!"
	case PhotoProcessed:
		if ev.IsComplete {
			r.message = "All photos captured"
		} else {
			r.message = fmt.Sprintf("Photo %d of %d done", ev.Index, ev.Total)
		}
	case RetakeRequested:
		r.message = fmt.Sprintf("Retaking photo %d", ev.SlotIndex+1)
	case FilterSelectionRequested:
		r.message = "Pick a filter"
	case CompositionStarted:
		r.message = "Creating your photo strip..."
	case CompositionCompleted:
		r.message = "Here it is!"
	case SessionCompleted:
		r.message = "All done - grab your print!"
	case SessionCleared:
		r.idle = true
		r.message = "Touch start to begin"
	case CompositionError:
		r.idle = true
		r.message = "Something went wrong creating your strip. Please start again."
	case SessionError:
		r.message = fmt.Sprintf("%s failed: %s", ev.Operation, ev.Err)
		if ev.Fatal {
			r.idle = true
		}
	}
}
