package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/domain/capture"
)

// RunRetakesInput carries input for RunRetakes.
type RunRetakesInput struct {
	ReviewTimeout    time.Duration
	AllowMultiple    bool
	CountdownSeconds int
	PhotographerMode bool
}

// RunRetakesDeps holds dependencies for RunRetakes. Selections
// delivers the operator's flagged slot indexes; each receive is one
// review round. A nil Selections channel means the review window can
// only expire or be cancelled.
type RunRetakesDeps struct {
	Controller *controller.Controller
	Dispatcher *events.Dispatcher
	Capture    CapturePhotoDeps
	Selections <-chan []int
	Tick       TickFunc
}

// ExecuteRunRetakes runs the post-capture review window. The operator
// may flag any subset of slots for reshoot; flagged slots are
// recaptured one at a time in ascending order, each replacing its
// original in place. When multiple selection is disabled only the
// lowest flagged slot is reshot and the window closes after it;
// otherwise the window reopens for further rounds until an empty
// selection or a timeout closes it.
// PRE: The captured sequence is complete
// POST: The sequence is still complete; photo count never changed
func ExecuteRunRetakes(ctx context.Context, input RunRetakesInput, deps RunRetakesDeps) error {
	tick := deps.Tick
	if tick == nil {
		tick = time.After
	}
	if err := deps.Controller.BeginReview(); err != nil {
		return err
	}

	total := deps.Controller.Snapshot().TotalPhotosNeeded
	for {
		var selected []int
		select {
		case <-ctx.Done():
			return capture.ErrCancelled
		case <-tick(input.ReviewTimeout):
			slog.Info("session_event", "event", "review_window_expired")
			return nil
		case selected = <-deps.Selections:
		}
		if len(selected) == 0 {
			return nil
		}

		slots := dedupSorted(selected)
		if !input.AllowMultiple && len(slots) > 1 {
			slog.Warn("session_event", "event", "retake_selection_truncated", "flagged", len(slots), "slot", slots[0])
			slots = slots[:1]
		}

		for _, slot := range slots {
			if slot < 0 || slot >= total {
				slog.Warn("session_event", "event", "retake_slot_out_of_range", "slot", slot, "total", total)
				continue
			}
			deps.Dispatcher.Publish(events.RetakeRequested{SlotIndex: slot})
			retakeInput := CapturePhotoInput{
				SlotIndex:        slot,
				IsRetake:         true,
				CountdownSeconds: input.CountdownSeconds,
				PhotographerMode: input.PhotographerMode,
			}
			if _, err := ExecuteCapturePhoto(ctx, retakeInput, deps.Capture); err != nil {
				if errors.Is(err, capture.ErrCancelled) {
					return err
				}
				// A failed retake keeps the original photo; the
				// sequence stays complete either way.
				slog.Warn("session_event", "event", "retake_failed", "slot", slot, "error", err.Error())
				deps.Dispatcher.Publish(events.SessionError{Operation: "retake", Err: err.Error()})
				continue
			}
			deps.Dispatcher.Publish(events.RetakeCompleted{SlotIndex: slot})
		}

		if !input.AllowMultiple {
			return nil
		}
	}
}

// dedupSorted returns the unique slots in ascending order. Retakes are
// strictly serialized, one recapture at a time.
func dedupSorted(slots []int) []int {
	seen := make(map[int]bool, len(slots))
	var out []int
	for _, s := range slots {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
