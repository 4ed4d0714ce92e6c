package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"photobooth/internal/adapters/camera"
	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/domain/capture"
)

// TickFunc produces timer channels; injectable so tests run without
// real waiting. Nil means time.After.
type TickFunc func(d time.Duration) <-chan time.Time

// CapturePhotoInput carries input for one photo capture.
type CapturePhotoInput struct {
	SlotIndex        int
	IsRetake         bool
	CountdownSeconds int
	PhotographerMode bool
}

// CapturePhotoDeps holds dependencies for CapturePhoto.
type CapturePhotoDeps struct {
	Controller     *controller.Controller
	Dispatcher     *events.Dispatcher
	Camera         camera.Device
	WorkDir        string
	Policy         capture.RetryPolicy
	CaptureTimeout time.Duration

	// Abort signals an operator abort of the current countdown,
	// distinct from cancelling the whole session context.
	Abort <-chan struct{}

	Tick       TickFunc
	GenerateID func() string
	Now        func() time.Time
}

// CapturePhotoResult carries the outcome of a successful capture.
type CapturePhotoResult struct {
	Path             string
	SequenceComplete bool
}

// ExecuteCapturePhoto drives one photo: countdown (or photographer
// trigger wait), hardware trigger with bounded busy retry, the
// asynchronous callback wait with timeout, file transfer, and finally
// recording the photo on the session. A failure aborts only this
// photo; the session stays active for the operator to retry the slot.
// PRE: Session is active and the camera handle is free
// POST: On success the photo is recorded under a current attempt token
func ExecuteCapturePhoto(ctx context.Context, input CapturePhotoInput, deps CapturePhotoDeps) (CapturePhotoResult, error) {
	tick := deps.Tick
	if tick == nil {
		tick = time.After
	}
	timeout := deps.CaptureTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	// Starting a new attempt invalidates any result still in flight
	// for an older one: drain undelivered callbacks and bump the
	// generation token.
	drainStaleCallbacks(deps.Camera)
	token := deps.Controller.NextAttemptToken()
	attempt := capture.NewAttempt(token, input.SlotIndex, input.IsRetake, deps.Now())

	if input.PhotographerMode {
		// The photographer's button replaces the countdown; no
		// timeout applies while waiting for it.
		select {
		case <-ctx.Done():
			return CapturePhotoResult{}, capture.ErrCancelled
		case <-deps.Abort:
			return CapturePhotoResult{}, capture.ErrCancelled
		case <-deps.Camera.TriggerPressed():
		}
	} else {
		if err := runCountdown(ctx, input, deps, tick); err != nil {
			return CapturePhotoResult{}, err
		}
	}

	// Trigger with progressive backoff on device-busy.
	for {
		if err := attempt.Trigger(); err != nil {
			return CapturePhotoResult{}, err
		}
		err := deps.Camera.TriggerCapture(ctx)
		if err == nil {
			break
		}
		if !errors.Is(err, camera.ErrBusy) {
			attempt.Fail(err.Error())
			deps.Dispatcher.Publish(events.SessionError{Operation: "capture", Err: err.Error()})
			return CapturePhotoResult{}, fmt.Errorf("trigger capture: %w", err)
		}
		if busyErr := attempt.MarkBusy(deps.Policy); busyErr != nil {
			slog.Warn("capture_event", "event", "busy_retries_exhausted", "slot", input.SlotIndex, "retries", attempt.BusyRetries)
			deps.Dispatcher.Publish(events.SessionError{Operation: "capture", Err: busyErr.Error()})
			return CapturePhotoResult{}, busyErr
		}
		delay := deps.Policy.Delay(attempt.BusyRetries - 1)
		slog.Debug("capture_event", "event", "device_busy_retry", "slot", input.SlotIndex, "retry", attempt.BusyRetries, "delay", delay)
		select {
		case <-ctx.Done():
			return CapturePhotoResult{}, capture.ErrCancelled
		case <-tick(delay):
		}
	}

	deps.Dispatcher.Publish(events.CaptureStarted{SlotIndex: input.SlotIndex, IsRetake: input.IsRetake})
	if err := attempt.AwaitCallback(); err != nil {
		return CapturePhotoResult{}, err
	}

	// A cancel or timeout from here on cannot abort the in-flight
	// hardware call; the device is reset instead, which discards the
	// late frame so a later attempt never adopts it as its own.
	select {
	case <-ctx.Done():
		if err := deps.Camera.ForceReady(context.WithoutCancel(ctx)); err != nil {
			slog.Error("capture_event", "event", "force_ready_failed", "error", err.Error())
		}
		return CapturePhotoResult{}, capture.ErrCancelled
	case <-tick(timeout):
		_ = attempt.TimeOut()
		slog.Warn("capture_event", "event", "capture_timeout", "slot", input.SlotIndex, "timeout", timeout)
		if err := deps.Camera.ForceReady(ctx); err != nil {
			slog.Error("capture_event", "event", "force_ready_failed", "error", err.Error())
		}
		deps.Dispatcher.Publish(events.SessionError{Operation: "capture", Err: capture.ErrTimeout.Error()})
		return CapturePhotoResult{}, capture.ErrTimeout
	case h := <-deps.Camera.Captured():
		return finishCapture(ctx, input, deps, attempt, h)
	}
}

// runCountdown emits the started/tick/completed events while counting
// one second at a time. An operator abort or context cancel stops the
// timer deterministically before any trigger fires.
func runCountdown(ctx context.Context, input CapturePhotoInput, deps CapturePhotoDeps, tick TickFunc) error {
	seconds := input.CountdownSeconds
	if seconds <= 0 {
		seconds = 3
	}
	deps.Dispatcher.Publish(events.CountdownStarted{SlotIndex: input.SlotIndex, Seconds: seconds})
	for remaining := seconds; remaining > 0; remaining-- {
		deps.Dispatcher.Publish(events.CountdownTick{SlotIndex: input.SlotIndex, Remaining: remaining})
		select {
		case <-ctx.Done():
			return capture.ErrCancelled
		case <-deps.Abort:
			return capture.ErrCancelled
		case <-tick(time.Second):
		}
	}
	deps.Dispatcher.Publish(events.CountdownCompleted{SlotIndex: input.SlotIndex})
	return nil
}

// finishCapture transfers the frame, releases the handle, and records
// the photo if the attempt token is still current.
func finishCapture(ctx context.Context, input CapturePhotoInput, deps CapturePhotoDeps, attempt *capture.Attempt, h camera.Handle) (CapturePhotoResult, error) {
	destPath := filepath.Join(deps.WorkDir, fmt.Sprintf("capture-%s.png", deps.GenerateID()))

	transferErr := deps.Camera.TransferFile(ctx, h, destPath)

	// The handle is released on every path, even after a failed
	// transfer; a failed release downgrades to a force-clear.
	if err := deps.Camera.ReleaseResource(h); err != nil {
		slog.Warn("capture_event", "event", "release_failed", "error", err.Error())
		if err := deps.Camera.ForceReady(ctx); err != nil {
			slog.Error("capture_event", "event", "force_ready_failed", "error", err.Error())
		}
	}

	if transferErr != nil {
		attempt.Fail(transferErr.Error())
		deps.Dispatcher.Publish(events.SessionError{Operation: "capture", Err: transferErr.Error()})
		return CapturePhotoResult{}, fmt.Errorf("transfer capture: %w", transferErr)
	}
	if err := attempt.Succeed(destPath); err != nil {
		return CapturePhotoResult{}, err
	}

	complete, err := deps.Controller.RecordCapturedPhoto(attempt.Token, destPath, input.IsRetake, input.SlotIndex)
	if err != nil {
		if errors.Is(err, capture.ErrStaleAttempt) {
			slog.Debug("capture_event", "event", "stale_capture_suppressed", "slot", input.SlotIndex)
			return CapturePhotoResult{}, err
		}
		deps.Dispatcher.Publish(events.SessionError{Operation: "capture", Err: err.Error()})
		return CapturePhotoResult{}, err
	}

	deps.Dispatcher.Publish(events.CaptureCompleted{SlotIndex: input.SlotIndex, Path: destPath, IsRetake: input.IsRetake})
	slog.Info("capture_event", "event", "photo_captured", "slot", input.SlotIndex, "retake", input.IsRetake, "path", destPath)
	return CapturePhotoResult{Path: destPath, SequenceComplete: complete}, nil
}

// drainStaleCallbacks releases any frames whose callbacks arrived after
// their attempt was abandoned.
func drainStaleCallbacks(dev camera.Device) {
	for {
		select {
		case h := <-dev.Captured():
			slog.Debug("capture_event", "event", "stale_callback_drained")
			_ = dev.ReleaseResource(h)
		default:
			return
		}
	}
}
