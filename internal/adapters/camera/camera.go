// Package camera defines the hardware capture boundary. The capture
// workflow is the only consumer and owns the device exclusively for
// the duration of one attempt; the handle must be released on every
// exit path before the next attempt begins.
package camera

import (
	"context"
	"errors"
)

// Adapter errors
var (
	ErrBusy         = errors.New("camera device busy")
	ErrNotConnected = errors.New("camera not connected")
	ErrNoSuchHandle = errors.New("unknown capture handle")
)

// Handle is an opaque reference to a captured frame still held on the
// device. It is only valid until released.
type Handle string

// Status is the device's busy/connected flag pair.
type Status struct {
	Connected bool
	Busy      bool
}

// Device is the hardware capture SDK boundary. Captured frames arrive
// asynchronously on the Captured channel; photographer mode waits on
// TriggerPressed instead of running a countdown.
type Device interface {
	// TriggerCapture asks the hardware to take a photo. Returns
	// ErrBusy when the device cannot service the trigger right now.
	TriggerCapture(ctx context.Context) error

	// Captured delivers handles for completed captures.
	Captured() <-chan Handle

	// TransferFile moves a captured frame off the device.
	TransferFile(ctx context.Context, h Handle, destPath string) error

	// ReleaseResource frees the device-side frame. Failure to release
	// is recoverable: callers force-clear via ForceReady.
	ReleaseResource(h Handle) error

	// Status returns the busy/connected flags.
	Status() Status

	// ForceReady returns the device to a known-ready state, clearing
	// a stuck busy flag after a timeout or failed release. Frames from
	// triggers issued before the reset are discarded, never delivered:
	// an abandoned attempt's late callback must not reach whoever is
	// waiting on Captured next.
	ForceReady(ctx context.Context) error

	// TriggerPressed signals the photographer's manual hardware
	// button.
	TriggerPressed() <-chan struct{}
}
