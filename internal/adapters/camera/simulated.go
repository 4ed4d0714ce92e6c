package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Simulated is an in-process Device for development and tests. It
// writes real PNG files so downstream stages exercise actual image
// decoding, and its failure modes (busy streaks, dropped callbacks)
// are scriptable to drive every recovery path.
type Simulated struct {
	mu         sync.Mutex
	dir        string
	latency    time.Duration
	busyStreak int
	dropNext   bool
	connected  bool
	busy       bool
	seq        int
	gen        int
	frames     map[Handle]string

	captured chan Handle
	pressed  chan struct{}
}

// SimulatedOption configures a Simulated device.
type SimulatedOption func(*Simulated)

// WithLatency sets the delay between trigger and callback.
func WithLatency(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.latency = d }
}

// WithBusyStreak makes the next n triggers answer ErrBusy.
func WithBusyStreak(n int) SimulatedOption {
	return func(s *Simulated) { s.busyStreak = n }
}

// NewSimulated creates a connected simulated camera writing frames
// under dir.
func NewSimulated(dir string, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		dir:       dir,
		connected: true,
		frames:    make(map[Handle]string),
		captured:  make(chan Handle, 4),
		pressed:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetBusyStreak scripts the next n triggers to answer ErrBusy.
func (s *Simulated) SetBusyStreak(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busyStreak = n
}

// DropNextCallback makes the next accepted trigger never deliver its
// callback, simulating a hung hardware SDK.
func (s *Simulated) DropNextCallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropNext = true
}

// SetLatency scripts the delay between trigger and callback for
// subsequent captures.
func (s *Simulated) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// PressTrigger simulates the photographer's manual button.
func (s *Simulated) PressTrigger() {
	select {
	case s.pressed <- struct{}{}:
	default:
	}
}

// TriggerCapture implements Device.
func (s *Simulated) TriggerCapture(ctx context.Context) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	if s.busyStreak > 0 {
		s.busyStreak--
		s.mu.Unlock()
		return ErrBusy
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	drop := s.dropNext
	s.dropNext = false
	s.seq++
	seq := s.seq
	gen := s.gen
	latency := s.latency
	s.mu.Unlock()

	go func() {
		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-ctx.Done():
				return
			}
		}
		if drop {
			return
		}
		path := filepath.Join(s.dir, fmt.Sprintf("frame-%04d.png", seq))
		if err := writeFrame(path, seq); err != nil {
			slog.Error("sim_camera_event", "event", "frame_write_failed", "error", err.Error())
			return
		}
		h := Handle(fmt.Sprintf("frame-%04d", seq))
		s.mu.Lock()
		if s.gen != gen {
			// The device was reset while this capture was in
			// flight: its frame belongs to an abandoned attempt.
			s.mu.Unlock()
			slog.Debug("sim_camera_event", "event", "stale_frame_discarded", "seq", seq)
			_ = os.Remove(path)
			return
		}
		s.frames[h] = path
		s.mu.Unlock()
		s.captured <- h
	}()
	return nil
}

// Captured implements Device.
func (s *Simulated) Captured() <-chan Handle {
	return s.captured
}

// TransferFile implements Device.
func (s *Simulated) TransferFile(_ context.Context, h Handle, destPath string) error {
	s.mu.Lock()
	src, ok := s.frames[h]
	s.mu.Unlock()
	if !ok {
		return ErrNoSuchHandle
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create transfer dir: %w", err)
	}
	return os.Rename(src, destPath)
}

// ReleaseResource implements Device.
func (s *Simulated) ReleaseResource(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.frames[h]; !ok {
		return ErrNoSuchHandle
	}
	delete(s.frames, h)
	s.busy = false
	return nil
}

// Status implements Device.
func (s *Simulated) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Connected: s.connected, Busy: s.busy}
}

// ForceReady implements Device. It clears the busy flag, forgets any
// held frames, drains undelivered callbacks, and advances the
// generation so in-flight captures discard their frames on arrival.
func (s *Simulated) ForceReady(_ context.Context) error {
	s.mu.Lock()
	s.busy = false
	s.gen++
	s.frames = make(map[Handle]string)
	s.mu.Unlock()
	for {
		select {
		case <-s.captured:
		default:
			return nil
		}
	}
}

// TriggerPressed implements Device.
func (s *Simulated) TriggerPressed() <-chan struct{} {
	return s.pressed
}

// writeFrame renders a small flat-color PNG, varying by sequence so
// consecutive shots differ.
func writeFrame(path string, seq int) error {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	c := color.RGBA{R: uint8(40 * seq % 256), G: uint8(90 + 30*seq%160), B: uint8(200 - 20*seq%180), A: 255}
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
