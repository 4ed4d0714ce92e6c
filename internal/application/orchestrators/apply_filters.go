package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/compose"
	"photobooth/internal/domain/capture"
	"photobooth/internal/domain/filter"
)

// ApplyFiltersInput carries input for ApplyFilters.
type ApplyFiltersInput struct {
	Mode             filter.Mode
	AutoWeights      []filter.Weighted
	SelectionTimeout time.Duration
}

// ApplyFiltersDeps holds dependencies for ApplyFilters. Selection
// delivers the guest's interactive choice; Rand drives the auto-mode
// weighted pick and must return a value in [0, n).
type ApplyFiltersDeps struct {
	Controller *controller.Controller
	Dispatcher *events.Dispatcher
	WorkDir    string
	Selection  <-chan filter.Choice
	Rand       func(n int) int
	Tick       TickFunc
	GenerateID func() string
}

// ExecuteApplyFilters runs the optional filter stage. Off mode is a
// no-op. Auto mode picks from the configured weights; interactive mode
// waits for the guest's choice until the selection window expires, when
// it falls back to None. The chosen filter applies uniformly to every
// captured photo; a photo that fails to filter keeps its unfiltered
// original and the session continues.
// PRE: The captured sequence is complete
func ExecuteApplyFilters(ctx context.Context, input ApplyFiltersInput, deps ApplyFiltersDeps) (filter.Choice, error) {
	if input.Mode == filter.ModeOff {
		return filter.None, nil
	}
	tick := deps.Tick
	if tick == nil {
		tick = time.After
	}
	if err := deps.Controller.BeginFiltering(); err != nil {
		return filter.None, err
	}

	choice := filter.None
	switch input.Mode {
	case filter.ModeAuto:
		choice = filter.PickWeighted(input.AutoWeights, deps.Rand)
	case filter.ModeInteractive:
		deps.Dispatcher.Publish(events.FilterSelectionRequested{
			Choices: filter.Choices(),
			Seconds: int(input.SelectionTimeout / time.Second),
		})
		select {
		case <-ctx.Done():
			return filter.None, capture.ErrCancelled
		case <-tick(input.SelectionTimeout):
			slog.Info("session_event", "event", "filter_window_expired")
		case c := <-deps.Selection:
			choice = c
		}
	}

	deps.Dispatcher.Publish(events.FilterSelected{Choice: choice})
	slog.Info("session_event", "event", "filter_selected", "choice", string(choice))
	if choice == filter.None {
		return choice, nil
	}

	snap := deps.Controller.Snapshot()
	for i, src := range snap.CapturedPhotoPaths {
		dst := filepath.Join(deps.WorkDir, fmt.Sprintf("filtered-%s.png", deps.GenerateID()))
		if err := compose.ApplyFilter(choice, src, dst); err != nil {
			slog.Warn("session_event", "event", "filter_failed", "slot", i, "choice", string(choice), "error", err.Error())
			continue
		}
		if err := deps.Controller.ReplacePhotoPath(i, dst); err != nil {
			return choice, fmt.Errorf("replace filtered photo %d: %w", i, err)
		}
	}
	return choice, nil
}
