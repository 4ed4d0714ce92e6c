package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/compose"
	"photobooth/internal/domain/artifact"
	"photobooth/internal/domain/filter"
	"photobooth/internal/domain/photo"
	"photobooth/internal/domain/session"
)

// SessionStore persists completed sessions.
type SessionStore interface {
	Save(ctx context.Context, s session.Session) error
}

// PhotoStore persists captured photos.
type PhotoStore interface {
	Save(ctx context.Context, p photo.Photo) error
}

// ArtifactStore persists composed artifacts and their photo links.
type ArtifactStore interface {
	Save(ctx context.Context, a artifact.Artifact) error
	LinkPhotos(ctx context.Context, artifactID string, photoIDs []string) error
}

// Uploader pushes an artifact to the sharing backend and returns the
// public share URL.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// ShareNotifier delivers the share URL to the configured recipient.
type ShareNotifier interface {
	SendShareLink(ctx context.Context, to, shareURL string) error
}

// Printer sends an artifact file to the physical printer.
type Printer interface {
	Print(ctx context.Context, path string, format artifact.Format) error
}

// FinishSessionInput carries input for FinishSession.
type FinishSessionInput struct {
	Composed     compose.Result
	FilterChoice filter.Choice
}

// FinishSessionDeps holds dependencies for FinishSession. Uploader,
// Notifier, and Printer may each be nil to disable that step.
type FinishSessionDeps struct {
	Controller     *controller.Controller
	Dispatcher     *events.Dispatcher
	Sessions       SessionStore
	Photos         PhotoStore
	Artifacts      ArtifactStore
	Uploader       Uploader
	Notifier       ShareNotifier
	ShareRecipient string
	Printer        Printer
	AutoClearAfter time.Duration
	GenerateID     func() string
	Now            func() time.Time
}

// ExecuteFinishSession completes the session, persists its photos and
// artifacts, kicks off the best-effort upload and print steps in the
// background, and arms the auto-clear timer that returns the booth to
// idle. Upload and print failures never abort the session; they are
// reported as non-fatal errors and the completed artifacts stay on
// disk.
// PRE: The composed display artifact is recorded on the session
// POST: Session is complete and the auto-clear timer is armed
func ExecuteFinishSession(ctx context.Context, input FinishSessionInput, deps FinishSessionDeps) error {
	if err := deps.Controller.Complete(); err != nil {
		return err
	}
	snap := deps.Controller.Snapshot()
	deps.Dispatcher.Publish(events.SessionCompleted{
		SessionID:           snap.ID,
		ComposedDisplayPath: snap.ComposedDisplayPath,
		ComposedPrintPath:   snap.ComposedPrintPath,
	})
	slog.Info("session_event", "event", "session_completed", "session_id", snap.ID)

	if err := persistSession(ctx, input, deps, snap); err != nil {
		// The guest already has their artifacts; a persistence
		// failure is surfaced but does not undo completion.
		slog.Error("session_event", "event", "persist_failed", "session_id", snap.ID, "error", err.Error())
		deps.Dispatcher.Publish(events.SessionError{Operation: "persist", Err: err.Error()})
	}

	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go runPostComposition(bgCtx, input, deps, snap)
	deps.Controller.ArmAutoClear(deps.AutoClearAfter, cancel)
	return nil
}

func persistSession(ctx context.Context, input FinishSessionInput, deps FinishSessionDeps, snap session.Session) error {
	if deps.Sessions == nil {
		return nil
	}
	if err := deps.Sessions.Save(ctx, snap); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	photoType := photo.TypeOriginal
	if input.FilterChoice != filter.None {
		photoType = photo.TypeFiltered
	}
	photoIDs := make([]string, 0, len(snap.CapturedPhotoPaths))
	for i, path := range snap.CapturedPhotoPaths {
		p := photo.Photo{
			ID:             deps.GenerateID(),
			SessionID:      snap.ID,
			FilePath:       path,
			SequenceNumber: i,
			Type:           photoType,
			CreatedAt:      deps.Now(),
		}
		if err := deps.Photos.Save(ctx, p); err != nil {
			return fmt.Errorf("save photo %d: %w", i, err)
		}
		photoIDs = append(photoIDs, p.ID)
	}

	display := artifact.Artifact{
		ID:        deps.GenerateID(),
		SessionID: snap.ID,
		FilePath:  snap.ComposedDisplayPath,
		Format:    input.Composed.DisplayFormat,
		Kind:      artifact.KindDisplay,
		CreatedAt: deps.Now(),
	}
	if err := deps.Artifacts.Save(ctx, display); err != nil {
		return fmt.Errorf("save display artifact: %w", err)
	}
	if err := deps.Artifacts.LinkPhotos(ctx, display.ID, photoIDs); err != nil {
		return fmt.Errorf("link photos: %w", err)
	}

	if snap.ComposedPrintPath != "" {
		sheet := artifact.Artifact{
			ID:        deps.GenerateID(),
			SessionID: snap.ID,
			FilePath:  snap.ComposedPrintPath,
			Format:    input.Composed.PrintFormat,
			Kind:      artifact.KindPrint,
			CreatedAt: deps.Now(),
		}
		if err := deps.Artifacts.Save(ctx, sheet); err != nil {
			return fmt.Errorf("save print artifact: %w", err)
		}
		if err := deps.Artifacts.LinkPhotos(ctx, sheet.ID, photoIDs); err != nil {
			return fmt.Errorf("link photos: %w", err)
		}
	}
	return nil
}

// runPostComposition runs the upload and print steps. Both are
// best-effort: a failure publishes a non-fatal SessionError and the
// other step still runs. The context is cancelled by the auto-clear.
func runPostComposition(ctx context.Context, input FinishSessionInput, deps FinishSessionDeps, snap session.Session) {
	if deps.Uploader != nil {
		shareURL, err := deps.Uploader.Upload(ctx, snap.ComposedDisplayPath)
		if err != nil {
			slog.Warn("session_event", "event", "upload_failed", "session_id", snap.ID, "error", err.Error())
			deps.Dispatcher.Publish(events.SessionError{Operation: "upload", Err: err.Error()})
		} else {
			slog.Info("session_event", "event", "upload_completed", "session_id", snap.ID, "share_url", shareURL)
			if deps.Notifier != nil && deps.ShareRecipient != "" {
				if err := deps.Notifier.SendShareLink(ctx, deps.ShareRecipient, shareURL); err != nil {
					slog.Warn("session_event", "event", "share_notify_failed", "session_id", snap.ID, "error", err.Error())
					deps.Dispatcher.Publish(events.SessionError{Operation: "share", Err: err.Error()})
				}
			}
		}
	}

	if deps.Printer != nil {
		// The duplicated sheet prints when present; otherwise the
		// display artifact goes straight to paper.
		printPath, format := snap.ComposedDisplayPath, input.Composed.DisplayFormat
		if snap.ComposedPrintPath != "" {
			printPath, format = snap.ComposedPrintPath, input.Composed.PrintFormat
		}
		if err := deps.Printer.Print(ctx, printPath, format); err != nil {
			slog.Warn("session_event", "event", "print_failed", "session_id", snap.ID, "error", err.Error())
			deps.Dispatcher.Publish(events.SessionError{Operation: "print", Err: err.Error()})
		} else {
			slog.Info("session_event", "event", "print_submitted", "session_id", snap.ID, "path", printPath)
		}
	}
}
