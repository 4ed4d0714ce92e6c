package orchestrators

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"photobooth/internal/adapters/camera"
	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/compose"
	"photobooth/internal/domain/artifact"
	"photobooth/internal/domain/capture"
	"photobooth/internal/domain/filter"
	"photobooth/internal/domain/photo"
	"photobooth/internal/domain/session"
)

type mockSessionStore struct {
	mu    sync.Mutex
	saved []session.Session
	err   error
}

func (m *mockSessionStore) Save(_ context.Context, s session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

type mockPhotoStore struct {
	mu    sync.Mutex
	saved []photo.Photo
}

func (m *mockPhotoStore) Save(_ context.Context, p photo.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, p)
	return nil
}

type mockArtifactStore struct {
	mu    sync.Mutex
	saved []artifact.Artifact
	links map[string][]string
}

func (m *mockArtifactStore) Save(_ context.Context, a artifact.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, a)
	return nil
}

func (m *mockArtifactStore) LinkPhotos(_ context.Context, artifactID string, photoIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = make(map[string][]string)
	}
	m.links[artifactID] = photoIDs
	return nil
}

type mockUploader struct {
	mu       sync.Mutex
	uploaded []string
	url      string
	err      error
	done     chan struct{}
}

func (m *mockUploader) Upload(_ context.Context, path string) (string, error) {
	m.mu.Lock()
	m.uploaded = append(m.uploaded, path)
	m.mu.Unlock()
	if m.done != nil {
		close(m.done)
	}
	return m.url, m.err
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func (m *mockNotifier) SendShareLink(_ context.Context, to, shareURL string) error {
	m.mu.Lock()
	m.sent = append(m.sent, to+" "+shareURL)
	m.mu.Unlock()
	if m.done != nil {
		close(m.done)
	}
	return nil
}

type mockPrinter struct {
	mu      sync.Mutex
	printed []string
	err     error
	done    chan struct{}
}

func (m *mockPrinter) Print(_ context.Context, path string, _ artifact.Format) error {
	m.mu.Lock()
	m.printed = append(m.printed, path)
	m.mu.Unlock()
	if m.done != nil {
		close(m.done)
	}
	return m.err
}

func newFinishFixture(t *testing.T) (FinishSessionDeps, *controller.Controller, *recorder) {
	t.Helper()
	dir := t.TempDir()
	rec := &recorder{}
	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe(rec)
	ctrl := controller.New(dispatcher, fixedNow)
	capDeps := CapturePhotoDeps{
		Controller:     ctrl,
		Dispatcher:     dispatcher,
		Camera:         camera.NewSimulated(dir),
		WorkDir:        dir,
		Policy:         capture.DefaultRetryPolicy(),
		CaptureTimeout: time.Minute,
		Tick:           fastTick(time.Minute),
		GenerateID:     sequentialIDs("cap"),
		Now:            fixedNow,
	}
	captureFullSequence(t, ctrl, capDeps, 2)
	if err := ctrl.BeginComposing(); err != nil {
		t.Fatalf("BeginComposing: %v", err)
	}
	if err := ctrl.SetComposedPaths(dir+"/display.png", dir+"/print.png"); err != nil {
		t.Fatalf("SetComposedPaths: %v", err)
	}
	return FinishSessionDeps{
		Controller:     ctrl,
		Dispatcher:     dispatcher,
		Sessions:       &mockSessionStore{},
		Photos:         &mockPhotoStore{},
		Artifacts:      &mockArtifactStore{},
		AutoClearAfter: time.Hour,
		GenerateID:     sequentialIDs("id"),
		Now:            fixedNow,
	}, ctrl, rec
}

func finishInput() FinishSessionInput {
	return FinishSessionInput{
		Composed: compose.Result{
			DisplayFormat: artifact.Format2x6,
			PrintFormat:   artifact.Format4x6,
		},
		FilterChoice: filter.None,
	}
}

func TestExecuteFinishSession_PersistsEverything(t *testing.T) {
	deps, ctrl, rec := newFinishFixture(t)
	sessions := deps.Sessions.(*mockSessionStore)
	photos := deps.Photos.(*mockPhotoStore)
	artifacts := deps.Artifacts.(*mockArtifactStore)

	if err := ExecuteFinishSession(context.Background(), finishInput(), deps); err != nil {
		t.Fatalf("ExecuteFinishSession: %v", err)
	}

	if ctrl.Snapshot().State != session.StateComplete {
		t.Errorf("state = %s, want complete", ctrl.Snapshot().State)
	}
	if rec.count("session_completed") != 1 {
		t.Error("session_completed not published")
	}
	if len(sessions.saved) != 1 || sessions.saved[0].State != session.StateComplete {
		t.Fatalf("session not persisted complete: %+v", sessions.saved)
	}
	if len(photos.saved) != 2 {
		t.Fatalf("photos persisted = %d, want 2", len(photos.saved))
	}
	for i, p := range photos.saved {
		if p.SequenceNumber != i || p.Type != photo.TypeOriginal {
			t.Errorf("photo %d wrong: %+v", i, p)
		}
	}
	if len(artifacts.saved) != 2 {
		t.Fatalf("artifacts persisted = %d, want 2 (display+print)", len(artifacts.saved))
	}
	if artifacts.saved[0].Kind != artifact.KindDisplay || artifacts.saved[1].Kind != artifact.KindPrint {
		t.Errorf("artifact kinds wrong: %+v", artifacts.saved)
	}
	for _, a := range artifacts.saved {
		if len(artifacts.links[a.ID]) != 2 {
			t.Errorf("artifact %s linked to %d photos, want 2", a.ID, len(artifacts.links[a.ID]))
		}
	}
}

func TestExecuteFinishSession_FilteredPhotosPersistedAsFiltered(t *testing.T) {
	deps, _, _ := newFinishFixture(t)
	photos := deps.Photos.(*mockPhotoStore)

	input := finishInput()
	input.FilterChoice = filter.Sepia
	if err := ExecuteFinishSession(context.Background(), input, deps); err != nil {
		t.Fatalf("ExecuteFinishSession: %v", err)
	}
	for _, p := range photos.saved {
		if p.Type != photo.TypeFiltered {
			t.Errorf("photo type = %s, want filtered", p.Type)
		}
	}
}

func TestExecuteFinishSession_UploadAndPrintRun(t *testing.T) {
	deps, _, _ := newFinishFixture(t)
	up := &mockUploader{url: "https://share.example/abc", done: make(chan struct{})}
	notify := &mockNotifier{done: make(chan struct{})}
	printer := &mockPrinter{done: make(chan struct{})}
	deps.Uploader = up
	deps.Notifier = notify
	deps.ShareRecipient = "guest@example.com"
	deps.Printer = printer

	if err := ExecuteFinishSession(context.Background(), finishInput(), deps); err != nil {
		t.Fatalf("ExecuteFinishSession: %v", err)
	}

	for name, done := range map[string]chan struct{}{"upload": up.done, "notify": notify.done, "print": printer.done} {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s step never ran", name)
		}
	}
	printer.mu.Lock()
	defer printer.mu.Unlock()
	if len(printer.printed) != 1 || printer.printed[0] == "" {
		t.Fatalf("printed = %v", printer.printed)
	}
	// The duplicated sheet wins over the display artifact.
	if got := printer.printed[0]; got[len(got)-9:] != "print.png" {
		t.Errorf("printed %s, want the print sheet", got)
	}
}

func TestExecuteFinishSession_UploadFailureIsNonFatal(t *testing.T) {
	deps, ctrl, rec := newFinishFixture(t)
	up := &mockUploader{err: errors.New("network down"), done: make(chan struct{})}
	printer := &mockPrinter{done: make(chan struct{})}
	deps.Uploader = up
	deps.Printer = printer

	if err := ExecuteFinishSession(context.Background(), finishInput(), deps); err != nil {
		t.Fatalf("ExecuteFinishSession: %v", err)
	}
	<-up.done
	select {
	case <-printer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("print must still run after a failed upload")
	}
	if ctrl.Snapshot().State != session.StateComplete {
		t.Error("upload failure must not undo completion")
	}
	deadline := time.After(2 * time.Second)
	for rec.count("session_error") == 0 {
		select {
		case <-deadline:
			t.Fatal("non-fatal session_error for the upload never published")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestExecuteFinishSession_PersistenceFailureIsSurfacedNotFatal(t *testing.T) {
	deps, ctrl, rec := newFinishFixture(t)
	deps.Sessions = &mockSessionStore{err: errors.New("disk full")}

	if err := ExecuteFinishSession(context.Background(), finishInput(), deps); err != nil {
		t.Fatalf("ExecuteFinishSession: %v", err)
	}
	if ctrl.Snapshot().State != session.StateComplete {
		t.Error("persistence failure must not undo completion")
	}
	if rec.count("session_error") != 1 {
		t.Errorf("session_error published %d times, want 1", rec.count("session_error"))
	}
}

func TestExecuteFinishSession_RequiresComposedArtifact(t *testing.T) {
	dir := t.TempDir()
	dispatcher := events.NewDispatcher()
	ctrl := controller.New(dispatcher, fixedNow)
	capDeps := CapturePhotoDeps{
		Controller:     ctrl,
		Dispatcher:     dispatcher,
		Camera:         camera.NewSimulated(dir),
		WorkDir:        dir,
		Policy:         capture.DefaultRetryPolicy(),
		CaptureTimeout: time.Minute,
		Tick:           fastTick(time.Minute),
		GenerateID:     sequentialIDs("cap"),
		Now:            fixedNow,
	}
	captureFullSequence(t, ctrl, capDeps, 1)
	if err := ctrl.BeginComposing(); err != nil {
		t.Fatalf("BeginComposing: %v", err)
	}

	deps := FinishSessionDeps{Controller: ctrl, Dispatcher: dispatcher, GenerateID: sequentialIDs("id"), Now: fixedNow, AutoClearAfter: time.Hour}
	if err := ExecuteFinishSession(context.Background(), finishInput(), deps); !errors.Is(err, session.ErrCompositionUnavailable) {
		t.Fatalf("err = %v, want ErrCompositionUnavailable", err)
	}
}
