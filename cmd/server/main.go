package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"photobooth/internal/adapters/camera"
	web "photobooth/internal/adapters/http"
	"photobooth/internal/adapters/http/perf"
	"photobooth/internal/adapters/printing"
	"photobooth/internal/adapters/share"
	"photobooth/internal/adapters/storage"
	artifactStore "photobooth/internal/adapters/storage/artifact"
	photoStore "photobooth/internal/adapters/storage/photo"
	sessionStore "photobooth/internal/adapters/storage/session"
	"photobooth/internal/adapters/templates"
	"photobooth/internal/adapters/upload"
	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/application/orchestrators"
	"photobooth/internal/compose"
	"photobooth/internal/config"
	"photobooth/internal/domain/filter"
	"photobooth/internal/domain/operator"
	"photobooth/internal/domain/session"
	"photobooth/internal/domain/template"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// uploadAdapter narrows the upload adapter to the share-URL string the
// orchestrator cares about.
type uploadAdapter struct {
	uploader upload.Uploader
}

func (a uploadAdapter) Upload(ctx context.Context, path string) (string, error) {
	result, err := a.uploader.Upload(ctx, path)
	if err != nil {
		return "", err
	}
	return result.ShareURL, nil
}

// shareAdapter binds the event ref into the notifier's link requests.
type shareAdapter struct {
	notifier share.Notifier
	eventRef string
}

func (a shareAdapter) SendShareLink(ctx context.Context, to, shareURL string) error {
	_, err := a.notifier.SendLink(ctx, share.LinkRequest{To: to, EventRef: a.eventRef, ShareURL: shareURL})
	return err
}

// boothLauncher runs one full session per Launch call. The controller
// rejects overlapping sessions, so the active check here is just a
// fast path for a synchronous 409 on the console.
type boothLauncher struct {
	ctrl  *controller.Controller
	input orchestrators.RunSessionInput
	deps  orchestrators.RunSessionDeps
}

func (l *boothLauncher) Launch() error {
	if l.ctrl.Snapshot().IsActive() {
		return session.ErrAlreadyActive
	}
	go func() {
		if err := orchestrators.ExecuteRunSession(context.Background(), l.input, l.deps); err != nil {
			slog.Error("session_run_failed", "error", err.Error())
		}
	}()
	return nil
}

// sessionRuntime groups the long-lived pieces the session workflow is
// wired onto.
type sessionRuntime struct {
	ctrl             *controller.Controller
	dispatcher       *events.Dispatcher
	camera           camera.Device
	captureDir       string
	artifactDir      string
	abort            chan struct{}
	retakeSelections chan []int
	filterChoices    chan filter.Choice
	sessions         orchestrators.SessionStore
	photos           orchestrators.PhotoStore
	artifacts        orchestrators.ArtifactStore
	uploader         upload.Uploader
	notifier         share.Notifier
	printer          printing.Printer
}

// buildSessionRun assembles the orchestrator wiring for one booth run.
// Every deps level carries the real clock and ID generator; a nil
// function here is a crash on the first session.
func buildSessionRun(cfg config.Config, tmpl template.Template, weights []filter.Weighted, rt sessionRuntime) (orchestrators.RunSessionInput, orchestrators.RunSessionDeps) {
	captureDeps := orchestrators.CapturePhotoDeps{
		Controller:     rt.ctrl,
		Dispatcher:     rt.dispatcher,
		Camera:         rt.camera,
		WorkDir:        rt.captureDir,
		Policy:         cfg.RetryPolicy(),
		CaptureTimeout: cfg.CaptureTimeout,
		Abort:          rt.abort,
		GenerateID:     uuid.NewString,
		Now:            time.Now,
	}

	deps := orchestrators.RunSessionDeps{
		Controller: rt.ctrl,
		Dispatcher: rt.dispatcher,
		GenerateID: uuid.NewString,
		Capture:    captureDeps,
		Retakes: orchestrators.RunRetakesDeps{
			Controller: rt.ctrl,
			Dispatcher: rt.dispatcher,
			Capture:    captureDeps,
			Selections: rt.retakeSelections,
		},
		Filters: orchestrators.ApplyFiltersDeps{
			Controller: rt.ctrl,
			Dispatcher: rt.dispatcher,
			WorkDir:    rt.captureDir,
			Selection:  rt.filterChoices,
			Rand:       rand.Intn,
			GenerateID: uuid.NewString,
		},
		Compose: orchestrators.ComposeSessionDeps{
			Controller: rt.ctrl,
			Dispatcher: rt.dispatcher,
			Template:   tmpl,
			Options: compose.Options{
				OutputDir:      rt.artifactDir,
				BaseName:       "strip",
				DuplicateStrip: cfg.DuplicateStrip,
				Orientation:    cfg.Orientation(),
			},
		},
		Finish: orchestrators.FinishSessionDeps{
			Controller:     rt.ctrl,
			Dispatcher:     rt.dispatcher,
			Sessions:       rt.sessions,
			Photos:         rt.photos,
			Artifacts:      rt.artifacts,
			GenerateID:     uuid.NewString,
			Now:            time.Now,
			Uploader:       uploadAdapter{uploader: rt.uploader},
			Notifier:       shareAdapter{notifier: rt.notifier, eventRef: cfg.EventRef},
			ShareRecipient: cfg.ShareTo,
			Printer:        rt.printer,
			AutoClearAfter: cfg.AutoClear(),
		},
	}

	input := orchestrators.RunSessionInput{
		EventRef:          cfg.EventRef,
		TemplateRef:       tmpl.ID,
		TotalPhotosNeeded: tmpl.PlaceholderCount(),
		CountdownSeconds:  cfg.CountdownSeconds,
		PhotographerMode:  cfg.PhotographerMode,
		RetakesEnabled:    cfg.RetakeEnabled,
		Retakes: orchestrators.RunRetakesInput{
			ReviewTimeout:    cfg.ReviewTimeout(),
			AllowMultiple:    cfg.RetakeMulti,
			CountdownSeconds: cfg.CountdownSeconds,
			PhotographerMode: cfg.PhotographerMode,
		},
		Filters: orchestrators.ApplyFiltersInput{
			Mode:             cfg.Mode(),
			AutoWeights:      weights,
			SelectionTimeout: cfg.FilterTimeout(),
		},
		MaxSlotRestarts: 2,
	}
	return input, deps
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration invalid: %v", err)
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	timedDB := storage.NewTimedDB(db)
	sessions := sessionStore.NewSQLiteStore(timedDB)
	photos := photoStore.NewSQLiteStore(timedDB)
	artifacts := artifactStore.NewSQLiteStore(timedDB)

	tmpl, err := templates.LoadFile(cfg.TemplatePath)
	if err != nil {
		log.Fatalf("failed to load template: %v", err)
	}
	totalPhotos := tmpl.PlaceholderCount()
	if totalPhotos < 1 {
		log.Fatalf("template %s has no photo placeholders", tmpl.ID)
	}

	captureDir := filepath.Join(cfg.WorkDir, "captures")
	cameraDir := filepath.Join(cfg.WorkDir, "camera")
	artifactDir := filepath.Join(cfg.WorkDir, "artifacts")
	for _, dir := range []string{captureDir, cameraDir, artifactDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	dispatcher := events.NewDispatcher()
	status := events.NewStatusRecorder()
	dispatcher.Subscribe(status)
	ctrl := controller.New(dispatcher, nil)

	cam := camera.NewSimulated(cameraDir)
	abort := make(chan struct{}, 1)
	retakeSelections := make(chan []int, 1)
	filterChoices := make(chan filter.Choice, 1)

	weights, err := cfg.FilterWeights()
	if err != nil {
		log.Fatalf("invalid filter weights: %v", err)
	}

	// Upload, share, and print steps fall back to logging no-ops when
	// unconfigured, same machinery either way.
	var uploader upload.Uploader = upload.NewNoopUploader()
	if cfg.UploadURL != "" {
		uploader = upload.NewHTTPUploader(cfg.UploadURL, cfg.UploadAPIKey, cfg.EventRef)
		log.Println("Uploader configured (HTTP)")
	}
	var notifier share.Notifier = share.NewNoopNotifier()
	if cfg.ResendAPIKey != "" {
		notifier = share.NewResendNotifier(cfg.ResendAPIKey, cfg.ShareFrom)
		log.Println("Share notifier configured (Resend)")
	}
	var printer printing.Printer = printing.NewNoopPrinter()
	if cfg.PrintEnabled {
		printer = printing.NewLPPrinter(cfg.PrinterName)
		log.Printf("Printer configured (lp, printer=%q)", cfg.PrinterName)
	}

	runInput, runDeps := buildSessionRun(cfg, tmpl, weights, sessionRuntime{
		ctrl:             ctrl,
		dispatcher:       dispatcher,
		camera:           cam,
		captureDir:       captureDir,
		artifactDir:      artifactDir,
		abort:            abort,
		retakeSelections: retakeSelections,
		filterChoices:    filterChoices,
		sessions:         sessions,
		photos:           photos,
		artifacts:        artifacts,
		uploader:         uploader,
		notifier:         notifier,
		printer:          printer,
	})

	collector := perf.NewCollector(perf.DefaultRingSize)
	webDeps := &web.Deps{
		Status:           status,
		Controller:       ctrl,
		Launcher:         &boothLauncher{ctrl: ctrl, input: runInput, deps: runDeps},
		Abort:            abort,
		RetakeSelections: retakeSelections,
		FilterChoices:    filterChoices,
		Operator:         operator.Credentials{PINHash: cfg.OperatorPINHash},
		Stores:           &web.Stores{SessionStore: sessions, ArtifactStore: artifacts},
		EventRef:         cfg.EventRef,
		WelcomeMarkdown:  cfg.WelcomeText,
		ArtifactDir:      artifactDir,
	}
	mux := web.NewMux(webDeps, collector)

	log.Printf("Photo booth %s starting on %s (event=%s, template=%s, photos=%d, schema=%d)",
		version, cfg.HTTPAddr, cfg.EventRef, tmpl.ID, totalPhotos, storage.LatestSchemaVersion())

	if err := http.ListenAndServe(cfg.HTTPAddr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
