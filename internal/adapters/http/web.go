// Package web is the operator console: a small HTTP surface for
// starting, aborting, and clearing capture sessions, plus a status
// poll the booth front-of-house screen refreshes against.
package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"photobooth/internal/adapters/http/middleware"
	"photobooth/internal/adapters/http/perf"
	artifactStore "photobooth/internal/adapters/storage/artifact"
	sessionStore "photobooth/internal/adapters/storage/session"
	"photobooth/internal/application/controller"
	"photobooth/internal/application/events"
	"photobooth/internal/domain/filter"
	"photobooth/internal/domain/operator"
)

// Launcher starts a full booth session run in the background. It
// returns session.ErrAlreadyActive when a session is already running.
type Launcher interface {
	Launch() error
}

// Stores holds the read-side storage dependencies of the console.
type Stores struct {
	SessionStore  sessionStore.Store
	ArtifactStore artifactStore.Store
}

// Deps holds everything the console handlers touch. RetakeSelections
// and FilterChoices feed the review and filter windows of a running
// session; sends are non-blocking, so a selection posted while no
// window is open is simply dropped.
type Deps struct {
	Status           *events.StatusRecorder
	Controller       *controller.Controller
	Launcher         Launcher
	Abort            chan<- struct{}
	RetakeSelections chan<- []int
	FilterChoices    chan<- filter.Choice
	Operator         operator.Credentials
	Stores           *Stores

	EventRef        string
	WelcomeMarkdown string // shown on the status page, rendered via goldmark
	ArtifactDir     string // served read-only at /artifacts/
}

// loadCSRFKey reads the CSRF secret from BOOTH_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("BOOTH_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("BOOTH_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("BOOTH_ENV") == "production" {
		log.Fatal("BOOTH_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (forms break on restart). Set BOOTH_CSRF_KEY for production.")
	return key
}

// Global deps instance (set by NewMux)
var deps *Deps

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires the console handlers.
func NewMux(d *Deps, collector *perf.Collector) http.Handler {
	deps = d
	perfCollector = collector

	mux := http.NewServeMux()
	registerRoutes(mux)
	if d.ArtifactDir != "" {
		mux.Handle("/artifacts/", http.StripPrefix("/artifacts/", http.FileServer(http.Dir(d.ArtifactDir))))
	}

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, []string{"localhost:8080", "127.0.0.1:8080"}),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
