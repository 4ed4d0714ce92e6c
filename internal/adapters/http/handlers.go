package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"photobooth/internal/application/projections"
	"photobooth/internal/domain/filter"
	"photobooth/internal/domain/session"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", handleStatusPage)
	mux.HandleFunc("/start", handleStart)
	mux.HandleFunc("/abort", handleAbort)
	mux.HandleFunc("/retake", handleRetake)
	mux.HandleFunc("/filter", handleFilter)
	mux.HandleFunc("/cancel", handleCancel)
	mux.HandleFunc("/done", handleDone)
	mux.HandleFunc("/api/status", handleAPIStatus)
	mux.HandleFunc("/api/sessions", handleAPISessions)
	mux.HandleFunc("/api/perf", handleAPIPerf)
}

// statusPage is the whole console UI. The booth screen polls
// /api/status for live updates; this page is the operator's view.
var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Photo Booth</title></head>
<body>
<h1>{{.EventRef}}</h1>
<div id="welcome">{{.Welcome}}</div>
<p id="message">{{.Message}}</p>
<p>State: {{.State}} ({{.PhotoIndex}}/{{.TotalPhotos}})</p>
{{if .ShowStart}}
<form method="POST" action="/start">{{.CSRFField}}<button>Start session</button></form>
{{else}}
<form method="POST" action="/abort">{{.CSRFField}}<button>Abort countdown</button></form>
{{end}}
<form method="POST" action="/cancel">{{.CSRFField}}
  <input type="password" name="pin" placeholder="Operator PIN">
  <button>Cancel session</button>
</form>
<form method="POST" action="/done">{{.CSRFField}}
  <input type="password" name="pin" placeholder="Operator PIN">
  <button>Done / clear</button>
</form>
</body>
</html>
`))

// handleStatusPage handles GET /
func handleStatusPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var welcome bytes.Buffer
	if err := mdRenderer.Convert([]byte(deps.WelcomeMarkdown), &welcome); err != nil {
		welcome.Reset()
		welcome.WriteString(template.HTMLEscapeString(deps.WelcomeMarkdown))
	}

	snap := deps.Controller.Snapshot()
	data := struct {
		EventRef    string
		Welcome     template.HTML
		Message     string
		State       string
		PhotoIndex  int
		TotalPhotos int
		ShowStart   bool
		CSRFField   template.HTML
	}{
		EventRef:    deps.EventRef,
		Welcome:     template.HTML(welcome.String()),
		Message:     deps.Status.Message(),
		State:       string(snap.State),
		PhotoIndex:  snap.CurrentPhotoIndex,
		TotalPhotos: snap.TotalPhotosNeeded,
		ShowStart:   deps.Status.ShowStartAffordance(),
		CSRFField:   csrf.TemplateField(r),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage.Execute(w, data); err != nil {
		slog.Error("status_page_render_failed", "error", err.Error())
	}
}

// handleAPIStatus handles GET /api/status
func handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap := deps.Controller.Snapshot()
	resp := struct {
		EventRef    string `json:"event_ref"`
		SessionID   string `json:"session_id,omitempty"`
		State       string `json:"state"`
		Message     string `json:"message"`
		ShowStart   bool   `json:"show_start"`
		PhotoIndex  int    `json:"photo_index"`
		TotalPhotos int    `json:"total_photos"`
	}{
		EventRef:    deps.EventRef,
		SessionID:   snap.ID,
		State:       string(snap.State),
		Message:     deps.Status.Message(),
		ShowStart:   deps.Status.ShowStartAffordance(),
		PhotoIndex:  snap.CurrentPhotoIndex,
		TotalPhotos: snap.TotalPhotosNeeded,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleStart handles POST /start
func handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := deps.Launcher.Launch(); err != nil {
		if errors.Is(err, session.ErrAlreadyActive) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		internalError(w, err)
		return
	}

	if isFormRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleAbort handles POST /abort. The signal is dropped when no
// countdown is listening; aborting an idle booth is a no-op.
func handleAbort(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	select {
	case deps.Abort <- struct{}{}:
		slog.Info("session_event", "event", "countdown_abort_requested")
	default:
	}

	if isFormRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRetake handles POST /retake. An empty slot list closes the
// review window without reshooting anything.
func handleRetake(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Slots []int `json:"slots"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid retake selection", http.StatusBadRequest)
		return
	}
	if body.Slots == nil {
		body.Slots = []int{}
	}

	select {
	case deps.RetakeSelections <- body.Slots:
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, "no review window open", http.StatusConflict)
	}
}

// handleFilter handles POST /filter with the guest's choice.
func handleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Choice string `json:"choice"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid filter selection", http.StatusBadRequest)
		return
	}
	choice, err := filter.ParseChoice(body.Choice)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	select {
	case deps.FilterChoices <- choice:
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, "no filter window open", http.StatusConflict)
	}
}

// handleCancel handles POST /cancel (PIN-guarded).
func handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !checkOperatorPIN(w, r) {
		return
	}

	if err := deps.Controller.Cancel(); err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		internalError(w, err)
		return
	}

	if isFormRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDone handles POST /done (PIN-guarded). Clear is idempotent so
// a double-tap on the done button is harmless.
func handleDone(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !checkOperatorPIN(w, r) {
		return
	}

	deps.Controller.Clear()

	if isFormRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAPISessions handles GET /api/sessions?event_ref=<ref>&limit=<n>
func handleAPISessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := projections.GetSessionHistoryQuery{
		EventRef: r.URL.Query().Get("event_ref"),
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			query.Limit = n
		}
	}

	result, err := projections.QueryGetSessionHistory(r.Context(), query, projections.GetSessionHistoryDeps{
		SessionStore:  deps.Stores.SessionStore,
		ArtifactStore: deps.Stores.ArtifactStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleAPIPerf handles GET /api/perf
func handleAPIPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}

	snap := perfCollector.Snapshot(timeNow().Add(-time.Hour), 10)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func isFormRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

// checkOperatorPIN validates the operator PIN from a form field or a
// JSON body. It writes the error response itself and returns false on
// rejection.
func checkOperatorPIN(w http.ResponseWriter, r *http.Request) bool {
	var pin string
	if isFormRequest(r) {
		r.ParseForm()
		pin = r.FormValue("pin")
	} else {
		var body struct {
			PIN string `json:"pin"`
		}
		strictDecode(r, &body)
		pin = body.PIN
	}

	if err := deps.Operator.CheckPIN(pin); err != nil {
		slog.Warn("operator_pin_rejected", "ip", r.RemoteAddr)
		http.Error(w, "wrong PIN", http.StatusForbidden)
		return false
	}
	return true
}
