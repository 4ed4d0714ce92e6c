package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// HTTPUploader posts artifacts to a gallery endpoint as multipart form
// data and reads the share URL from the JSON response.
type HTTPUploader struct {
	endpoint string
	apiKey   string
	eventRef string
	client   *http.Client
}

// NewHTTPUploader creates an uploader for the given endpoint.
// PRE: endpoint is an absolute URL
// POST: Returns an uploader with a bounded request timeout
func NewHTTPUploader(endpoint, apiKey, eventRef string) *HTTPUploader {
	return &HTTPUploader{
		endpoint: endpoint,
		apiKey:   apiKey,
		eventRef: eventRef,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload posts the file and returns the backend's share URL.
// PRE: path points to a finished artifact on disk
// POST: On success the artifact is stored remotely and the URL returned
func (u *HTTPUploader) Upload(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("event_ref", u.eventRef); err != nil {
		return Result{}, fmt.Errorf("write form field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return Result{}, fmt.Errorf("copy artifact: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return Result{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("upload rejected: status %d: %s", resp.StatusCode, string(snippet))
	}

	var payload struct {
		ShareURL string `json:"share_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("decode upload response: %w", err)
	}
	if payload.ShareURL == "" {
		return Result{}, fmt.Errorf("upload response missing share_url")
	}

	slog.Info("upload_event", "event", "artifact_uploaded", "path", path, "share_url", payload.ShareURL)
	return Result{ShareURL: payload.ShareURL, UploadedAt: time.Now()}, nil
}
