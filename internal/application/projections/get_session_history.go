package projections

import (
	"context"
	"fmt"
	"time"

	"photobooth/internal/adapters/storage/session"
	domainArtifact "photobooth/internal/domain/artifact"
	domainSession "photobooth/internal/domain/session"
)

// GetSessionHistoryQuery carries query parameters.
type GetSessionHistoryQuery struct {
	EventRef string // empty means all events
	Limit    int    // 0 means DefaultHistoryLimit
}

// DefaultHistoryLimit bounds the history view for the console.
const DefaultHistoryLimit = 50

// GetSessionHistoryDeps holds query dependencies.
type GetSessionHistoryDeps struct {
	SessionStore  SessionStore
	ArtifactStore ArtifactStore
}

// SessionSummary is one row of the operator's history view.
type SessionSummary struct {
	ID          string    `json:"id"`
	EventRef    string    `json:"event_ref"`
	State       string    `json:"state"`
	PhotoCount  int       `json:"photo_count"`
	DisplayPath string    `json:"display_path,omitempty"`
	PrintPath   string    `json:"print_path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// SessionHistoryResult is the full history view.
type SessionHistoryResult struct {
	Sessions       []SessionSummary `json:"sessions"`
	CompletedCount int              `json:"completed_count"`
	CancelledCount int              `json:"cancelled_count"`
}

// QueryGetSessionHistory returns recent sessions, newest first, with
// their composed artifact paths and completion tallies.
// PRE: deps.SessionStore and deps.ArtifactStore are non-nil
// POST: Returns at most Limit rows; counts cover the whole store
func QueryGetSessionHistory(ctx context.Context, query GetSessionHistoryQuery, deps GetSessionHistoryDeps) (SessionHistoryResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var (
		sessions []domainSession.Session
		err      error
	)
	if query.EventRef != "" {
		sessions, err = deps.SessionStore.ListByEventRef(ctx, query.EventRef)
		if err == nil && len(sessions) > limit {
			sessions = sessions[:limit]
		}
	} else {
		sessions, err = deps.SessionStore.List(ctx, session.ListFilter{Limit: limit})
	}
	if err != nil {
		return SessionHistoryResult{}, fmt.Errorf("list sessions: %w", err)
	}

	result := SessionHistoryResult{Sessions: make([]SessionSummary, 0, len(sessions))}
	for _, s := range sessions {
		summary := SessionSummary{
			ID:          s.ID,
			EventRef:    s.EventRef,
			State:       string(s.State),
			PhotoCount:  len(s.CapturedPhotoPaths),
			StartedAt:   s.StartedAt,
			CompletedAt: s.CompletedAt,
		}
		artifacts, err := deps.ArtifactStore.ListBySessionID(ctx, s.ID)
		if err != nil {
			return SessionHistoryResult{}, fmt.Errorf("list artifacts for %s: %w", s.ID, err)
		}
		for _, a := range artifacts {
			switch a.Kind {
			case domainArtifact.KindDisplay:
				summary.DisplayPath = a.FilePath
			case domainArtifact.KindPrint:
				summary.PrintPath = a.FilePath
			}
		}
		result.Sessions = append(result.Sessions, summary)
	}

	completed, err := deps.SessionStore.CountByState(ctx, domainSession.StateComplete)
	if err != nil {
		return SessionHistoryResult{}, fmt.Errorf("count completed: %w", err)
	}
	cancelled, err := deps.SessionStore.CountByState(ctx, domainSession.StateCancelled)
	if err != nil {
		return SessionHistoryResult{}, fmt.Errorf("count cancelled: %w", err)
	}
	result.CompletedCount = completed
	result.CancelledCount = cancelled
	return result, nil
}
