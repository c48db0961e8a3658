package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/alem-hub/adaptive-learning/internal/application/command"
	"github.com/alem-hub/adaptive-learning/internal/application/query"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// UserIDHeader carries the id of the learner, authenticated by the host.
const UserIDHeader = "X-User-ID"

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"uptime": s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// REVISIONS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetRevisions returns the learner's pending revisions as a bare list
// of {url, name, due_date}.
func (s *Server) handleGetRevisions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Revisions == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "revisions are not available")
		return
	}

	userID, err := parseUserID(r.Header.Get(UserIDHeader))
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "missing_user", err.Error())
		return
	}

	revisions, err := s.deps.Revisions.Handle(r.Context(), query.GetPendingRevisionsQuery{UserID: userID})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveRevisions(len(revisions))
	}
	writeRaw(w, http.StatusOK, revisions)
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKING
// ══════════════════════════════════════════════════════════════════════════════

// handleTrack receives one tracking event from the host platform.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordResult == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "tracking is not available")
		return
	}

	var ev command.TrackingEvent
	if err := decodeBody(r, &ev); err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := s.deps.RecordResult.Handle(r.Context(), ev)
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveTrackingEvent(err == nil && res.Handled)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if !res.Handled {
		logger.FromContext(r.Context()).Debug("tracking event ignored", logger.String("event_type", ev.EventType))
		writeJSON(w, http.StatusAccepted, map[string]any{"forwarded": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"forwarded": true,
		"event":     res.Event,
	})
}

// handleReadEvent records that a learner viewed a block.
func (s *Server) handleReadEvent(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordRead == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "read events are not available")
		return
	}

	var cmd command.RecordReadCommand
	if err := decodeBody(r, &cmd); err != nil {
		writeDomainError(w, r, err)
		return
	}

	ev, err := s.deps.RecordRead.Handle(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// handleLinkReviewQuestions links a learner to review questions.
func (s *Server) handleLinkReviewQuestions(w http.ResponseWriter, r *http.Request) {
	if s.deps.LinkReviewQuestions == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "review questions are not available")
		return
	}

	var cmd command.LinkReviewQuestionsCommand
	if err := decodeBody(r, &cmd); err != nil {
		writeDomainError(w, r, err)
		return
	}

	links, err := s.deps.LinkReviewQuestions.Handle(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func parseUserID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s header is required", UserIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s header must be a positive integer", UserIDHeader)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body too large", shared.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
