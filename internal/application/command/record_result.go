package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD RESULT COMMAND
// Tracking backend: forwards answers to problems inside adaptive content to
// the adaptive learning service as result events.
// ══════════════════════════════════════════════════════════════════════════════

// ProblemCheckEventType is the only tracking event type that is forwarded.
const ProblemCheckEventType = "problem_check"

// TrackingEvent is a platform tracking log entry.
type TrackingEvent struct {
	EventType string          `json:"event_type"`
	Context   TrackingContext `json:"context"`

	// Event is the type specific body. For problem_check it is an object
	// with a success field; browser events carry a plain string.
	Event json.RawMessage `json:"event"`
}

// TrackingContext is the context block of a tracking event.
type TrackingContext struct {
	CourseID string `json:"course_id"`
	UserID   int64  `json:"user_id"`
	Module   struct {
		UsageKey string `json:"usage_key"`
	} `json:"module"`
}

// IsProblemCheck returns true for problem_check events.
func (e TrackingEvent) IsProblemCheck() bool {
	return e.EventType == ProblemCheckEventType
}

// Success extracts event.success.
func (e TrackingEvent) Success() (string, error) {
	var body struct {
		Success string `json:"success"`
	}
	if len(e.Event) == 0 || json.Unmarshal(e.Event, &body) != nil {
		return "", fmt.Errorf("%w: event body is not an object", shared.ErrInvalidInput)
	}
	return body.Success, nil
}

// RecordResultResult contains the result of handling a tracking event.
type RecordResultResult struct {
	// Handled is false when the event type is not forwarded.
	Handled bool

	CourseKey string
	BlockID   string
	Result    string
	Event     *adaptive.Event
}

// RecordResultHandler handles tracking events.
type RecordResultHandler struct {
	courses  CourseFinder
	learning LearningService
	logger   *logger.Logger
}

// NewRecordResultHandler creates a new RecordResultHandler.
func NewRecordResultHandler(courses CourseFinder, learning LearningService, log *logger.Logger) *RecordResultHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordResultHandler{
		courses:  courses,
		learning: learning,
		logger:   log.With(logger.Operation("record_result")),
	}
}

// Handle forwards a problem_check event. Other events are ignored.
func (h *RecordResultHandler) Handle(ctx context.Context, ev TrackingEvent) (*RecordResultResult, error) {
	if !ev.IsProblemCheck() {
		return &RecordResultResult{Handled: false}, nil
	}

	usageKey, err := adaptive.ParseUsageKey(ev.Context.Module.UsageKey)
	if err != nil {
		return nil, fmt.Errorf("record_result: %w", err)
	}
	if ev.Context.UserID <= 0 {
		return nil, fmt.Errorf("record_result: %w: user_id is required", shared.ErrInvalidInput)
	}
	success, err := ev.Success()
	if err != nil {
		return nil, fmt.Errorf("record_result: %w", err)
	}
	result, err := adaptive.ResultFromSuccess(success)
	if err != nil {
		return nil, fmt.Errorf("record_result: %w", err)
	}

	courseID := strings.TrimSpace(ev.Context.CourseID)
	c, err := loadCourse(ctx, h.courses, courseID)
	if err != nil {
		return nil, fmt.Errorf("record_result: %w", err)
	}

	event, err := h.learning.CreateResultEvent(ctx, c, usageKey.BlockID, ev.Context.UserID, result)
	if err != nil {
		h.logger.Error("failed to forward result",
			logger.CourseKey(c.Key), logger.BlockID(usageKey.BlockID), logger.Err(err))
		return nil, fmt.Errorf("record_result: %w", err)
	}

	h.logger.Info("result forwarded",
		logger.CourseKey(c.Key), logger.BlockID(usageKey.BlockID), logger.String("result", result))

	return &RecordResultResult{
		Handled:   true,
		CourseKey: c.Key,
		BlockID:   usageKey.BlockID,
		Result:    result,
		Event:     event,
	}, nil
}
