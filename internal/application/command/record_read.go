package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD READ COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RecordReadCommand reports that a learner viewed a block.
type RecordReadCommand struct {
	CourseID string `json:"course_id"`
	BlockID  string `json:"block_id"`
	UserID   int64  `json:"user_id"`
}

// Validate validates the command.
func (c RecordReadCommand) Validate() error {
	if strings.TrimSpace(c.CourseID) == "" {
		return errors.New("record_read: course_id is required")
	}
	if strings.TrimSpace(c.BlockID) == "" {
		return errors.New("record_read: block_id is required")
	}
	if c.UserID <= 0 {
		return errors.New("record_read: user_id is required")
	}
	return nil
}

// RecordReadHandler handles RecordReadCommand.
type RecordReadHandler struct {
	courses  CourseFinder
	learning LearningService
	logger   *logger.Logger
}

// NewRecordReadHandler creates a new RecordReadHandler.
func NewRecordReadHandler(courses CourseFinder, learning LearningService, log *logger.Logger) *RecordReadHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordReadHandler{courses: courses, learning: learning, logger: log.With(logger.Operation("record_read"))}
}

// Handle executes the command.
func (h *RecordReadHandler) Handle(ctx context.Context, cmd RecordReadCommand) (*adaptive.Event, error) {
	if err := cmd.Validate(); err != nil {
		return nil, invalid(err)
	}

	c, err := loadCourse(ctx, h.courses, strings.TrimSpace(cmd.CourseID))
	if err != nil {
		return nil, fmt.Errorf("record_read: %w", err)
	}

	ev, err := h.learning.CreateReadEvent(ctx, c, cmd.BlockID, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("record_read: %w", err)
	}
	h.logger.Debug("read event forwarded", logger.CourseKey(c.Key), logger.BlockID(cmd.BlockID))
	return ev, nil
}
