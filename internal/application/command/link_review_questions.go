package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LINK REVIEW QUESTIONS COMMAND
// Links a learner to every review question of an adaptive block so the
// service can schedule them.
// ══════════════════════════════════════════════════════════════════════════════

// LinkReviewQuestionsCommand contains the blocks to link.
type LinkReviewQuestionsCommand struct {
	CourseID string   `json:"course_id"`
	BlockIDs []string `json:"block_ids"`
	UserID   int64    `json:"user_id"`
}

// Validate validates the command.
func (c LinkReviewQuestionsCommand) Validate() error {
	if strings.TrimSpace(c.CourseID) == "" {
		return errors.New("link_review_questions: course_id is required")
	}
	if len(c.BlockIDs) == 0 {
		return errors.New("link_review_questions: block_ids is required")
	}
	for _, id := range c.BlockIDs {
		if strings.TrimSpace(id) == "" {
			return errors.New("link_review_questions: block_ids contains an empty id")
		}
	}
	if c.UserID <= 0 {
		return errors.New("link_review_questions: user_id is required")
	}
	return nil
}

// LinkReviewQuestionsHandler handles LinkReviewQuestionsCommand.
type LinkReviewQuestionsHandler struct {
	courses  CourseFinder
	learning LearningService
	logger   *logger.Logger
}

// NewLinkReviewQuestionsHandler creates a new LinkReviewQuestionsHandler.
func NewLinkReviewQuestionsHandler(courses CourseFinder, learning LearningService, log *logger.Logger) *LinkReviewQuestionsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &LinkReviewQuestionsHandler{
		courses:  courses,
		learning: learning,
		logger:   log.With(logger.Operation("link_review_questions")),
	}
}

// Handle executes the command.
func (h *LinkReviewQuestionsHandler) Handle(ctx context.Context, cmd LinkReviewQuestionsCommand) ([]adaptive.KnowledgeNodeStudent, error) {
	if err := cmd.Validate(); err != nil {
		return nil, invalid(err)
	}

	c, err := loadCourse(ctx, h.courses, strings.TrimSpace(cmd.CourseID))
	if err != nil {
		return nil, fmt.Errorf("link_review_questions: %w", err)
	}

	links, err := h.learning.LinkReviewQuestions(ctx, c, cmd.BlockIDs, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("link_review_questions: %w", err)
	}
	h.logger.Info("review questions linked", logger.CourseKey(c.Key), logger.Int("count", len(links)))
	return links, nil
}

// invalid marks a command validation failure.
func invalid(err error) error {
	return fmt.Errorf("%w: %v", shared.ErrValidation, err)
}
