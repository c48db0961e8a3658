// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/course"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
	"github.com/alem-hub/adaptive-learning/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PENDING REVISIONS QUERY
// Собирает вопросы, которые учащемуся пора повторить, по всем курсам
// с настроенным адаптивным обучением.
// ══════════════════════════════════════════════════════════════════════════════

// GetPendingRevisionsQuery содержит параметры запроса.
type GetPendingRevisionsQuery struct {
	// UserID внутренний ID пользователя платформы.
	UserID int64
}

// Validate проверяет корректность параметров запроса.
func (q GetPendingRevisionsQuery) Validate() error {
	if q.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be positive", shared.ErrValidation)
	}
	return nil
}

// ReviewSource отдаёт повторения учащегося в одном курсе.
type ReviewSource interface {
	PendingReviews(ctx context.Context, c *course.Course, userID int64) ([]adaptive.PendingReview, error)
}

// GetPendingRevisionsHandler обрабатывает запрос повторений.
type GetPendingRevisionsHandler struct {
	courses      course.Repository
	reviews      ReviewSource
	isMeaningful adaptive.MeaningfulFunc
	logger       *logger.Logger
}

// PendingRevisionsOption настраивает обработчик.
type PendingRevisionsOption func(*GetPendingRevisionsHandler)

// WithMeaningfulFunc заменяет предикат, отбирающий настроенные курсы.
func WithMeaningfulFunc(fn adaptive.MeaningfulFunc) PendingRevisionsOption {
	return func(h *GetPendingRevisionsHandler) {
		if fn != nil {
			h.isMeaningful = fn
		}
	}
}

// NewGetPendingRevisionsHandler создаёт новый обработчик.
func NewGetPendingRevisionsHandler(
	courses course.Repository,
	reviews ReviewSource,
	log *logger.Logger,
	opts ...PendingRevisionsOption,
) *GetPendingRevisionsHandler {
	if log == nil {
		log = logger.Default()
	}
	h := &GetPendingRevisionsHandler{
		courses:      courses,
		reviews:      reviews,
		isMeaningful: adaptive.IsMeaningful,
		logger:       log.With(logger.Operation("get_pending_revisions")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle выполняет запрос. Курс, для которого сервис ответил ошибкой,
// пропускается, остальные курсы обрабатываются как обычно.
func (h *GetPendingRevisionsHandler) Handle(ctx context.Context, q GetPendingRevisionsQuery) ([]adaptive.Revision, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	courses, err := h.courses.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	revisions := make([]adaptive.Revision, 0)
	for _, c := range courses {
		if !c.HasMeaningfulConfiguration(h.isMeaningful) {
			continue
		}
		items, err := h.courseRevisions(ctx, c, q.UserID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			h.logger.Warn("skipping course", logger.CourseKey(c.Key), logger.Err(err))
			continue
		}
		revisions = append(revisions, items...)
	}
	return revisions, nil
}

func (h *GetPendingRevisionsHandler) courseRevisions(ctx context.Context, c *course.Course, userID int64) ([]adaptive.Revision, error) {
	pending, err := h.reviews.PendingReviews(ctx, c, userID)
	if err != nil {
		return nil, err
	}

	due := make(map[string]string, len(pending))
	for _, p := range pending {
		if p.ReviewQuestionUID == "" {
			h.logger.Warn("pending review without question uid", logger.CourseKey(c.Key))
			continue
		}
		due[p.ReviewQuestionUID] = p.NextReviewAt
	}
	if len(due) == 0 {
		return nil, nil
	}

	blocks, err := h.courses.ListAdaptiveBlocks(ctx, c.Key)
	if err != nil {
		return nil, fmt.Errorf("list adaptive blocks: %w", err)
	}

	var out []adaptive.Revision
	for _, b := range blocks {
		for _, child := range b.Children {
			nextReview, ok := due[child.BlockID]
			if !ok {
				continue
			}
			ts, err := ParseDueDate(nextReview)
			if err != nil {
				h.logger.Warn("unparseable review date",
					logger.CourseKey(c.Key), logger.BlockID(child.BlockID), logger.String("next_review_at", nextReview))
				continue
			}
			out = append(out, adaptive.Revision{
				URL:     child.Location.CoursewareURL(c.Key),
				Name:    child.DisplayName,
				DueDate: ts,
			})
		}
	}
	return out, nil
}

// ParseDueDate переводит дату повторения в Unix-время. Дата без зоны
// считается UTC.
func ParseDueDate(s string) (int64, error) {
	return timeutil.ParseUnix(s)
}
