package learning

import (
	"context"
	"fmt"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/course"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Service is the course-aware facade over the adaptive learning client.
// Callers pass platform user ids; only anonymous ids leave the process.
type Service struct {
	registry *Registry
	logger   *logger.Logger
}

// NewService creates a new Service.
func NewService(registry *Registry, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{registry: registry, logger: log.With(logger.Component("learning"))}
}

// session resolves the client and the anonymous id of a user in a course.
func (s *Service) session(c *course.Course, userID int64) (Client, string, error) {
	if c == nil {
		return nil, "", shared.ErrCourseNotFound
	}
	cfg, err := c.Configuration()
	if err != nil {
		// the course lost its settings; its old client must not be reused
		s.registry.Forget(c.Key)
		return nil, "", fmt.Errorf("course %s: %w: %w", c.Key, shared.ErrCourseNotConfigured, err)
	}
	client, err := s.registry.ClientFor(c.Key, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("course %s: build client: %w", c.Key, err)
	}
	return client, cfg.AnonymousUserID(userID, c.Key), nil
}

// AnonymousUserID returns the service-side id of a user in a course.
func (s *Service) AnonymousUserID(c *course.Course, userID int64) (string, error) {
	_, uid, err := s.session(c, userID)
	return uid, err
}

// CreateReadEvent records that the user viewed a block.
func (s *Service) CreateReadEvent(ctx context.Context, c *course.Course, blockID string, userID int64) (*adaptive.Event, error) {
	client, uid, err := s.session(c, userID)
	if err != nil {
		return nil, err
	}
	ev, err := client.CreateReadEvent(ctx, blockID, uid)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("read event recorded", logger.CourseKey(c.Key), logger.BlockID(blockID))
	return ev, nil
}

// CreateResultEvent records a correct or incorrect answer to a block.
func (s *Service) CreateResultEvent(ctx context.Context, c *course.Course, blockID string, userID int64, result string) (*adaptive.Event, error) {
	if _, err := adaptive.ResultPayload(result); err != nil {
		return nil, err
	}
	client, uid, err := s.session(c, userID)
	if err != nil {
		return nil, err
	}
	ev, err := client.CreateResultEvent(ctx, blockID, uid, result)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("result event recorded",
		logger.CourseKey(c.Key), logger.BlockID(blockID), logger.String("result", result))
	return ev, nil
}

// LinkReviewQuestions makes sure the user is linked to every block.
func (s *Service) LinkReviewQuestions(ctx context.Context, c *course.Course, blockIDs []string, userID int64) ([]adaptive.KnowledgeNodeStudent, error) {
	client, uid, err := s.session(c, userID)
	if err != nil {
		return nil, err
	}
	return client.CreateKnowledgeNodeStudents(ctx, blockIDs, uid)
}

// PendingReviews returns the reviews that are due for the user in a course.
func (s *Service) PendingReviews(ctx context.Context, c *course.Course, userID int64) ([]adaptive.PendingReview, error) {
	client, uid, err := s.session(c, userID)
	if err != nil {
		return nil, err
	}
	return client.GetPendingReviews(ctx, uid)
}
