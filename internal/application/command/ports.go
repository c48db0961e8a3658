// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/course"
)

// CourseFinder loads a course from the catalog.
type CourseFinder interface {
	GetCourse(ctx context.Context, key string) (*course.Course, error)
}

// LearningService forwards learner activity to the adaptive learning service.
// *learning.Service implements it.
type LearningService interface {
	CreateReadEvent(ctx context.Context, c *course.Course, blockID string, userID int64) (*adaptive.Event, error)
	CreateResultEvent(ctx context.Context, c *course.Course, blockID string, userID int64, result string) (*adaptive.Event, error)
	LinkReviewQuestions(ctx context.Context, c *course.Course, blockIDs []string, userID int64) ([]adaptive.KnowledgeNodeStudent, error)
}

// loadCourse validates the key format before hitting the catalog.
func loadCourse(ctx context.Context, courses CourseFinder, courseID string) (*course.Course, error) {
	if _, err := adaptive.ParseCourseKey(courseID); err != nil {
		return nil, err
	}
	return courses.GetCourse(ctx, courseID)
}
