package course

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository даёт доступ к каталогу курсов.
type Repository interface {
	// ListCourses возвращает все курсы каталога.
	ListCourses(ctx context.Context) ([]*Course, error)

	// GetCourse возвращает курс по ключу.
	// Возвращает ErrCourseNotFound, если курса нет.
	GetCourse(ctx context.Context, key string) (*Course, error)

	// ListAdaptiveBlocks возвращает адаптивные блоки курса вместе с вопросами.
	ListAdaptiveBlocks(ctx context.Context, courseKey string) ([]AdaptiveBlock, error)
}

// Writer наполняет каталог. Используется при импорте курсов.
type Writer interface {
	SaveCourse(ctx context.Context, c *Course) error
	SaveAdaptiveBlock(ctx context.Context, b AdaptiveBlock) error
}
