package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/adaptive-learning/internal/domain/course"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository and course.Writer for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

var (
	_ course.Repository = (*CourseRepository)(nil)
	_ course.Writer     = (*CourseRepository)(nil)
)

// ListCourses returns every course ordered by key.
func (r *CourseRepository) ListCourses(ctx context.Context) ([]*course.Course, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT course_key, display_name, adaptive_learning_configuration
		FROM courses
		ORDER BY course_key
	`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*course.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns a course by key.
func (r *CourseRepository) GetCourse(ctx context.Context, key string) (*course.Course, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT course_key, display_name, adaptive_learning_configuration
		FROM courses
		WHERE course_key = $1
	`, key)

	c, err := scanCourse(row)
	if IsNoRows(err) {
		return nil, shared.ErrCourseNotFound
	}
	return c, err
}

// ListAdaptiveBlocks returns the course's adaptive blocks with children in
// authoring order.
func (r *CourseRepository) ListAdaptiveBlocks(ctx context.Context, courseKey string) ([]course.AdaptiveBlock, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT b.usage_id, c.block_id, c.display_name, c.chapter, c.section, c.position
		FROM adaptive_blocks b
		LEFT JOIN adaptive_block_children c ON c.usage_id = b.usage_id
		WHERE b.course_key = $1
		ORDER BY b.usage_id, c.ordinal, c.block_id
	`, courseKey)
	if err != nil {
		return nil, fmt.Errorf("list adaptive blocks: %w", err)
	}
	defer rows.Close()

	var blocks []course.AdaptiveBlock
	for rows.Next() {
		var (
			usageID                                   string
			blockID, name, chapter, section, position *string
		)
		if err := rows.Scan(&usageID, &blockID, &name, &chapter, &section, &position); err != nil {
			return nil, fmt.Errorf("scan adaptive block: %w", err)
		}
		if len(blocks) == 0 || blocks[len(blocks)-1].UsageID != usageID {
			blocks = append(blocks, course.AdaptiveBlock{UsageID: usageID, CourseKey: courseKey})
		}
		if blockID == nil {
			continue
		}
		last := &blocks[len(blocks)-1]
		last.Children = append(last.Children, course.Child{
			BlockID:     *blockID,
			DisplayName: deref(name),
			Location: course.Location{
				Chapter:  deref(chapter),
				Section:  deref(section),
				Position: deref(position),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list adaptive blocks: %w", err)
	}
	return blocks, nil
}

// SaveCourse inserts or updates a course.
func (r *CourseRepository) SaveCourse(ctx context.Context, c *course.Course) error {
	cfg := c.AdaptiveLearningConfiguration
	if cfg == nil {
		cfg = map[string]any{}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal adaptive learning configuration: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO courses (course_key, display_name, adaptive_learning_configuration)
		VALUES ($1, $2, $3)
		ON CONFLICT (course_key) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			adaptive_learning_configuration = EXCLUDED.adaptive_learning_configuration,
			updated_at = NOW()
	`, c.Key, c.DisplayName, raw)
	if err != nil {
		return fmt.Errorf("save course %s: %w", c.Key, err)
	}
	return nil
}

// SaveAdaptiveBlock replaces the block and its children atomically.
func (r *CourseRepository) SaveAdaptiveBlock(ctx context.Context, b course.AdaptiveBlock) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO adaptive_blocks (usage_id, course_key) VALUES ($1, $2)
			ON CONFLICT (usage_id) DO UPDATE SET course_key = EXCLUDED.course_key
		`, b.UsageID, b.CourseKey); err != nil {
			return fmt.Errorf("save adaptive block %s: %w", b.UsageID, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM adaptive_block_children WHERE usage_id = $1`, b.UsageID); err != nil {
			return fmt.Errorf("clear children of %s: %w", b.UsageID, err)
		}

		batch := &pgx.Batch{}
		for i, ch := range b.Children {
			batch.Queue(`
				INSERT INTO adaptive_block_children (usage_id, block_id, display_name, chapter, section, position, ordinal)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, b.UsageID, ch.BlockID, ch.DisplayName, ch.Location.Chapter, ch.Location.Section, ch.Location.Position, i)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save children of %s: %w", b.UsageID, err)
		}
		return nil
	})
}

func scanCourse(row pgx.Row) (*course.Course, error) {
	var (
		c   course.Course
		raw []byte
	)
	if err := row.Scan(&c.Key, &c.DisplayName, &raw); err != nil {
		return nil, err
	}
	cfg, err := decodeConfiguration(raw)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", c.Key, err)
	}
	c.AdaptiveLearningConfiguration = cfg
	return &c, nil
}

// decodeConfiguration keeps numbers as json.Number so integer settings
// survive the round trip without float conversion.
func decodeConfiguration(raw []byte) (map[string]any, error) {
	cfg := map[string]any{}
	if len(raw) == 0 {
		return cfg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode adaptive learning configuration: %w", err)
	}
	return cfg, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
