package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/course"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

func TestDecodeConfiguration_KeepsSentinelBlank(t *testing.T) {
	cfg, err := decodeConfiguration([]byte(`{"a":"","b":"","c":-1}`))
	require.NoError(t, err)

	assert.Equal(t, json.Number("-1"), cfg["c"])
	assert.False(t, adaptive.IsMeaningful(cfg))

	// the sentinel alone must still read as blank once it is a json.Number
	only, err := decodeConfiguration([]byte(`{"c":-1}`))
	require.NoError(t, err)
	assert.False(t, adaptive.IsMeaningful(only))
}

func TestDecodeConfiguration_MeaningfulRoundTrip(t *testing.T) {
	cfg, err := decodeConfiguration([]byte(`{
		"url": "https://adaptive.test/",
		"api_version": "v1",
		"instance_id": 5,
		"access_token": "tok"
	}`))
	require.NoError(t, err)

	assert.Equal(t, json.Number("5"), cfg[adaptive.KeyInstanceID])
	assert.True(t, adaptive.IsMeaningful(cfg))

	c, err := adaptive.NewConfiguration(cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.InstanceID())
	assert.Equal(t, "https://adaptive.test", c.URL())
}

func TestDecodeConfiguration_EmptyAndMalformed(t *testing.T) {
	cfg, err := decodeConfiguration(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg)
	assert.False(t, adaptive.IsMeaningful(cfg))

	_, err = decodeConfiguration([]byte(`{"url":`))
	assert.Error(t, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// DATABASE TESTS
// ══════════════════════════════════════════════════════════════════════════════

// newTestRepository connects to $DATABASE_TEST_URL, migrates, or skips.
func newTestRepository(t *testing.T) *CourseRepository {
	t.Helper()
	dsn := os.Getenv("DATABASE_TEST_URL")
	if dsn == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := NewConnectionFromURL(ctx, dsn, DefaultPoolSettings())
	require.NoError(t, err)
	_, err = NewMigrator(conn).Migrate(ctx)
	require.NoError(t, err)

	wipe := func() {
		_, err := conn.Exec(context.Background(), `DELETE FROM courses`)
		require.NoError(t, err)
	}
	wipe()
	t.Cleanup(func() {
		wipe()
		conn.Close()
	})
	return NewCourseRepository(conn)
}

func child(id, chapter, section, position string) course.Child {
	return course.Child{
		BlockID:     id,
		DisplayName: "Problem " + id,
		Location:    course.Location{Chapter: chapter, Section: section, Position: position},
	}
}

func TestCourseRepository_SaveAndGetCourse(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	in := &course.Course{
		Key:         "course-v1:org+course+run",
		DisplayName: "Course",
		AdaptiveLearningConfiguration: map[string]any{
			"url": "https://adaptive.test", "api_version": "v1", "instance_id": 3, "access_token": "tok",
		},
	}
	require.NoError(t, repo.SaveCourse(ctx, in))

	got, err := repo.GetCourse(ctx, in.Key)
	require.NoError(t, err)
	assert.Equal(t, "Course", got.DisplayName)
	assert.Equal(t, json.Number("3"), got.AdaptiveLearningConfiguration["instance_id"])
	assert.True(t, got.HasMeaningfulConfiguration(adaptive.IsMeaningful))

	in.DisplayName = "Renamed"
	in.AdaptiveLearningConfiguration = map[string]any{"url": "", "instance_id": -1}
	require.NoError(t, repo.SaveCourse(ctx, in))

	got, err = repo.GetCourse(ctx, in.Key)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.DisplayName)
	assert.False(t, got.HasMeaningfulConfiguration(adaptive.IsMeaningful))
}

func TestCourseRepository_GetUnknownCourse(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetCourse(context.Background(), "course-v1:nope+nope+nope")
	assert.ErrorIs(t, err, shared.ErrCourseNotFound)
}

func TestCourseRepository_ListCoursesOrderedByKey(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, key := range []string{"course-v1:b+b+b", "course-v1:a+a+a"} {
		require.NoError(t, repo.SaveCourse(ctx, &course.Course{Key: key}))
	}

	courses, err := repo.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "course-v1:a+a+a", courses[0].Key)
	assert.Equal(t, "course-v1:b+b+b", courses[1].Key)
	assert.Empty(t, courses[0].AdaptiveLearningConfiguration)
}

func TestCourseRepository_ListAdaptiveBlocksKeepsChildlessBlocks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	key := "course-v1:org+course+run"
	require.NoError(t, repo.SaveCourse(ctx, &course.Course{Key: key}))

	require.NoError(t, repo.SaveAdaptiveBlock(ctx, course.AdaptiveBlock{
		UsageID:   "block-a",
		CourseKey: key,
		Children:  []course.Child{child("p2", "ch1", "s1", "2"), child("p1", "ch1", "s1", "1")},
	}))
	require.NoError(t, repo.SaveAdaptiveBlock(ctx, course.AdaptiveBlock{UsageID: "block-b", CourseKey: key}))
	require.NoError(t, repo.SaveAdaptiveBlock(ctx, course.AdaptiveBlock{
		UsageID:   "block-c",
		CourseKey: key,
		Children:  []course.Child{child("p3", "ch2", "s1", "1")},
	}))

	blocks, err := repo.ListAdaptiveBlocks(ctx, key)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, "block-a", blocks[0].UsageID)
	require.Len(t, blocks[0].Children, 2)
	assert.Equal(t, "p2", blocks[0].Children[0].BlockID)
	assert.Equal(t, "p1", blocks[0].Children[1].BlockID)
	assert.Equal(t, course.Location{Chapter: "ch1", Section: "s1", Position: "2"}, blocks[0].Children[0].Location)

	assert.Equal(t, "block-b", blocks[1].UsageID)
	assert.Equal(t, key, blocks[1].CourseKey)
	assert.Empty(t, blocks[1].Children)

	assert.Equal(t, "block-c", blocks[2].UsageID)
	require.Len(t, blocks[2].Children, 1)
	assert.Equal(t, "Problem p3", blocks[2].Children[0].DisplayName)
}

func TestCourseRepository_SaveAdaptiveBlockReplacesChildren(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	key := "course-v1:org+course+run"
	require.NoError(t, repo.SaveCourse(ctx, &course.Course{Key: key}))

	require.NoError(t, repo.SaveAdaptiveBlock(ctx, course.AdaptiveBlock{
		UsageID:   "block-a",
		CourseKey: key,
		Children:  []course.Child{child("p1", "ch1", "s1", "1"), child("p2", "ch1", "s1", "2")},
	}))
	require.NoError(t, repo.SaveAdaptiveBlock(ctx, course.AdaptiveBlock{
		UsageID:   "block-a",
		CourseKey: key,
		Children:  []course.Child{child("p3", "ch2", "s2", "1"), child("p2", "ch1", "s1", "2")},
	}))

	blocks, err := repo.ListAdaptiveBlocks(ctx, key)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Len(t, blocks[0].Children, 2)
	assert.Equal(t, "p3", blocks[0].Children[0].BlockID)
	assert.Equal(t, "p2", blocks[0].Children[1].BlockID)

	// clearing the children leaves the block listed
	require.NoError(t, repo.SaveAdaptiveBlock(ctx, course.AdaptiveBlock{UsageID: "block-a", CourseKey: key}))
	blocks, err = repo.ListAdaptiveBlocks(ctx, key)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].Children)
}
