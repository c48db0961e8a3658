package learning

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/course"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// fakeClient records the calls it receives.
type fakeClient struct {
	mu      sync.Mutex
	calls   []string
	uids    []string
	reviews []adaptive.PendingReview
	err     error
}

func (f *fakeClient) record(call, uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.uids = append(f.uids, uid)
}

func (f *fakeClient) CreateReadEvent(_ context.Context, blockID, uid string) (*adaptive.Event, error) {
	f.record("read:"+blockID, uid)
	if f.err != nil {
		return nil, f.err
	}
	return &adaptive.Event{ID: 1, Type: adaptive.EventRead}, nil
}

func (f *fakeClient) CreateResultEvent(_ context.Context, blockID, uid, result string) (*adaptive.Event, error) {
	f.record("result:"+blockID+":"+result, uid)
	if f.err != nil {
		return nil, f.err
	}
	payload, _ := adaptive.ResultPayload(result)
	return &adaptive.Event{ID: 2, Type: adaptive.EventResult, Payload: payload}, nil
}

func (f *fakeClient) CreateKnowledgeNodeStudents(_ context.Context, blockIDs []string, uid string) ([]adaptive.KnowledgeNodeStudent, error) {
	f.record("link", uid)
	out := make([]adaptive.KnowledgeNodeStudent, len(blockIDs))
	for i, id := range blockIDs {
		out[i] = adaptive.KnowledgeNodeStudent{ID: int64(i + 1), KnowledgeNodeUID: id, StudentUID: uid}
	}
	return out, f.err
}

func (f *fakeClient) GetPendingReviews(_ context.Context, uid string) ([]adaptive.PendingReview, error) {
	f.record("reviews", uid)
	return f.reviews, f.err
}

func testCourse(key, token string) *course.Course {
	return &course.Course{
		Key: key,
		AdaptiveLearningConfiguration: map[string]any{
			"url":          "https://x.test",
			"api_version":  "v1",
			"instance_id":  5,
			"access_token": token,
		},
	}
}

func newTestService(t *testing.T) (*Service, *fakeClient, *int) {
	t.Helper()
	fc := &fakeClient{}
	built := 0
	reg := NewRegistry(func(cfg adaptive.Configuration) (Client, error) {
		built++
		return fc, nil
	})
	return NewService(reg, logger.Nop()), fc, &built
}

func TestRegistry_MemoizesPerCourseAndConfiguration(t *testing.T) {
	svc, _, built := newTestService(t)
	ctx := context.Background()

	c := testCourse("course-v1:Org+C+R", "tok")
	_, err := svc.CreateReadEvent(ctx, c, "b1", 1)
	require.NoError(t, err)
	_, err = svc.CreateReadEvent(ctx, c, "b2", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, *built)

	// changed settings rebuild the client
	_, err = svc.CreateReadEvent(ctx, testCourse("course-v1:Org+C+R", "other"), "b1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, *built)

	_, err = svc.CreateReadEvent(ctx, testCourse("course-v1:Org+D+R", "tok"), "b1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, *built)
	assert.Len(t, svc.registry.clients, 2)

	svc.registry.Forget("course-v1:Org+D+R")
	assert.Len(t, svc.registry.clients, 1)
}

func TestService_UnconfiguredCourseDropsClient(t *testing.T) {
	svc, _, built := newTestService(t)
	ctx := context.Background()
	c := testCourse("course-v1:Org+C+R", "tok")

	_, err := svc.CreateReadEvent(ctx, c, "b1", 1)
	require.NoError(t, err)
	assert.Len(t, svc.registry.clients, 1)

	c.AdaptiveLearningConfiguration = map[string]any{}
	_, err = svc.CreateReadEvent(ctx, c, "b1", 1)
	assert.ErrorIs(t, err, shared.ErrCourseNotConfigured)
	assert.Empty(t, svc.registry.clients)

	c.AdaptiveLearningConfiguration = testCourse(c.Key, "tok").AdaptiveLearningConfiguration
	_, err = svc.CreateReadEvent(ctx, c, "b1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, *built)
}

func TestRegistry_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry(func(adaptive.Configuration) (Client, error) { return nil, boom })
	svc := NewService(reg, logger.Nop())

	_, err := svc.PendingReviews(context.Background(), testCourse("c", "tok"), 1)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, reg.clients)
}

func TestService_SendsAnonymousID(t *testing.T) {
	svc, fc, _ := newTestService(t)
	c := testCourse("c", "tok")

	_, err := svc.CreateResultEvent(context.Background(), c, "b1", 1, adaptive.ResultCorrect)
	require.NoError(t, err)

	require.Len(t, fc.uids, 1)
	assert.Equal(t, "b72081f02311166d53e3f6c922f36534", fc.uids[0])
	assert.Equal(t, []string{"result:b1:correct"}, fc.calls)

	uid, err := svc.AnonymousUserID(c, 1)
	require.NoError(t, err)
	assert.Equal(t, fc.uids[0], uid)
}

func TestService_AnonymousIDMatchesDeprecatedCourseID(t *testing.T) {
	svc, _, _ := newTestService(t)

	uid, err := svc.AnonymousUserID(testCourse("course-v1:org+course+run", "tok"), 23)
	require.NoError(t, err)
	// md5("tok" + "23" + "org/course/run")
	assert.Equal(t, "eae3e0c73c95353bddd51bdc75f5896d", uid)
}

func TestService_RejectsUnknownResultBeforeCalling(t *testing.T) {
	svc, fc, built := newTestService(t)

	_, err := svc.CreateResultEvent(context.Background(), testCourse("c", "tok"), "b1", 1, "partial")
	assert.ErrorIs(t, err, shared.ErrInvalidResult)
	assert.Empty(t, fc.calls)
	assert.Equal(t, 0, *built)
}

func TestService_UnconfiguredCourse(t *testing.T) {
	svc, fc, _ := newTestService(t)
	c := &course.Course{Key: "c", AdaptiveLearningConfiguration: map[string]any{}}

	_, err := svc.CreateReadEvent(context.Background(), c, "b1", 1)
	assert.ErrorIs(t, err, shared.ErrCourseNotConfigured)
	assert.True(t, shared.IsValidation(err))
	assert.Empty(t, fc.calls)

	_, err = svc.CreateReadEvent(context.Background(), nil, "b1", 1)
	assert.ErrorIs(t, err, shared.ErrCourseNotFound)
}

func TestService_LinkAndReviews(t *testing.T) {
	svc, fc, _ := newTestService(t)
	fc.reviews = []adaptive.PendingReview{{ReviewQuestionUID: "q1", NextReviewAt: "2024-01-01T00:00:00Z"}}
	c := testCourse("c", "tok")

	links, err := svc.LinkReviewQuestions(context.Background(), c, []string{"q1", "q2"}, 1)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	reviews, err := svc.PendingReviews(context.Background(), c, 1)
	require.NoError(t, err)
	assert.Equal(t, fc.reviews, reviews)
}

func TestService_PropagatesClientError(t *testing.T) {
	svc, fc, _ := newTestService(t)
	fc.err = shared.ErrRemoteService

	_, err := svc.CreateReadEvent(context.Background(), testCourse("c", "tok"), "b1", 1)
	assert.ErrorIs(t, err, shared.ErrRemoteService)
}
