package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

func TestResultPayload(t *testing.T) {
	p, err := ResultPayload("correct")
	require.NoError(t, err)
	assert.Equal(t, "100", p)

	p, err = ResultPayload("incorrect")
	require.NoError(t, err)
	assert.Equal(t, "0", p)

	_, err = ResultPayload("partially")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMakeAnonymousUserID(t *testing.T) {
	a := MakeAnonymousUserID("this-is-not-a-test", 42, "course-v1:org+course+run")
	b := MakeAnonymousUserID("this-is-not-a-test", 42, "course-v1:org+course+run")
	c := MakeAnonymousUserID("this-is-not-a-test", 42, "course-v1:org+course+other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
	// md5("tok" + "1" + "c")
	assert.Equal(t, "b72081f02311166d53e3f6c922f36534", MakeAnonymousUserID("tok", 1, "c"))
}

func TestConfiguration_AnonymousUserIDUsesDeprecatedCourseID(t *testing.T) {
	cfg, err := NewConfigurationFromValues("https://x.test", "v1", 5, "tok")
	require.NoError(t, err)

	// md5("tok" + "23" + "org/course/run")
	want := "eae3e0c73c95353bddd51bdc75f5896d"
	assert.Equal(t, want, cfg.AnonymousUserID(23, "course-v1:org+course+run"))
	assert.Equal(t, want, cfg.AnonymousUserID(23, "org/course/run"))
	assert.Equal(t, "b72081f02311166d53e3f6c922f36534", cfg.AnonymousUserID(1, "c"))
}

func TestDeprecatedCourseID(t *testing.T) {
	assert.Equal(t, "Org/CS101/2024", DeprecatedCourseID("course-v1:Org+CS101+2024"))
	assert.Equal(t, "Org/CS101/2024", DeprecatedCourseID("Org/CS101/2024"))
	assert.Equal(t, "free-form", DeprecatedCourseID(" free-form "))
}

func TestKnowledgeNodeStudent_Matches(t *testing.T) {
	link := KnowledgeNodeStudent{KnowledgeNodeUID: "block", StudentUID: "student"}
	assert.True(t, link.Matches("block", "student"))
	assert.False(t, link.Matches("block", "other"))
	assert.False(t, link.Matches("other", "student"))
}

func TestParseUsageKey(t *testing.T) {
	key, err := ParseUsageKey("block-v1:Org+CS101+2024+type@problem+block@a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3", key.BlockID)
	assert.Equal(t, "problem", key.BlockType)
	assert.Equal(t, "course-v1:Org+CS101+2024", key.CourseKey().String())
	assert.Equal(t, "block-v1:Org+CS101+2024+type@problem+block@a1b2c3", key.String())

	for _, bad := range []string{"", "i4x://Org/CS101/problem/x", "block-v1:Org+CS101+2024+type@problem", "block-v1:Org+CS101+2024+kind@problem+block@x"} {
		_, err := ParseUsageKey(bad)
		assert.ErrorIs(t, err, shared.ErrInvalidFormat, bad)
	}
}

func TestParseCourseKey(t *testing.T) {
	key, err := ParseCourseKey("course-v1:Org+CS101+2024")
	require.NoError(t, err)
	assert.Equal(t, CourseKey{Org: "Org", Course: "CS101", Run: "2024"}, key)

	legacy, err := ParseCourseKey("Org/CS101/2024")
	require.NoError(t, err)
	assert.Equal(t, key, legacy)

	_, err = ParseCourseKey("course-v1:Org+CS101")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}
