package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_CoursewareURL(t *testing.T) {
	loc := Location{Chapter: "week1", Section: "lesson2", Position: "3"}
	assert.Equal(t, "/courses/course-v1:Org+C+R/courseware/week1/lesson2/3/", loc.CoursewareURL("course-v1:Org+C+R"))
}

func TestLocation_NavigationIndex(t *testing.T) {
	assert.Equal(t, 4, Location{Position: "4"}.NavigationIndex())
	assert.Equal(t, 2, Location{Position: "2_1"}.NavigationIndex())
	assert.Equal(t, 1, Location{Position: ""}.NavigationIndex())
	assert.Equal(t, 1, Location{Position: "0"}.NavigationIndex())
	assert.Equal(t, 1, Location{Position: "abc"}.NavigationIndex())
}

func TestCourse_Configuration(t *testing.T) {
	c := &Course{
		Key: "course-v1:Org+C+R",
		AdaptiveLearningConfiguration: map[string]any{
			"url":          "https://dummy.com",
			"api_version":  "v42",
			"instance_id":  23,
			"access_token": "this-is-not-a-test",
		},
	}
	assert.True(t, c.HasMeaningfulConfiguration(nil))

	cfg, err := c.Configuration()
	require.NoError(t, err)
	assert.Equal(t, "https://dummy.com/v42/instances/23/students", cfg.Endpoints().Students)

	blank := &Course{AdaptiveLearningConfiguration: map[string]any{"url": "", "api_version": "", "instance_id": -1, "access_token": ""}}
	assert.False(t, blank.HasMeaningfulConfiguration(nil))
	assert.True(t, blank.HasMeaningfulConfiguration(func(map[string]any) bool { return true }))
}
