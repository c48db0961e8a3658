package adaptive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

func validRaw() map[string]any {
	return map[string]any{
		"url":          "https://x.test",
		"api_version":  "v1",
		"instance_id":  5,
		"access_token": "this-is-not-a-test",
	}
}

func TestNewConfiguration_BuildsEndpoints(t *testing.T) {
	cfg, err := NewConfiguration(validRaw())
	require.NoError(t, err)

	ep := cfg.Endpoints()
	assert.Equal(t, "https://x.test/v1", ep.Base)
	assert.Equal(t, "https://x.test/v1/instances/5", ep.Instance)
	assert.Equal(t, "https://x.test/v1/instances/5/students", ep.Students)
	assert.Equal(t, "https://x.test/v1/instances/5/knowledge_node_students", ep.KnowledgeNodeStudents)
	assert.Equal(t, "https://x.test/v1/instances/5/events", ep.Events)
	assert.Equal(t, "https://x.test/v1/instances/5/review_utils/fetch_reviews", ep.PendingReviews)

	assert.Equal(t, "https://x.test", cfg.URL())
	assert.Equal(t, "v1", cfg.APIVersion())
	assert.Equal(t, int64(5), cfg.InstanceID())
	assert.Equal(t, "this-is-not-a-test", cfg.AccessToken())
	assert.Equal(t, "Token token=this-is-not-a-test", cfg.AuthorizationHeader())
}

func TestNewConfiguration_TrimsTrailingSlash(t *testing.T) {
	raw := validRaw()
	raw["url"] = "https://x.test/"

	cfg, err := NewConfiguration(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/v1/instances/5/events", cfg.Endpoints().Events)
}

func TestNewConfiguration_CoercesInstanceID(t *testing.T) {
	for name, value := range map[string]any{
		"float":       float64(23),
		"json number": json.Number("23"),
		"string":      "23",
		"int64":       int64(23),
	} {
		t.Run(name, func(t *testing.T) {
			raw := validRaw()
			raw["instance_id"] = value

			cfg, err := NewConfiguration(raw)
			require.NoError(t, err)
			assert.Equal(t, int64(23), cfg.InstanceID())
		})
	}
}

func TestNewConfiguration_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		substr string
	}{
		{"unknown key", func(m map[string]any) { m["colour"] = "blue" }, `unknown setting "colour"`},
		{"missing key", func(m map[string]any) { delete(m, "access_token") }, `missing setting "access_token"`},
		{"fractional id", func(m map[string]any) { m["instance_id"] = 2.5 }, "must be an integer"},
		{"negative id", func(m map[string]any) { m["instance_id"] = -1 }, "instance_id"},
		{"relative url", func(m map[string]any) { m["url"] = "dummy" }, "url"},
		{"empty token", func(m map[string]any) { m["access_token"] = "" }, "access_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(raw)

			_, err := NewConfiguration(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestConfiguration_StringMasksToken(t *testing.T) {
	cfg, err := NewConfiguration(validRaw())
	require.NoError(t, err)

	s := cfg.String()
	assert.Contains(t, s, "url=https://x.test")
	assert.Contains(t, s, "instance_id=5")
	assert.NotContains(t, s, "this-is-not-a-test")
}

func TestIsMeaningful(t *testing.T) {
	assert.True(t, IsMeaningful(map[string]any{"a": "meaningful-value", "b": "another-meaningful-value", "c": 42}))
	assert.False(t, IsMeaningful(map[string]any{"a": "", "b": "", "c": -1}))
	assert.False(t, IsMeaningful(map[string]any{"a": "value", "c": float64(-1)}))
	assert.False(t, IsMeaningful(map[string]any{"a": "value", "c": json.Number("-1")}))
	assert.False(t, IsMeaningful(map[string]any{"a": "value", "c": json.Number("-1.0")}))
	assert.True(t, IsMeaningful(map[string]any{"a": "value", "c": json.Number("7")}))
	assert.False(t, IsMeaningful(map[string]any{"a": nil}))
	assert.False(t, IsMeaningful(map[string]any{}))
	assert.False(t, IsMeaningful(nil))
}
