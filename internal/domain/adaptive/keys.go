package adaptive

import (
	"strings"

	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

// CourseKey идентификатор курса вида course-v1:Org+Course+Run.
type CourseKey struct {
	Org    string
	Course string
	Run    string
}

// ParseCourseKey разбирает ключ курса. Поддерживается также устаревший
// формат Org/Course/Run.
func ParseCourseKey(s string) (CourseKey, error) {
	s = strings.TrimSpace(s)
	var parts []string
	switch {
	case strings.HasPrefix(s, "course-v1:"):
		parts = strings.Split(strings.TrimPrefix(s, "course-v1:"), "+")
	case strings.Count(s, "/") == 2:
		parts = strings.Split(s, "/")
	default:
		return CourseKey{}, shared.ErrInvalidCourseKey
	}
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return CourseKey{}, shared.ErrInvalidCourseKey
	}
	return CourseKey{Org: parts[0], Course: parts[1], Run: parts[2]}, nil
}

// String возвращает ключ в формате course-v1.
func (k CourseKey) String() string {
	return "course-v1:" + k.Org + "+" + k.Course + "+" + k.Run
}

// Deprecated возвращает ключ в устаревшем формате Org/Course/Run.
func (k CourseKey) Deprecated() string {
	return k.Org + "/" + k.Course + "/" + k.Run
}

// DeprecatedCourseID переводит ключ курса в формат Org/Course/Run, от которого
// считается анонимный идентификатор. Нераспознанный ключ возвращается как есть.
func DeprecatedCourseID(key string) string {
	k, err := ParseCourseKey(key)
	if err != nil {
		return strings.TrimSpace(key)
	}
	return k.Deprecated()
}

// UsageKey адрес блока вида block-v1:Org+Course+Run+type@problem+block@ID.
type UsageKey struct {
	Course    CourseKey
	BlockType string
	BlockID   string
}

// ParseUsageKey разбирает адрес блока.
func ParseUsageKey(s string) (UsageKey, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "block-v1:") {
		return UsageKey{}, shared.ErrInvalidUsageKey
	}
	parts := strings.Split(strings.TrimPrefix(s, "block-v1:"), "+")
	if len(parts) != 5 {
		return UsageKey{}, shared.ErrInvalidUsageKey
	}

	key := UsageKey{Course: CourseKey{Org: parts[0], Course: parts[1], Run: parts[2]}}
	for _, p := range parts[3:] {
		name, value, ok := strings.Cut(p, "@")
		if !ok || value == "" {
			return UsageKey{}, shared.ErrInvalidUsageKey
		}
		switch name {
		case "type":
			key.BlockType = value
		case "block":
			key.BlockID = value
		default:
			return UsageKey{}, shared.ErrInvalidUsageKey
		}
	}
	if key.BlockType == "" || key.BlockID == "" || key.Course.Org == "" || key.Course.Course == "" || key.Course.Run == "" {
		return UsageKey{}, shared.ErrInvalidUsageKey
	}
	return key, nil
}

// String возвращает адрес блока в формате block-v1.
func (k UsageKey) String() string {
	return "block-v1:" + k.Course.Org + "+" + k.Course.Course + "+" + k.Course.Run +
		"+type@" + k.BlockType + "+block@" + k.BlockID
}

// CourseKey возвращает курс, которому принадлежит блок.
func (k UsageKey) CourseKey() CourseKey { return k.Course }
