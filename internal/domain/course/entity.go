// Package course описывает каталог курсов, который нужен адаптивному
// обучению: настройки курса и адаптивные блоки с их вопросами.
package course

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
)

// AdaptiveContentCategory тип блока, который содержит вопросы для повторения.
const AdaptiveContentCategory = "adaptive_library_content"

// Course курс каталога.
type Course struct {
	Key         string
	DisplayName string
	// AdaptiveLearningConfiguration сырые настройки в том виде, как их ввёл автор курса.
	AdaptiveLearningConfiguration map[string]any
}

// HasMeaningfulConfiguration применяет предикат к настройкам курса.
func (c *Course) HasMeaningfulConfiguration(isMeaningful adaptive.MeaningfulFunc) bool {
	if isMeaningful == nil {
		isMeaningful = adaptive.IsMeaningful
	}
	return isMeaningful(c.AdaptiveLearningConfiguration)
}

// Configuration строит типизированную конфигурацию из настроек курса.
func (c *Course) Configuration() (adaptive.Configuration, error) {
	return adaptive.NewConfiguration(c.AdaptiveLearningConfiguration)
}

// Location положение блока в навигации курса.
type Location struct {
	Chapter  string
	Section  string
	Position string
}

// NavigationIndex возвращает номер позиции для URL: ведущее целое значение
// Position, либо 1, если его нет.
func (l Location) NavigationIndex() int {
	p := strings.TrimSpace(l.Position)
	end := 0
	for end < len(p) && p[end] >= '0' && p[end] <= '9' {
		end++
	}
	if end == 0 {
		return 1
	}
	n, err := strconv.Atoi(p[:end])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// CoursewareURL возвращает адрес страницы курса для блока.
func (l Location) CoursewareURL(courseKey string) string {
	return fmt.Sprintf("/courses/%s/courseware/%s/%s/%d/", courseKey, l.Chapter, l.Section, l.NavigationIndex())
}

// Child вопрос внутри адаптивного блока.
type Child struct {
	BlockID     string
	DisplayName string
	Location    Location
}

// AdaptiveBlock блок категории adaptive_library_content.
type AdaptiveBlock struct {
	UsageID   string
	CourseKey string
	Children  []Child
}
