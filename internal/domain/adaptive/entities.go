package adaptive

import (
	"strings"

	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMOTE ENTITIES
// Объекты, которые хранит внешний сервис адаптивного обучения.
// ══════════════════════════════════════════════════════════════════════════════

// Student учащийся во внешнем сервисе. UID хранит анонимный идентификатор.
type Student struct {
	ID  int64  `json:"id"`
	UID string `json:"uid"`
}

// KnowledgeNodeStudent связывает учащегося с узлом знаний (блоком курса).
type KnowledgeNodeStudent struct {
	ID               int64  `json:"id"`
	KnowledgeNodeID  int64  `json:"knowledge_node_id"`
	KnowledgeNodeUID string `json:"knowledge_node_uid"`
	StudentID        int64  `json:"student_id"`
	StudentUID       string `json:"student_uid"`
}

// Matches проверяет естественный ключ связи.
func (k KnowledgeNodeStudent) Matches(blockID, studentUID string) bool {
	return k.KnowledgeNodeUID == blockID && k.StudentUID == studentUID
}

// EventType тип события обучения.
type EventType string

const (
	EventRead   EventType = "EventRead"
	EventResult EventType = "EventResult"
)

// IsValid проверяет, что тип события известен сервису.
func (t EventType) IsValid() bool {
	return t == EventRead || t == EventResult
}

// Event событие, отправленное в сервис.
type Event struct {
	ID                     int64     `json:"id"`
	KnowledgeNodeStudentID int64     `json:"knowledge_node_student_id"`
	Type                   EventType `json:"type"`
	Payload                string    `json:"payload,omitempty"`
}

// PendingReview вопрос, который пора повторить.
// NextReviewAt возвращается как есть, без разбора даты.
type PendingReview struct {
	ReviewQuestionUID string `json:"review_question_uid"`
	NextReviewAt      string `json:"next_review_at"`
}

// Revision элемент списка повторений для учащегося.
type Revision struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	DueDate int64  `json:"due_date"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULT PAYLOAD
// ══════════════════════════════════════════════════════════════════════════════

const (
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"
)

// ResultPayload переводит исход попытки в полезную нагрузку события:
// correct -> "100", incorrect -> "0". Прочие значения отклоняются.
func ResultPayload(result string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case ResultCorrect:
		return "100", nil
	case ResultIncorrect:
		return "0", nil
	default:
		return "", shared.ErrInvalidResult
	}
}

// ResultFromSuccess переводит поле success трекинг-события в исход попытки.
func ResultFromSuccess(success string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(success)) {
	case ResultCorrect:
		return ResultCorrect, nil
	case ResultIncorrect:
		return ResultIncorrect, nil
	default:
		return "", shared.ErrInvalidResult
	}
}
