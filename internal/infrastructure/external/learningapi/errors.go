package learningapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

// Stage names the remote call that failed.
type Stage string

const (
	StageListStudents               Stage = "list_students"
	StageCreateStudent              Stage = "create_student"
	StageListKnowledgeNodeStudents  Stage = "list_knowledge_node_students"
	StageCreateKnowledgeNodeStudent Stage = "create_knowledge_node_student"
	StageCreateEvent                Stage = "create_event"
	StageFetchReviews               Stage = "fetch_reviews"
)

// RemoteServiceError is returned for transport failures, non-2xx responses and
// bodies that cannot be decoded. It matches shared.ErrRemoteService.
type RemoteServiceError struct {
	Stage      Stage
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("adaptive learning service: %s: %s %s: status %d: %v", e.Stage, e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("adaptive learning service: %s: %s %s: %v", e.Stage, e.Method, e.URL, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

func (e *RemoteServiceError) Is(target error) bool {
	switch target {
	case shared.ErrRemoteService:
		return true
	case shared.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case shared.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case shared.ErrServiceUnavailable:
		return e.StatusCode == http.StatusServiceUnavailable
	}
	return false
}

// transient reports whether a GET may be retried.
func (e *RemoteServiceError) transient() bool {
	switch {
	case e.StatusCode == 0:
		// transport error; decode errors carry errDecode and are not retried
		return !errors.Is(e.Err, errDecode)
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// StageOf returns the failing stage of err, if it came from this client.
func StageOf(err error) (Stage, bool) {
	var re *RemoteServiceError
	if errors.As(err, &re) {
		return re.Stage, true
	}
	return "", false
}

var errDecode = errors.New("decode response")
