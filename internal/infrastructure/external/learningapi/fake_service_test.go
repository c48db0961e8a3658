package learningapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

const testToken = "this-is-not-a-test"

// fakeService is an in-memory adaptive learning service for instance 23.
type fakeService struct {
	mu       sync.Mutex
	students []adaptive.Student
	links    []adaptive.KnowledgeNodeStudent
	events   []map[string]string
	reviews  []map[string]any
	calls    map[string]int
	// fail maps "METHOD path" to a status code to return instead.
	fail map[string]int
	// failTimes limits how many times fail applies; 0 means always.
	failTimes map[string]int
	lastQuery string
	nextID    int64
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	f := &fakeService{
		calls:     map[string]int{},
		fail:      map[string]int{},
		failTimes: map[string]int{},
		nextID:    100,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v42/instances/23/students", f.handleStudents)
	mux.HandleFunc("/v42/instances/23/knowledge_node_students", f.handleLinks)
	mux.HandleFunc("/v42/instances/23/events", f.handleEvents)
	mux.HandleFunc("/v42/instances/23/review_utils/fetch_reviews", f.handleReviews)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token token="+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls[key]++
		status, failing := f.fail[key]
		if failing && f.failTimes[key] > 0 {
			f.failTimes[key]--
			if f.failTimes[key] == 0 {
				delete(f.fail, key)
			}
		}
		f.mu.Unlock()
		if failing {
			http.Error(w, `{"detail":"injected failure"}`, status)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeService) callCount(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" /v42/instances/23/"+path]
}

func (f *fakeService) failWith(method, path string, status, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " /v42/instances/23/" + path
	f.fail[key] = status
	f.failTimes[key] = times
}

func (f *fakeService) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeService) handleStudents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		writeTestJSON(w, f.students)
	case http.MethodPost:
		_ = r.ParseForm()
		s := adaptive.Student{ID: f.id(), UID: r.PostForm.Get("uid")}
		f.students = append(f.students, s)
		w.WriteHeader(http.StatusCreated)
		writeTestJSON(w, s)
	}
}

func (f *fakeService) handleLinks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		writeTestJSON(w, f.links)
	case http.MethodPost:
		_ = r.ParseForm()
		l := adaptive.KnowledgeNodeStudent{
			ID:               f.id(),
			KnowledgeNodeUID: r.PostForm.Get("knowledge_node_uid"),
			StudentUID:       r.PostForm.Get("student_uid"),
		}
		for _, s := range f.students {
			if s.UID == l.StudentUID {
				l.StudentID = s.ID
			}
		}
		f.links = append(f.links, l)
		w.WriteHeader(http.StatusCreated)
		writeTestJSON(w, l)
	}
}

func (f *fakeService) handleEvents(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	defer f.mu.Unlock()
	event := map[string]string{}
	for k := range r.PostForm {
		event[k] = r.PostForm.Get(k)
	}
	f.events = append(f.events, event)
	linkID, _ := strconv.ParseInt(event["knowledge_node_student_id"], 10, 64)
	writeTestJSON(w, map[string]any{
		"id":                        f.id(),
		"knowledge_node_student_id": linkID,
		"type":                      event["event_type"],
		"payload":                   event["payload"],
	})
}

func (f *fakeService) handleReviews(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = r.URL.Query().Get("student_uid")
	writeTestJSON(w, f.reviews)
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	cfg, err := adaptive.NewConfiguration(map[string]any{
		"url":          srv.URL,
		"api_version":  "v42",
		"instance_id":  23,
		"access_token": testToken,
	})
	require.NoError(t, err)

	cc := DefaultClientConfig(cfg)
	cc.RequestsPerSecond = 0
	cc.RetryInitialDelay = time.Millisecond
	cc.Logger = logger.Nop()

	c, err := NewClient(cc, opts...)
	require.NoError(t, err)
	return c
}
