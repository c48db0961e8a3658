package learningapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// ListStudents returns every student of the instance.
func (c *Client) ListStudents(ctx context.Context) ([]adaptive.Student, error) {
	var students []adaptive.Student
	err := c.doRequest(ctx, request{
		stage:  StageListStudents,
		method: http.MethodGet,
		url:    c.endpoints.Students,
	}, &students)
	if err != nil {
		return nil, err
	}
	return students, nil
}

// FindStudent returns the student with the given uid,
// or shared.ErrStudentNotFound when the service does not know it.
func (c *Client) FindStudent(ctx context.Context, uid string) (*adaptive.Student, error) {
	students, err := c.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range students {
		if students[i].UID == uid {
			return &students[i], nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

// CreateStudent registers a new student.
func (c *Client) CreateStudent(ctx context.Context, uid string) (*adaptive.Student, error) {
	var student adaptive.Student
	err := c.doRequest(ctx, request{
		stage:  StageCreateStudent,
		method: http.MethodPost,
		url:    c.endpoints.Students,
		form:   url.Values{"uid": {uid}},
	}, &student)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// GetOrCreateStudent returns the student with the given uid, creating it on a
// genuine miss. Remote failures during lookup are returned, never treated as
// a miss.
func (c *Client) GetOrCreateStudent(ctx context.Context, uid string) (*adaptive.Student, error) {
	unlock := c.lock(ctx, "student", uid)
	defer unlock()
	return c.getOrCreateStudent(ctx, uid)
}

func (c *Client) getOrCreateStudent(ctx context.Context, uid string) (*adaptive.Student, error) {
	student, err := c.FindStudent(ctx, uid)
	if err == nil {
		return student, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	c.logger.Info("creating adaptive learning student", logger.String("student_uid", uid))
	return c.CreateStudent(ctx, uid)
}

// ══════════════════════════════════════════════════════════════════════════════
// KNOWLEDGE NODE STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// ListKnowledgeNodeStudents returns every student/knowledge node link of the instance.
func (c *Client) ListKnowledgeNodeStudents(ctx context.Context) ([]adaptive.KnowledgeNodeStudent, error) {
	var links []adaptive.KnowledgeNodeStudent
	err := c.doRequest(ctx, request{
		stage:  StageListKnowledgeNodeStudents,
		method: http.MethodGet,
		url:    c.endpoints.KnowledgeNodeStudents,
	}, &links)
	if err != nil {
		return nil, err
	}
	return links, nil
}

// FindKnowledgeNodeStudent returns the link for (blockID, uid),
// or shared.ErrKnowledgeNodeStudentNotFound.
func (c *Client) FindKnowledgeNodeStudent(ctx context.Context, blockID, uid string) (*adaptive.KnowledgeNodeStudent, error) {
	links, err := c.ListKnowledgeNodeStudents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range links {
		if links[i].Matches(blockID, uid) {
			return &links[i], nil
		}
	}
	return nil, shared.ErrKnowledgeNodeStudentNotFound
}

// CreateKnowledgeNodeStudent links the student to the knowledge node.
func (c *Client) CreateKnowledgeNodeStudent(ctx context.Context, blockID, uid string) (*adaptive.KnowledgeNodeStudent, error) {
	var link adaptive.KnowledgeNodeStudent
	err := c.doRequest(ctx, request{
		stage:  StageCreateKnowledgeNodeStudent,
		method: http.MethodPost,
		url:    c.endpoints.KnowledgeNodeStudents,
		form:   url.Values{"knowledge_node_uid": {blockID}, "student_uid": {uid}},
	}, &link)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetOrCreateKnowledgeNodeStudent makes sure the student exists, then returns
// its link to blockID, creating the link on a genuine miss.
func (c *Client) GetOrCreateKnowledgeNodeStudent(ctx context.Context, blockID, uid string) (*adaptive.KnowledgeNodeStudent, error) {
	if _, err := c.GetOrCreateStudent(ctx, uid); err != nil {
		return nil, err
	}

	unlock := c.lock(ctx, "knowledge_node_student", blockID, uid)
	defer unlock()

	link, err := c.FindKnowledgeNodeStudent(ctx, blockID, uid)
	if err == nil {
		return link, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	c.logger.Info("linking student to knowledge node",
		logger.String("student_uid", uid), logger.BlockID(blockID))
	return c.CreateKnowledgeNodeStudent(ctx, blockID, uid)
}

// CreateKnowledgeNodeStudents links the student to every block in blockIDs,
// in order, and returns the links. The first failure aborts the batch.
func (c *Client) CreateKnowledgeNodeStudents(ctx context.Context, blockIDs []string, uid string) ([]adaptive.KnowledgeNodeStudent, error) {
	links := make([]adaptive.KnowledgeNodeStudent, 0, len(blockIDs))
	for _, blockID := range blockIDs {
		link, err := c.GetOrCreateKnowledgeNodeStudent(ctx, blockID, uid)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, nil
}
