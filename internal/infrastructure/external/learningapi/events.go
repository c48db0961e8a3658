package learningapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateEvent resolves (or creates) the student's link to blockID and posts an
// event of the given type against it. extra is merged into the form; it cannot
// replace knowledge_node_student_id or event_type.
func (c *Client) CreateEvent(ctx context.Context, blockID, uid string, eventType adaptive.EventType, extra map[string]string) (*adaptive.Event, error) {
	if !eventType.IsValid() {
		return nil, shared.WrapError("adaptive", "CreateEvent", shared.ErrInvalidInput,
			"unknown event type", fmt.Errorf("%q", eventType))
	}

	link, err := c.GetOrCreateKnowledgeNodeStudent(ctx, blockID, uid)
	if err != nil {
		return nil, err
	}

	form := make(url.Values, len(extra)+2)
	for k, v := range extra {
		form.Set(k, v)
	}
	form.Set("knowledge_node_student_id", strconv.FormatInt(link.ID, 10))
	form.Set("event_type", string(eventType))

	var event adaptive.Event
	err = c.doRequest(ctx, request{
		stage:  StageCreateEvent,
		method: http.MethodPost,
		url:    c.endpoints.Events,
		form:   form,
	}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateReadEvent records that the student has read the unit.
func (c *Client) CreateReadEvent(ctx context.Context, blockID, uid string) (*adaptive.Event, error) {
	return c.CreateEvent(ctx, blockID, uid, adaptive.EventRead, nil)
}

// CreateResultEvent records the outcome of an attempt: "correct" or "incorrect".
func (c *Client) CreateResultEvent(ctx context.Context, blockID, uid, result string) (*adaptive.Event, error) {
	payload, err := adaptive.ResultPayload(result)
	if err != nil {
		return nil, err
	}
	return c.CreateEvent(ctx, blockID, uid, adaptive.EventResult, map[string]string{"payload": payload})
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEWS
// ══════════════════════════════════════════════════════════════════════════════

// GetPendingReviews returns the reviews that are due for the student, as sent
// by the service.
func (c *Client) GetPendingReviews(ctx context.Context, uid string) ([]adaptive.PendingReview, error) {
	var reviews []adaptive.PendingReview
	// student_uid travels in the query string; a GET body is dropped by most proxies.
	err := c.doRequest(ctx, request{
		stage:  StageFetchReviews,
		method: http.MethodGet,
		url:    c.endpoints.PendingReviews,
		query:  url.Values{"student_uid": {uid}},
	}, &reviews)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
