// Package learning connects courses of the catalog to the adaptive learning
// service: it keeps one client per course and turns platform user ids into
// the anonymous ids the service knows.
package learning

import (
	"context"
	"sync"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT PORT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the part of the adaptive learning client used by the application.
// *learningapi.Client implements it.
type Client interface {
	CreateReadEvent(ctx context.Context, blockID, uid string) (*adaptive.Event, error)
	CreateResultEvent(ctx context.Context, blockID, uid, result string) (*adaptive.Event, error)
	CreateKnowledgeNodeStudents(ctx context.Context, blockIDs []string, uid string) ([]adaptive.KnowledgeNodeStudent, error)
	GetPendingReviews(ctx context.Context, uid string) ([]adaptive.PendingReview, error)
}

// ClientFactory builds a client for one service configuration.
type ClientFactory func(cfg adaptive.Configuration) (Client, error)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

type registryEntry struct {
	fingerprint string
	client      Client
}

// Registry memoizes one client per course. A course whose settings changed
// gets a fresh client on the next call.
type Registry struct {
	mu      sync.Mutex
	factory ClientFactory
	clients map[string]registryEntry
}

// NewRegistry creates a registry that builds clients with factory.
func NewRegistry(factory ClientFactory) *Registry {
	return &Registry{
		factory: factory,
		clients: make(map[string]registryEntry),
	}
}

// ClientFor returns the client for the course, building it on first use.
func (r *Registry) ClientFor(courseKey string, cfg adaptive.Configuration) (Client, error) {
	fp := cfg.Fingerprint()

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.clients[courseKey]; ok && e.fingerprint == fp {
		return e.client, nil
	}

	c, err := r.factory(cfg)
	if err != nil {
		return nil, err
	}
	r.clients[courseKey] = registryEntry{fingerprint: fp, client: c}
	return c, nil
}

// Forget drops the client of a course, if any.
func (r *Registry) Forget(courseKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, courseKey)
}
