package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"storyspark/internal/controller"
	"storyspark/internal/logger"
	"storyspark/internal/metrics"
)

const DefaultMax = 256

// Factory builds the controller for a new session.
type Factory func() *controller.Controller

// Registry maps session ids to controllers. The least recently used session
// is evicted once Max is exceeded and its in-flight request is canceled.
type Registry struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, *controller.Controller]
	factory Factory
	log     *zap.Logger
}

func NewRegistry(max int, factory Factory, log *zap.Logger) (*Registry, error) {
	if max <= 0 {
		max = DefaultMax
	}
	r := &Registry{factory: factory, log: logger.OrNop(log)}
	cache, err := lru.NewWithEvict(max, r.onEvict)
	if err != nil {
		return nil, err
	}
	r.cache = cache
	return r, nil
}

func (r *Registry) onEvict(id string, c *controller.Controller) {
	c.Close()
	metrics.ActiveSessions.Set(float64(r.cache.Len()))
	r.log.Debug("session evicted", zap.String("session_id", id))
}

// Acquire returns the controller for id, creating a session when id is empty
// or unknown. The returned id is the one to use from now on.
func (r *Registry) Acquire(id string) (string, *controller.Controller) {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "" {
		if c, ok := r.cache.Get(id); ok {
			return id, c
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c := r.factory()
	r.cache.Add(id, c)
	metrics.ActiveSessions.Set(float64(r.cache.Len()))
	return id, c
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id string) (*controller.Controller, bool) {
	return r.cache.Get(strings.TrimSpace(id))
}

// Drop ends a session.
func (r *Registry) Drop(id string) bool {
	return r.cache.Remove(strings.TrimSpace(id))
}

func (r *Registry) Len() int { return r.cache.Len() }

// Close cancels every session's in-flight work.
func (r *Registry) Close() {
	r.cache.Purge()
}
