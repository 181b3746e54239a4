package session

import (
	"log/slog"
	"sync"
)

// Registry keeps one Controller per signed-in user.
type Registry struct {
	svc Lifecycle
	log *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewRegistry(svc Lifecycle, log *slog.Logger) *Registry {
	return &Registry{svc: svc, log: log, sessions: map[string]*Controller{}}
}

func (r *Registry) For(userID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[userID]
	if !ok {
		c = NewController(r.svc, userID, r.log)
		r.sessions[userID] = c
	}
	return c
}
