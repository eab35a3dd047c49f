package workflow

import (
	"log/slog"
	"sync"
	"time"

	apperrors "travelease/internal/errors"
)

// Registry owns the live workflow instances. Each instance is keyed by its
// unguessable id and discarded after sitting idle for the configured TTL,
// the server-side analogue of the form being thrown away on unmount.
type Registry struct {
	mu      sync.RWMutex
	items   map[string]*Controller
	idleTTL time.Duration
	ticker  *time.Ticker
	done    chan struct{}
}

func NewRegistry(idleTTL time.Duration) *Registry {
	if idleTTL == 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry{
		items:   make(map[string]*Controller),
		idleTTL: idleTTL,
		done:    make(chan struct{}),
	}
}

func (r *Registry) Add(c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = c
}

func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrWorkflowNotFound
	}
	return c, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// StartJanitor begins the background sweep that evicts idle workflows.
func (r *Registry) StartJanitor() {
	slog.Info("Starting workflow janitor", "check_interval", "1m", "idle_ttl", r.idleTTL)

	r.ticker = time.NewTicker(time.Minute)

	go func() {
		for {
			select {
			case <-r.ticker.C:
				r.sweep()
			case <-r.done:
				slog.Info("Workflow janitor stopped")
				return
			}
		}
	}()
}

// StopJanitor gracefully stops the background sweep.
func (r *Registry) StopJanitor() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.done)
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.items {
		if c.LastActive().Before(cutoff) {
			delete(r.items, id)
			slog.Info("Evicted idle workflow", "workflow_id", id)
		}
	}
}
