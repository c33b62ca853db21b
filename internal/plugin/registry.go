package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/soyeahso/annobot/internal/logging"
)

// Registry manages plugin lifecycle.
type Registry struct {
	mu      sync.Mutex
	plugins []Plugin // registration order
	started int      // plugins[:started] have been initialized
	hooks   *hooks.Manager
	log     *logging.Logger
}

// NewRegistry creates a plugin registry bound to hm.
func NewRegistry(hm *hooks.Manager, log *logging.Logger) *Registry {
	return &Registry{hooks: hm, log: log.Sub("plugins")}
}

// Register adds a plugin without initializing it.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.ID() == p.ID() {
			return fmt.Errorf("plugin already registered: %s", p.ID())
		}
	}
	r.plugins = append(r.plugins, p)
	r.log.Debug().Str("id", p.ID()).Msg("plugin registered")
	return nil
}

// InitAll initializes plugins in registration order. If one fails, the ones
// already initialized are closed again before the error is returned.
func (r *Registry) InitAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.started < len(r.plugins) {
		p := r.plugins[r.started]
		if err := p.Init(ctx, API{Hooks: r.hooks, Log: r.log.Sub(p.ID())}); err != nil {
			r.closeStarted()
			return fmt.Errorf("init plugin %s: %w", p.ID(), err)
		}
		r.log.Info().Str("id", p.ID()).Msg("plugin started")
		r.started++
	}
	return nil
}

// CloseAll closes initialized plugins in reverse order.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeStarted()
}

func (r *Registry) closeStarted() {
	for ; r.started > 0; r.started-- {
		p := r.plugins[r.started-1]
		if err := p.Close(); err != nil {
			r.log.Error().Err(err).Str("id", p.ID()).Msg("plugin close error")
		}
	}
}

// List returns registered plugin IDs in registration order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		ids[i] = p.ID()
	}
	return ids
}
