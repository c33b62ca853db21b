// Package plugin runs optional observers of assistant sessions. Plugins
// subscribe to hook events in Init and release them in Close.
package plugin

import (
	"context"

	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/soyeahso/annobot/internal/logging"
)

// Plugin is an optional session observer.
type Plugin interface {
	// ID returns a unique identifier, e.g. "transcript".
	ID() string

	// Init subscribes the plugin to the events it needs.
	Init(ctx context.Context, api API) error

	// Close unsubscribes and releases resources.
	Close() error
}

// API is what a plugin receives at Init.
type API struct {
	Hooks *hooks.Manager
	Log   *logging.Logger
}
