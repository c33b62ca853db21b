package cli

import (
	"context"
	"fmt"

	"github.com/soyeahso/annobot/internal/assistant"
	"github.com/soyeahso/annobot/internal/config"
	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/soyeahso/annobot/internal/plugin"
	"github.com/soyeahso/annobot/internal/store"
)

// sessionOptions builds the assistant options every session of this process
// starts with.
func sessionOptions(c config.Config, hm *hooks.Manager) (assistant.Options, error) {
	initial, err := c.Task.Initial()
	if err != nil {
		return assistant.Options{}, err
	}

	lo, hi := c.Assistant.Latency()
	opts := assistant.Options{
		LatencyMin: lo,
		LatencyMax: hi,
		Timeout:    c.Assistant.Timeout(),
		Hooks:      hm,
		Config:     &initial,
	}
	switch c.Assistant.Annotations {
	case "", "demo":
		opts.Responder = assistant.RuleResponder{Service: assistant.DemoAnnotations{}}
	case "none":
		opts.Responder = assistant.RuleResponder{}
	default:
		return assistant.Options{}, fmt.Errorf("unknown annotation backend %q", c.Assistant.Annotations)
	}
	return opts, nil
}

// openCatalog opens the job/label catalog, creating it on first use.
func openCatalog() (*store.DB, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating %s: %w", paths.Base, err)
	}
	db, err := store.Open(paths.CatalogPath(cfg), base)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return db, nil
}

// startPlugins initializes the session observers enabled in the config.
// The caller must CloseAll the returned registry.
func startPlugins(ctx context.Context, hm *hooks.Manager) (*plugin.Registry, error) {
	reg := plugin.NewRegistry(hm, base)
	if path := paths.TranscriptPath(cfg); path != "" {
		if err := reg.Register(plugin.NewTranscript(path)); err != nil {
			return nil, err
		}
	}
	if err := reg.InitAll(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}
