package config

import (
	"fmt"
	"time"

	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/task"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 18790,
			Bind: "loopback",
			Auth: GatewayAuth{
				Mode: "token",
			},
		},
		Assistant: AssistantConfig{
			LatencyMinMs: 1500,
			LatencyMaxMs: 2500,
			Annotations:  "demo",
		},
		Task: TaskConfig{
			AnnotationType: string(domain.AnnotationBoundingBox),
			FrameStart:     task.DefaultFrameStart,
			FrameEnd:       task.DefaultFrameEnd,
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
	}
}

// Latency returns the simulated round-trip window.
func (a AssistantConfig) Latency() (lo, hi time.Duration) {
	return time.Duration(a.LatencyMinMs) * time.Millisecond,
		time.Duration(a.LatencyMaxMs) * time.Millisecond
}

// Timeout returns the responder deadline, zero when disabled.
func (a AssistantConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

// Initial converts the configured task defaults into a task configuration.
func (t TaskConfig) Initial() (task.Config, error) {
	typ, err := domain.ParseAnnotationType(t.AnnotationType)
	if err != nil {
		return task.Config{}, &ConfigError{Message: "task.annotationType: " + err.Error()}
	}
	cfg := task.Defaults()
	cfg.AnnotationType = typ
	cfg.EnableTracking = t.Tracking
	cfg.FrameStart = t.FrameStart
	cfg.FrameEnd = t.FrameEnd
	if err := cfg.Validate(); err != nil {
		return task.Config{}, &ConfigError{Message: "task: " + err.Error()}
	}
	return cfg, nil
}
