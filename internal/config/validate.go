package config

import (
	"fmt"
	"slices"

	"github.com/soyeahso/annobot/internal/domain"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		add("gateway.customBindHost", "required when bind is custom")
	}

	validAuthModes := []string{"token", "password", "none"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Gateway.Auth.Mode) {
		add("gateway.auth.mode", "must be one of %v, got %q", validAuthModes, cfg.Gateway.Auth.Mode)
	}
	if cfg.Gateway.Auth.Mode == "none" && cfg.Gateway.Bind != "loopback" {
		add("gateway.auth.mode", "none is only allowed with bind loopback")
	}

	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		add("gateway.tls", "certPath and keyPath are required when TLS is enabled")
	}

	// Assistant validation
	a := cfg.Assistant
	if a.LatencyMinMs < 0 {
		add("assistant.latencyMinMs", "must be >= 0, got %d", a.LatencyMinMs)
	}
	if a.LatencyMaxMs < a.LatencyMinMs {
		add("assistant.latencyMaxMs", "must be >= latencyMinMs (%d), got %d", a.LatencyMinMs, a.LatencyMaxMs)
	}
	if a.TimeoutMs < 0 {
		add("assistant.timeoutMs", "must be >= 0, got %d", a.TimeoutMs)
	}
	validBackends := []string{"demo", "none"}
	if a.Annotations != "" && !slices.Contains(validBackends, a.Annotations) {
		add("assistant.annotations", "must be one of %v, got %q", validBackends, a.Annotations)
	}

	// Task validation
	if cfg.Task.AnnotationType != "" {
		if _, err := domain.ParseAnnotationType(cfg.Task.AnnotationType); err != nil {
			add("task.annotationType", "must be one of %v, got %q", domain.AnnotationTypes, cfg.Task.AnnotationType)
		}
	}
	if cfg.Task.FrameStart < 0 {
		add("task.frameStart", "must be >= 0, got %d", cfg.Task.FrameStart)
	}
	if cfg.Task.FrameStart > cfg.Task.FrameEnd {
		add("task.frameEnd", "must be >= frameStart (%d), got %d", cfg.Task.FrameStart, cfg.Task.FrameEnd)
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		add("logging.style", "must be one of %v, got %q", validStyles, cfg.Logging.Style)
	}

	return issues
}
