package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func issuePaths(issues []ValidationIssue) []string {
	paths := make([]string, len(issues))
	for i, is := range issues {
		paths[i] = is.Path
	}
	return paths
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{"defaults", func(*Config) {}, nil},
		{"port too high", func(c *Config) { c.Gateway.Port = 70000 }, []string{"gateway.port"}},
		{"bad bind", func(c *Config) { c.Gateway.Bind = "tailnet" }, []string{"gateway.bind"}},
		{"custom bind without host", func(c *Config) { c.Gateway.Bind = "custom" }, []string{"gateway.customBindHost"}},
		{"bad auth mode", func(c *Config) { c.Gateway.Auth.Mode = "oauth" }, []string{"gateway.auth.mode"}},
		{"no auth on loopback", func(c *Config) { c.Gateway.Auth.Mode = "none" }, nil},
		{"no auth on lan", func(c *Config) { c.Gateway.Auth.Mode = "none"; c.Gateway.Bind = "lan" }, []string{"gateway.auth.mode"}},
		{"tls without cert", func(c *Config) { c.Gateway.TLS.Enabled = true }, []string{"gateway.tls"}},
		{"negative latency", func(c *Config) { c.Assistant.LatencyMinMs = -1 }, []string{"assistant.latencyMinMs"}},
		{"inverted latency", func(c *Config) { c.Assistant.LatencyMaxMs = 100 }, []string{"assistant.latencyMaxMs"}},
		{"zero latency", func(c *Config) { c.Assistant.LatencyMinMs, c.Assistant.LatencyMaxMs = 0, 0 }, nil},
		{"negative timeout", func(c *Config) { c.Assistant.TimeoutMs = -5 }, []string{"assistant.timeoutMs"}},
		{"bad backend", func(c *Config) { c.Assistant.Annotations = "gpu" }, []string{"assistant.annotations"}},
		{"bad annotation type", func(c *Config) { c.Task.AnnotationType = "cuboid" }, []string{"task.annotationType"}},
		{"label as type", func(c *Config) { c.Task.AnnotationType = "Bounding Box" }, nil},
		{"negative start", func(c *Config) { c.Task.FrameStart = -1 }, []string{"task.frameStart"}},
		{"crossed frames", func(c *Config) { c.Task.FrameStart = 200 }, []string{"task.frameEnd"}},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, []string{"logging.level"}},
		{"bad log style", func(c *Config) { c.Logging.Style = "compact" }, []string{"logging.style"}},
		{"multiple", func(c *Config) {
			c.Gateway.Port = -1
			c.Logging.Level = "loud"
		}, []string{"gateway.port", "logging.level"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			if tt.want == nil {
				assert.Empty(t, issues)
				return
			}
			assert.Equal(t, tt.want, issuePaths(issues))
		})
	}
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "task.frameEnd", Message: "must be >= frameStart"}
	assert.Equal(t, "task.frameEnd: must be >= frameStart", issue.String())
}
