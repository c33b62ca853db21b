package config

import (
	"bytes"
	"cmp"
	"errors"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envRef matches ${VAR_NAME} references inside string values.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars substitutes ${VAR} references. Unset variables stay verbatim
// so a missing secret is visible in validation output.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		if val, ok := os.LookupEnv(ref[2 : len(ref)-1]); ok {
			return val
		}
		return ref
	})
}

// Fields that may hold ${VAR} references.
func expandSensitiveFields(cfg *Config) {
	for _, f := range []*string{
		&cfg.Gateway.Auth.Token,
		&cfg.Gateway.Auth.Password,
		&cfg.Catalog.Path,
		&cfg.Logging.Transcript,
	} {
		*f = expandEnvVars(*f)
	}
}

// Load reads the YAML file at path over Defaults, then applies ANNOBOT_*
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := decode(data, &cfg); err != nil {
			return cfg, err
		}
		fillBlanks(&cfg)
		expandSensitiveFields(&cfg)
	}

	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.apply(&cfg, v)
		}
	}
	return cfg, nil
}

// decode unmarshals data over cfg, rejecting keys Config does not define.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return nil
}

// fillBlanks restores defaults for string settings the file set to "".
// Numbers are kept: zero is a meaningful latency and frame bound.
func fillBlanks(cfg *Config) {
	d := Defaults()
	cfg.Gateway.Bind = cmp.Or(cfg.Gateway.Bind, d.Gateway.Bind)
	cfg.Gateway.Auth.Mode = cmp.Or(cfg.Gateway.Auth.Mode, d.Gateway.Auth.Mode)
	cfg.Assistant.Annotations = cmp.Or(cfg.Assistant.Annotations, d.Assistant.Annotations)
	cfg.Task.AnnotationType = cmp.Or(cfg.Task.AnnotationType, d.Task.AnnotationType)
	cfg.Logging.Level = cmp.Or(cfg.Logging.Level, d.Logging.Level)
	cfg.Logging.Style = cmp.Or(cfg.Logging.Style, d.Logging.Style)
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = d.Gateway.Port
	}
}

type envOverride struct {
	name  string
	apply func(cfg *Config, v string)
}

var envOverrides = []envOverride{
	{"ANNOBOT_GATEWAY_PORT", func(cfg *Config, v string) {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}},
	{"ANNOBOT_GATEWAY_BIND", func(cfg *Config, v string) { cfg.Gateway.Bind = v }},
	{"ANNOBOT_LOG_LEVEL", func(cfg *Config, v string) { cfg.Logging.Level = strings.ToLower(v) }},
	// Pins both ends of the latency window.
	{"ANNOBOT_LATENCY_MS", func(cfg *Config, v string) {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.Assistant.LatencyMinMs, cfg.Assistant.LatencyMaxMs = ms, ms
		}
	}},
}
