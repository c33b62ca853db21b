package config

// Config is the root configuration for annobot.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Assistant AssistantConfig `yaml:"assistant,omitempty"`
	Task      TaskConfig      `yaml:"task,omitempty"`
	Catalog   CatalogConfig   `yaml:"catalog,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// AssistantConfig controls turn dispatch.
type AssistantConfig struct {
	// LatencyMinMs and LatencyMaxMs bound the simulated backend round-trip.
	LatencyMinMs int `yaml:"latencyMinMs"`
	LatencyMaxMs int `yaml:"latencyMaxMs"`
	// TimeoutMs bounds each responder call; 0 disables the deadline.
	TimeoutMs int `yaml:"timeoutMs,omitempty"`
	// Annotations selects the annotation backend: "demo" or "none".
	Annotations string `yaml:"annotations,omitempty"`
}

// TaskConfig holds the task configuration new sessions start with.
type TaskConfig struct {
	AnnotationType string `yaml:"annotationType,omitempty"`
	Tracking       bool   `yaml:"tracking,omitempty"`
	FrameStart     int    `yaml:"frameStart"`
	FrameEnd       int    `yaml:"frameEnd"`
}

// CatalogConfig locates the job/label catalog database.
type CatalogConfig struct {
	// Path to the SQLite file. Empty means <base>/catalog.db.
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
	// Transcript is a JSON lines file recording every chat message. Relative
	// paths are resolved against the logs directory; empty disables it.
	Transcript string `yaml:"transcript,omitempty"`
}
