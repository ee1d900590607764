// Package config handles environment and YAML configuration loading for
// syncmcp. The environment contract is authoritative: SYNCTHING_INSTANCES
// (JSON object) selects multi-instance mode, otherwise SYNCTHING_URL and
// SYNCTHING_API_KEY describe a single implicit "default" instance. A YAML
// file can declare the same settings plus serve-time options; environment
// values win.
package config

import "time"

// DefaultURL is the base URL used when no instance URL is configured.
const DefaultURL = "http://localhost:8384"

// Config is the top-level configuration structure.
type Config struct {
	// Instances maps instance names to their connection settings.
	// Populated from the YAML file, then replaced wholesale when
	// SYNCTHING_INSTANCES is set and non-empty.
	Instances map[string]Instance `yaml:"instances"`

	// InstancesJSON is the raw SYNCTHING_INSTANCES value. Parsed by Load;
	// never read directly by other packages.
	InstancesJSON string `yaml:"-" env:"SYNCTHING_INSTANCES"`

	// URL and APIKey describe the implicit single instance used when no
	// instance map is configured.
	URL    string `yaml:"url" env:"SYNCTHING_URL"`
	APIKey string `yaml:"api_key" env:"SYNCTHING_API_KEY"`

	HTTP      HTTP      `yaml:"http" envPrefix:"SYNCMCP_HTTP_"`
	Probe     Probe     `yaml:"probe" envPrefix:"SYNCMCP_PROBE_"`
	History   History   `yaml:"history" envPrefix:"SYNCMCP_HISTORY_"`
	Telemetry Telemetry `yaml:"telemetry" envPrefix:"SYNCMCP_OTEL_"`
}

// Instance is one configured Syncthing endpoint.
type Instance struct {
	URL    string `yaml:"url" json:"url"`
	APIKey string `yaml:"api_key" json:"api_key"`
}

// HTTP configures the streamable-HTTP gateway (syncmcp http).
type HTTP struct {
	Bind            string        `yaml:"bind" env:"BIND"`
	BearerToken     string        `yaml:"bearer_token" env:"BEARER_TOKEN"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Probe configures the periodic instance availability prober.
type Probe struct {
	// Schedule is a cron expression. Empty disables the prober.
	Schedule string `yaml:"schedule" env:"SCHEDULE"`
}

// History configures the SQLite tool invocation log.
type History struct {
	// Path to the database file. Empty disables history recording.
	Path string `yaml:"path" env:"PATH"`

	// Retention is how long records are kept before the prune job
	// removes them.
	Retention time.Duration `yaml:"retention" env:"RETENTION"`
}

// Telemetry configures OTLP trace export.
type Telemetry struct {
	// Endpoint is the OTLP/HTTP collector host:port. Empty disables tracing.
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `yaml:"insecure" env:"INSECURE"`
}

// defaults fills zero-valued fields with sensible defaults.
func (c *Config) defaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "127.0.0.1:8765"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 60 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Probe.Schedule == "" {
		c.Probe.Schedule = "*/1 * * * *"
	}
	if c.History.Retention <= 0 {
		c.History.Retention = 30 * 24 * time.Hour
	}
}
