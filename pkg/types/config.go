package types

import "time"

// Default polling intervals. The poller has no attempt cap and no overall
// wall-clock timeout; the surface that owns the user's screen is expected to
// cancel the poll when its own timer fires.
const (
	DefaultPendingInterval = 1 * time.Second
	DefaultRetryInterval   = 3 * time.Second
)

// APIConfig configures the payment backend clients.
type APIConfig struct {
	BaseURL        string `yaml:"baseUrl" json:"baseUrl"`
	APIKey         string `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty" json:"timeoutSeconds,omitempty"` // per-call timeout, default 30
}

// Timeout returns the per-call timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollConfig configures the status poller intervals.
type PollConfig struct {
	PendingIntervalMS int `yaml:"pendingIntervalMs,omitempty" json:"pendingIntervalMs,omitempty"` // delay after a pending status, default 1000
	RetrySeconds      int `yaml:"retrySeconds,omitempty" json:"retrySeconds,omitempty"`           // delay after a transport failure, default 3
}

// PendingInterval returns the delay applied after a pending status.
func (c PollConfig) PendingInterval() time.Duration {
	if c.PendingIntervalMS <= 0 {
		return DefaultPendingInterval
	}
	return time.Duration(c.PendingIntervalMS) * time.Millisecond
}

// RetryInterval returns the delay applied after a transient transport error.
func (c PollConfig) RetryInterval() time.Duration {
	if c.RetrySeconds <= 0 {
		return DefaultRetryInterval
	}
	return time.Duration(c.RetrySeconds) * time.Second
}

// SandboxConfig configures the local sandbox gateway.
type SandboxConfig struct {
	Addr         string `yaml:"addr,omitempty" json:"addr,omitempty"`                 // default :8620
	PendingPolls int    `yaml:"pendingPolls,omitempty" json:"pendingPolls,omitempty"` // pending responses before complete, default 2
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"` // OTLP gRPC endpoint, default localhost:4317
}

// NotifierConfig configures one terminal-outcome notification sink.
type NotifierConfig struct {
	Type string `yaml:"type" json:"type"`                   // console, file or webhook
	URL  string `yaml:"url,omitempty" json:"url,omitempty"` // webhook only
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Config is the root continuum.yaml configuration.
type Config struct {
	Mode      HandlingMode     `yaml:"mode" json:"mode"`
	API       APIConfig        `yaml:"api" json:"api"`
	Poll      PollConfig       `yaml:"poll,omitempty" json:"poll,omitempty"`
	Sandbox   SandboxConfig    `yaml:"sandbox,omitempty" json:"sandbox,omitempty"`
	Telemetry TelemetryConfig  `yaml:"telemetry,omitempty" json:"telemetry,omitempty"`
	Notifiers []NotifierConfig `yaml:"notifiers,omitempty" json:"notifiers,omitempty"`
}
