package config

// Config is the root configuration for the agent bus gateway.
type Config struct {
	Gateway  GatewayConfig  `json:"gateway"`
	Store    StoreConfig    `json:"store"`
	Events   EventsConfig   `json:"events"`
	Wait     WaitConfig     `json:"wait"`
	Presence PresenceConfig `json:"presence"`
	Uploads  UploadsConfig  `json:"uploads"`
	Catalog  CatalogConfig  `json:"catalog"`
}

// GatewayConfig holds the HTTP listener settings shared by the REST and
// MCP-over-SSE surfaces.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StoreConfig configures the durable SQLite-backed store.
type StoreConfig struct {
	Path string `json:"path"` // sqlite file path, e.g. $AGENTBUS_PATH/bus.db
}

// EventsConfig holds event bus fan-out settings.
type EventsConfig struct {
	SubscriberQueueSize int `json:"subscriber_queue_size"` // per-subscriber bounded queue (default: 256)
}

// WaitConfig holds the long-poll wait coordinator's settings.
type WaitConfig struct {
	DefaultTimeoutSeconds int `json:"default_timeout_seconds"` // used when a caller omits timeout_ms (default: 300)
	MaxTimeoutSeconds     int `json:"max_timeout_seconds"`     // caller-supplied timeout is clamped to this (default: 600)
	SafetyNetPollSeconds  int `json:"safety_net_poll_seconds"` // periodic re-check even without a wake (default: 1)
}

// PresenceConfig holds the presence manager's heartbeat/sweep settings.
type PresenceConfig struct {
	HeartbeatTimeoutSeconds int `json:"heartbeat_timeout_seconds"` // no heartbeat within this window -> offline (default: 30)
	SweepIntervalSeconds    int `json:"sweep_interval_seconds"`    // ticker period for the liveness sweep (default: 1)
}

// UploadsConfig configures image-upload storage (spec §6 POST /api/upload/image).
type UploadsConfig struct {
	Dir            string `json:"dir"`             // directory uploads are written under
	RetentionHours int    `json:"retention_hours"` // parsed but not read by any component: uploads are never cleaned up, whatever the value
	MaxTotalBytes  int64  `json:"max_total_bytes"` // parsed but not read by any component: total upload size is never limited, whatever the value
}

// CatalogConfig points at the declarative available-agent catalog.
type CatalogConfig struct {
	Path string `json:"path"` // YAML file listing invitable agents
}
