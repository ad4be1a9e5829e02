package core

// BusConfig is the static, read-only snapshot exposed by bus_get_config
// and chat://bus/config (§6) — the values adapters need to render without
// reaching into internal/config directly.
type BusConfig struct {
	Host                    string `json:"host"`
	Port                    int    `json:"port"`
	HeartbeatTimeoutSeconds int    `json:"heartbeat_timeout_seconds"`
	WaitTimeoutSeconds      int    `json:"wait_timeout_seconds"`
}
