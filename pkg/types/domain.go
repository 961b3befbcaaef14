package types

import "time"

// GenerationParameters are the sampling settings sent with every generation.
// They come from configuration and are never overridden per request.
type GenerationParameters struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

// ModelCatalog is the set of backend models plus the configured default.
// CurrentModel is always set, even when the backend list omits it.
type ModelCatalog struct {
	Models       []string
	CurrentModel string
}

// HealthState is the externally visible backend health.
type HealthState string

const (
	Healthy   HealthState = "healthy"
	Unhealthy HealthState = "unhealthy"
)

// HealthStatus is the result of one backend probe.
type HealthStatus struct {
	State HealthState
	// Model is the configured model name; set only when healthy.
	Model string
	// Cause classifies an unhealthy probe (timeout, unreachable, backend_status, other).
	// It is kept for logs and metrics and is not part of the HTTP contract.
	Cause   string
	Latency time.Duration
}

// Healthy reports whether the probe succeeded.
func (h HealthStatus) Healthy() bool { return h.State == Healthy }

// AppInfo is static metadata fixed at startup.
type AppInfo struct {
	Name        string
	Version     string
	Model       string
	Description string
	BackendURL  string
}
