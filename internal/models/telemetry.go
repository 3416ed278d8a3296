package models

// GatewayTelemetry is the payload of the gateway's own periodic status event.
type GatewayTelemetry struct {
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
}
