package constants

import "time"

const (
	// TopicPrefix roots every platform topic.
	TopicPrefix = "iot-2"

	// CommandWildcard matches every command name in a subscription.
	CommandWildcard = "+"

	// DefaultFormat is the payload format used unless the caller overrides it.
	DefaultFormat = "json"

	// DefaultQOS is at-most-once delivery.
	DefaultQOS = byte(0)
)

const (
	// DefaultTelemetryEvent is the event name for gateway telemetry publishes.
	DefaultTelemetryEvent = "status"

	// DefaultTelemetryInterval is the default gap between telemetry publishes.
	DefaultTelemetryInterval = 30 * time.Second
)
