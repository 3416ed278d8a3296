package models

import (
	"encoding/json"
	"time"
)

// Command represents a decoded platform command addressed to the gateway or
// one of its downstream devices.
type Command struct {
	Type      string          `json:"type"`      // Device type segment of the command topic.
	DeviceID  string          `json:"device_id"` // Device ID segment of the command topic.
	Name      string          `json:"command"`   // Command name segment of the command topic.
	Format    string          `json:"format"`    // Payload format segment of the command topic.
	Timestamp time.Time       `json:"timestamp"` // Timestamp carried in the command payload.
	Data      json.RawMessage `json:"data,omitempty"`
	Payload   []byte          `json:"-"` // Raw message body as delivered by the transport.
}
