package models

// EventEnvelope wraps event data in the platform wire format. A fresh
// envelope is built for every publish call.
type EventEnvelope struct {
	Timestamp string `json:"ts"`
	Data      any    `json:"d"`
}
