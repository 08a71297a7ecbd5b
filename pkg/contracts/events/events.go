// Package events contains the event contract for WebSocket communication
// between the bitewatch server and dashboard clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Dataset lifecycle messages, the primary event types
	MessageTypeDatasetReloaded  MessageType = "dataset:reloaded"
	MessageTypeDatasetUnchanged MessageType = "dataset:unchanged"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// Message is the envelope for every WebSocket message the server pushes
type Message struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// DatasetReloaded is the payload broadcast after a source change produced a
// new clean dataset. Clients re-query on receipt; the payload carries enough
// to render the reload toast without a round trip.
type DatasetReloaded struct {
	SourcePath  string    `json:"source_path"`
	Fingerprint string    `json:"fingerprint"`
	Records     int       `json:"records"`
	DroppedRows int       `json:"dropped_rows"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// SystemStatus is the payload for periodic health pushes
type SystemStatus struct {
	Status      string `json:"status"` // healthy|degraded|unhealthy
	DatasetAge  string `json:"dataset_age,omitempty"`
	Connections int    `json:"active_connections"`
	Version     string `json:"version"`
}

// ErrorPayload is the payload for error messages
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// NewMessage builds a message envelope stamped with the current time
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
