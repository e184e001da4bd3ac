// Package events defines the event types flowing through the Veilgate bus.
package events

import "time"

// EventType identifies a class of event emitted through the Bus.
type EventType string

const (
	// Gateway lifecycle events
	EventSessionOpened EventType = "session_opened"
	EventSessionClosed EventType = "session_closed"

	// Frame events
	EventFrameDecoded     EventType = "frame_decoded"
	EventFramePassthrough EventType = "frame_passthrough"
	EventFrameRejected    EventType = "frame_rejected"

	// Capture store events
	EventCaptureStored EventType = "capture_stored"
	EventCapturePurged EventType = "capture_purged"

	// System events
	EventStatsSnapshot EventType = "stats_snapshot"
	EventConfigChanged EventType = "config_changed"
	EventShutdown      EventType = "shutdown"
)

// SessionState tracks where a gateway session is in its lifecycle.
type SessionState int

const (
	SessionHandshaking SessionState = iota
	SessionEstablished
	SessionClosed
)

// sessionStateStrings maps SessionState values to their lowercase JSON string form.
var sessionStateStrings = map[SessionState]string{
	SessionHandshaking: "handshaking",
	SessionEstablished: "established",
	SessionClosed:      "closed",
}

// String returns the string representation of SessionState.
func (s SessionState) String() string {
	if str, ok := sessionStateStrings[s]; ok {
		return str
	}
	return "handshaking"
}

// MarshalJSON serializes SessionState as a JSON string (e.g. "established").
func (s SessionState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Direction says which way a captured frame travelled relative to the gateway.
type Direction int

const (
	DirectionInbound Direction = iota
	DirectionOutbound
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	if d == DirectionOutbound {
		return "outbound"
	}
	return "inbound"
}

// MarshalJSON serializes Direction as a JSON string.
func (d Direction) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Event is a single occurrence published on the Bus.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// SessionPayload accompanies session_opened and session_closed events.
type SessionPayload struct {
	SessionID  string    `json:"session_id"`
	RemoteAddr string    `json:"remote_addr"`
	OpenedAt   time.Time `json:"opened_at"`
	Frames     uint64    `json:"frames"`
	Reason     string    `json:"reason,omitempty"`
}

// FramePayload accompanies frame_decoded and frame_passthrough events.
type FramePayload struct {
	SessionID  string    `json:"session_id"`
	Direction  Direction `json:"direction"`
	TypeID     uint32    `json:"type_id"`
	Name       string    `json:"name"`
	Size       int       `json:"size"`
	Compressed bool      `json:"compressed"`
}

// RejectPayload accompanies frame_rejected events. The offending session is
// dropped by the gateway; the payload records why for telemetry and capture.
type RejectPayload struct {
	SessionID string `json:"session_id"`
	TypeID    uint32 `json:"type_id"`
	Size      int    `json:"size"`
	Error     string `json:"error"`
}

// CapturePayload accompanies capture_stored events.
type CapturePayload struct {
	CaptureID string `json:"capture_id"`
	SessionID string `json:"session_id"`
	TypeID    uint32 `json:"type_id"`
}

// PurgePayload accompanies capture_purged events after a retention sweep.
type PurgePayload struct {
	Removed int64     `json:"removed"`
	Cutoff  time.Time `json:"cutoff"`
}

// ConfigChangedPayload is emitted when a configuration value changes at runtime.
type ConfigChangedPayload struct {
	Section string      `json:"section"`
	Key     string      `json:"key"`
	Value   interface{} `json:"value"`
}
