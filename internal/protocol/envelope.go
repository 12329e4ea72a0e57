// Package protocol defines the hub wire format: newline-delimited JSON
// envelopes carrying correlated requests, responses, and server events.
package protocol

import (
	"encoding/json"
	"fmt"
)

// TypeEvent marks an inbound frame as an unsolicited server push. Frames
// carrying an id are responses and are routed by id regardless of type.
const TypeEvent = "event"

// EventDisconnect is the synthetic event emitted exactly once when a
// connection is torn down, whether by read failure or an explicit close.
const EventDisconnect = "disconnect"

// Envelope is one wire message: a newline-terminated JSON object. The same
// shape covers correlated responses (id set) and server events (id absent,
// type "event").
type Envelope struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type,omitempty"`
	OK      *bool           `json:"ok,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IsEvent reports whether the envelope is an unsolicited push.
func (e *Envelope) IsEvent() bool {
	return e.ID == "" && e.Type == TypeEvent
}

// Failed reports whether the server flagged this response as an
// application-level failure.
func (e *Envelope) Failed() bool {
	return e.OK != nil && !*e.OK
}

// Decode parses a single frame. An error is local to this frame; the caller
// is expected to keep reading.
func Decode(line []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &env, nil
}

// EncodeRequest builds an outbound request frame. The correlation id, action
// name, and caller fields are merged into one flat object; id and type win
// over caller fields of the same name. The returned slice includes the
// trailing newline.
func EncodeRequest(id, action string, fields map[string]any) ([]byte, error) {
	body := make(map[string]any, len(fields)+2)
	for key, value := range fields {
		body[key] = value
	}
	body["id"] = id
	body["type"] = action
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request %s: %w", action, err)
	}
	return append(encoded, '\n'), nil
}

// DisconnectEvent synthesizes the event dispatched when a connection dies.
// The error text is empty on clean end-of-stream or explicit close.
func DisconnectEvent(err error) Envelope {
	env := Envelope{Type: TypeEvent, Event: EventDisconnect}
	if err != nil {
		env.Error = err.Error()
	}
	return env
}
