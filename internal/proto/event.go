// Package proto defines the wire-level events exchanged over the room
// WebSocket. Events are flat JSON objects discriminated by a "type" field.
package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client → relay event types.
const (
	TypeJoin        = "join"
	TypeUserMessage = "user_message"
)

// Relay → client event types.
const (
	TypeMessageAdded   = "message_added"
	TypeAssistantDelta = "assistant_delta"
	TypeAssistantDone  = "assistant_done"
	TypeError          = "error"
)

// Roles carried by message_added events.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrMalformed reports an inbound frame that is not a recognized client
// event. It never terminates the connection; the adapter replies to the
// sender and keeps reading.
var ErrMalformed = errors.New("malformed client event")

// ClientEvent is one decoded client → relay frame. Fields not used by a
// given type stay empty.
type ClientEvent struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	ID          string `json:"id,omitempty"`
	Text        string `json:"text,omitempty"`
}

// ParseClientEvent decodes and validates one inbound frame. Unknown event
// types and missing required fields count as malformed.
func ParseClientEvent(data []byte) (*ClientEvent, error) {
	var ev ClientEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch ev.Type {
	case TypeJoin:
		if ev.RoomID == "" {
			return nil, fmt.Errorf("%w: join without roomId", ErrMalformed)
		}
	case TypeUserMessage:
		if ev.ID == "" {
			return nil, fmt.Errorf("%w: user_message without id", ErrMalformed)
		}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, ev.Type)
	}
	return &ev, nil
}

// MessageAdded commits one message to every member's transcript. Text is
// empty for the assistant placeholder that precedes the streamed deltas.
type MessageAdded struct {
	Type string `json:"type"`
	Role string `json:"role"`
	ID   string `json:"id"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// AssistantDelta carries one streamed fragment of an assistant message.
type AssistantDelta struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AssistantDone marks an assistant message complete.
type AssistantDone struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ErrorEvent reports a relay-level failure.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Frame encoders marshal an event once so a broadcast can fan the same
// bytes out to every member.

// MessageAddedFrame encodes a message_added event. ts is Unix milliseconds.
func MessageAddedFrame(role, id, text string, ts int64) ([]byte, error) {
	return json.Marshal(MessageAdded{Type: TypeMessageAdded, Role: role, ID: id, Text: text, TS: ts})
}

// AssistantDeltaFrame encodes an assistant_delta event.
func AssistantDeltaFrame(id, text string) ([]byte, error) {
	return json.Marshal(AssistantDelta{Type: TypeAssistantDelta, ID: id, Text: text})
}

// AssistantDoneFrame encodes an assistant_done event.
func AssistantDoneFrame(id string) ([]byte, error) {
	return json.Marshal(AssistantDone{Type: TypeAssistantDone, ID: id})
}

// ErrorFrame encodes an error event.
func ErrorFrame(message string) ([]byte, error) {
	return json.Marshal(ErrorEvent{Type: TypeError, Message: message})
}
