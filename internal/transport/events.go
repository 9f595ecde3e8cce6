// internal/transport/events.go

package transport

import "encoding/json"

// Event names on the realtime channel.
const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "getOnlineUsers"
	EventTyping      = "typing"
)

// Envelope is the wire frame for every realtime event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// TypingPayload is the body of inbound typing events.
type TypingPayload struct {
	From     string `json:"from"`
	IsTyping bool   `json:"isTyping"`
}

// TypingRequest is the body of outbound typing events.
type TypingRequest struct {
	To       string `json:"to"`
	IsTyping bool   `json:"isTyping"`
}

// NewEnvelope builds an envelope with a JSON-encoded payload.
func NewEnvelope(event string, data interface{}) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}
