// internal/chat/feed.go
// Change feed: every store mutation publishes one event so consumers can
// observe state transitions explicitly instead of polling.

package chat

// EventKind classifies a store change.
type EventKind string

const (
	// EventConversations: the preview collection or counters changed.
	EventConversations EventKind = "conversations"
	// EventMessage: a message was applied; PeerID names the other party.
	EventMessage EventKind = "message"
	// EventPresence: the online-user set was replaced.
	EventPresence EventKind = "presence"
	// EventTyping: a peer's typing flag changed; PeerID names the peer.
	EventTyping EventKind = "typing"
)

// Event is one entry of the change feed.
type Event struct {
	Kind   EventKind `json:"kind"`
	PeerID string    `json:"peerId,omitempty"`
}

// closedFeed is handed out while the engine is stopped so receivers observe
// a closed channel instead of blocking forever on a nil one.
var closedFeed = func() chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}()

// Events returns the change feed. The feed is buffered; when no consumer
// keeps up, events are dropped rather than blocking reconciliation.
func (s *Store) Events() <-chan Event {
	return s.feed
}

func (s *Store) publish(ev Event) {
	select {
	case s.feed <- ev:
	default:
	}
}
