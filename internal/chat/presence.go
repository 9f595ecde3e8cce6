// internal/chat/presence.go
// Presence and typing state, derived purely from pushed events.

package chat

// ReplaceOnline replaces the entire online-peer set. Presence events carry
// the full authoritative list, so there is no incremental merge.
func (s *Store) ReplaceOnline(userIDs []string) {
	s.mu.Lock()
	s.online = make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			s.online[id] = true
		}
	}
	s.mu.Unlock()

	s.publish(Event{Kind: EventPresence})
}

// IsOnline reports whether a peer is in the current online set.
func (s *Store) IsOnline(peerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[peerID]
}

// OnlineUserIDs returns the current online set.
func (s *Store) OnlineUserIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.online))
	for id := range s.online {
		out = append(out, id)
	}
	return out
}

// SetTyping records a peer's typing flag from a pushed event.
func (s *Store) SetTyping(peerID string, isTyping bool) {
	if peerID == "" {
		return
	}

	s.mu.Lock()
	if isTyping {
		s.typing[peerID] = true
	} else {
		delete(s.typing, peerID)
	}
	s.mu.Unlock()

	s.publish(Event{Kind: EventTyping, PeerID: peerID})
}

// IsTyping reports whether a peer is currently typing.
func (s *Store) IsTyping(peerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing[peerID]
}

// TypingPeers returns the set of peers currently typing.
func (s *Store) TypingPeers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.typing))
	for id := range s.typing {
		out = append(out, id)
	}
	return out
}
