// internal/chat/store.go
// Conversation store: reconciles the locally held preview collection against
// snapshot fetches, live events and local actions. All writers funnel through
// the methods here; reads hand out copies.

package chat

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Goutam96801/whoami/internal/notify"
	"github.com/Goutam96801/whoami/internal/storage"
)

// Store holds the reconciled conversation state for one authenticated user.
type Store struct {
	mu sync.Mutex

	userID     string
	previews   []ConversationPreview
	unread     storage.UnreadCounts
	prevUnread storage.UnreadCounts
	online     map[string]bool
	typing     map[string]bool
	activePeer string
	latest     *Message

	durable    *storage.Store
	dispatcher notify.Dispatcher
	previewLen int

	// refresh requests a background snapshot reload. Set by the service;
	// called without holding the lock.
	refresh func()

	feed chan Event
}

// NewStore creates an empty store for one user.
func NewStore(userID string, durable *storage.Store, dispatcher notify.Dispatcher, previewLen int) *Store {
	return &Store{
		userID:     userID,
		previews:   []ConversationPreview{},
		unread:     storage.UnreadCounts{},
		prevUnread: storage.UnreadCounts{},
		online:     make(map[string]bool),
		typing:     make(map[string]bool),
		durable:    durable,
		dispatcher: dispatcher,
		previewLen: previewLen,
		feed:       make(chan Event, 128),
	}
}

// SetRefreshFunc installs the background snapshot trigger.
func (s *Store) SetRefreshFunc(refresh func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = refresh
}

// LoadCounters restores the persisted unread counters. Must run before any
// event processing so live increments land on top of the restored state.
func (s *Store) LoadCounters() error {
	counts, err := s.durable.LoadUnreadCounts(s.userID)
	if err != nil {
		return fmt.Errorf("failed to load unread counters: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread = counts
	s.prevUnread = storage.UnreadCounts{}
	for peer, count := range counts {
		s.prevUnread[peer] = count
	}
	return nil
}

// LoadSnapshot replaces the collection with a freshly fetched snapshot and
// accepts the server's unread counts, except for the active peer whose count
// stays zero. Peers whose count grew since the previous snapshot get one
// notification.
func (s *Store) LoadSnapshot(previews []ConversationPreview) {
	type alert struct {
		peer  string
		title string
		count int
	}

	s.mu.Lock()

	s.previews = make([]ConversationPreview, len(previews))
	copy(s.previews, previews)

	nextUnread := storage.UnreadCounts{}
	for i := range previews {
		peerID := previews[i].PeerID()
		if peerID == "" {
			continue
		}
		// The open thread absorbs its messages as read; the server count for
		// the active peer is stale by definition.
		if peerID == s.activePeer {
			continue
		}
		nextUnread[peerID] = previews[i].UnreadCount
	}

	var alerts []alert
	for peerID, count := range nextUnread {
		if count == 0 {
			continue
		}
		if count > s.prevUnread[peerID] {
			title := "New message"
			if u := s.findPeerLocked(peerID); u != nil && u.Username != "" {
				title = u.Username
			}
			alerts = append(alerts, alert{peer: peerID, title: title, count: count})
		}
	}

	s.unread = nextUnread
	s.prevUnread = storage.UnreadCounts{}
	for peer, count := range nextUnread {
		s.prevUnread[peer] = count
	}
	s.persistCountersLocked()
	s.mu.Unlock()

	RecordSnapshotLoaded(len(previews))
	s.publish(Event{Kind: EventConversations})

	for _, a := range alerts {
		body := fmt.Sprintf("You have %d unread message", a.count)
		if a.count > 1 {
			body += "s"
		}
		body += "."
		s.dispatcher.Dispatch(notify.TypeMessage, notify.Notification{
			Title: a.title,
			Body:  body,
			Data:  map[string]string{"userId": a.peer},
		})
		RecordNotificationDispatched()
	}
}

// ApplyIncomingMessage reconciles one message received over the event
// channel. Idempotent: re-applying a message already recorded as the peer's
// last message changes nothing.
func (s *Store) ApplyIncomingMessage(msg Message) {
	peerID := msg.OtherParty(s.userID)
	if peerID == "" {
		return
	}

	s.mu.Lock()

	idx := s.findPreviewByPeerLocked(peerID)
	if idx >= 0 {
		if last := s.previews[idx].LastMessage; last != nil && last.ID == msg.ID {
			s.mu.Unlock()
			return
		}
	}
	hadConversation := idx >= 0

	s.latest = &msg
	s.upsertLocked(msg, nil)

	var alertTitle string
	notActive := s.activePeer == "" || s.activePeer != peerID
	if notActive {
		s.unread[peerID]++
		s.persistCountersLocked()

		alertTitle = "New message"
		if u := s.findPeerLocked(peerID); u != nil && u.Username != "" {
			alertTitle = u.Username
		}
	}

	// A message from the peer implies typing ended.
	delete(s.typing, peerID)

	refresh := s.refresh
	s.mu.Unlock()

	RecordMessageApplied()
	s.publish(Event{Kind: EventMessage, PeerID: peerID})
	s.publish(Event{Kind: EventConversations})

	if notActive {
		s.dispatcher.Dispatch(notify.TypeMessage, notify.Notification{
			Title: alertTitle,
			Body:  msg.Preview(s.previewLen),
			Data:  map[string]string{"userId": peerID},
		})
		RecordNotificationDispatched()
	}

	// An unseen peer means the snapshot is missing its metadata; refetch in
	// the background to replace the pending preview with the server record.
	if !hadConversation && refresh != nil {
		go refresh()
	}
}

// ApplySentMessage records a message the local user sent. Same upsert path as
// incoming messages but never touches counters or notifications. The peer
// hint fills in metadata when the conversation does not exist yet.
func (s *Store) ApplySentMessage(msg Message, peerHint *User) {
	s.mu.Lock()
	s.latest = &msg
	s.upsertLocked(msg, peerHint)
	s.mu.Unlock()

	RecordMessageApplied()
	s.publish(Event{Kind: EventConversations})
}

// MarkActive designates the peer whose thread is open. The active peer's
// counter is zeroed and stays zero while active. An empty id clears the
// marker.
func (s *Store) MarkActive(peerID string) {
	s.mu.Lock()
	s.activePeer = peerID
	changed := false
	if peerID != "" && s.unread[peerID] != 0 {
		delete(s.unread, peerID)
		s.prevUnread[peerID] = 0
		s.persistCountersLocked()
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.publish(Event{Kind: EventConversations})
	}
}

// MarkRead zeroes the unread counter for a peer without changing the active
// marker.
func (s *Store) MarkRead(peerID string) {
	s.mu.Lock()
	changed := s.unread[peerID] != 0
	if changed {
		delete(s.unread, peerID)
		s.prevUnread[peerID] = 0
		s.persistCountersLocked()
	}
	s.mu.Unlock()

	if changed {
		s.publish(Event{Kind: EventConversations})
	}
}

// Remove drops a conversation and its counter after a confirmed delete.
func (s *Store) Remove(conversationID, peerID string) {
	s.mu.Lock()
	kept := s.previews[:0]
	for _, p := range s.previews {
		if p.ID.Value != conversationID {
			kept = append(kept, p)
		}
	}
	s.previews = kept
	if peerID != "" && s.unread[peerID] != 0 {
		delete(s.unread, peerID)
		delete(s.prevUnread, peerID)
		s.persistCountersLocked()
	}
	s.mu.Unlock()

	s.publish(Event{Kind: EventConversations})
}

// SetPinned patches the pin flag after a confirmed pin/unpin call.
func (s *Store) SetPinned(conversationID string, pinned bool) {
	s.mu.Lock()
	if idx := s.findPreviewByIDLocked(conversationID); idx >= 0 {
		s.previews[idx].IsPinned = pinned
	}
	s.mu.Unlock()

	s.publish(Event{Kind: EventConversations})
}

// SetBlocked patches the block flags after a confirmed block/unblock call.
// Unblocking also clears the peer's block flag locally and asks for a
// snapshot refresh so the server's view of that flag wins shortly after.
func (s *Store) SetBlocked(conversationID string, blocked bool) {
	s.mu.Lock()
	if idx := s.findPreviewByIDLocked(conversationID); idx >= 0 {
		s.previews[idx].IsBlocked = blocked
		if !blocked {
			s.previews[idx].IsBlockedByOther = false
		}
	}
	refresh := s.refresh
	s.mu.Unlock()

	s.publish(Event{Kind: EventConversations})

	if !blocked && refresh != nil {
		go refresh()
	}
}

// Conversations returns the previews in display order: pinned first, then by
// most recent activity, stable among equals.
func (s *Store) Conversations() []ConversationPreview {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ConversationPreview, len(s.previews))
	copy(out, s.previews)
	for i := range out {
		out[i].UnreadCount = s.unread[out[i].PeerID()]
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].SortTime().After(out[j].SortTime())
	})
	return out
}

// UnreadCounts returns a copy of the counter map.
func (s *Store) UnreadCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.unread))
	for peer, count := range s.unread {
		out[peer] = count
	}
	return out
}

// LatestMessage returns the most recent message seen this session, nil when
// none arrived yet.
func (s *Store) LatestMessage() *Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return nil
	}
	msg := *s.latest
	return &msg
}

// ActivePeer returns the currently viewed peer id, empty when none.
func (s *Store) ActivePeer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePeer
}

// findPreviewIndex returns the index of the preview for a peer, -1 when
// absent.
func (s *Store) findPreviewIndex(peerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findPreviewByPeerLocked(peerID)
}

// findPreviewByPeerLocked returns the index of the preview for a peer, -1
// when absent. Caller holds the lock.
func (s *Store) findPreviewByPeerLocked(peerID string) int {
	for i := range s.previews {
		if s.previews[i].PeerID() == peerID {
			return i
		}
	}
	return -1
}

func (s *Store) findPreviewByIDLocked(conversationID string) int {
	for i := range s.previews {
		if s.previews[i].ID.Value == conversationID {
			return i
		}
	}
	return -1
}

func (s *Store) findPeerLocked(peerID string) *User {
	if idx := s.findPreviewByPeerLocked(peerID); idx >= 0 {
		return s.previews[idx].User
	}
	return nil
}

// upsertLocked applies a message to the preview collection. Caller holds the
// lock.
func (s *Store) upsertLocked(msg Message, peerHint *User) {
	peerID := msg.OtherParty(s.userID)
	idx := s.findPreviewByPeerLocked(peerID)

	if idx >= 0 {
		p := &s.previews[idx]
		p.LastMessage = &msg
		p.UpdatedAt = msg.CreatedAt
		if msg.StreakCount != nil {
			p.StreakCount = msg.StreakCount
		}
		return
	}

	peer := peerHint
	if peer == nil {
		// The snapshot has not confirmed this peer yet; record what the
		// message itself tells us and let the next snapshot fill the rest.
		peer = &User{ID: peerID}
	}
	s.previews = append(s.previews, ConversationPreview{
		ID:          PendingID(msg.ID),
		User:        peer,
		LastMessage: &msg,
		UpdatedAt:   msg.CreatedAt,
		StreakCount: msg.StreakCount,
	})
}

// persistCountersLocked writes the counters through to durable storage.
// Failures are logged, not propagated; counters are best effort.
func (s *Store) persistCountersLocked() {
	counts := storage.UnreadCounts{}
	for peer, count := range s.unread {
		counts[peer] = count
	}
	if err := s.durable.SaveUnreadCounts(s.userID, counts); err != nil {
		log.Printf("Failed to persist unread counters: %v", err)
	}
}
