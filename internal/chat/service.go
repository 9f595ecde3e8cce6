// internal/chat/service.go

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Goutam96801/whoami/internal/notify"
	"github.com/Goutam96801/whoami/internal/session"
	"github.com/Goutam96801/whoami/internal/storage"
)

var (
	ErrNotStarted           = errors.New("chat engine is not started")
	ErrEmptyMessage         = errors.New("message requires text or an image")
	ErrConversationNotFound = errors.New("conversation not found")
)

// SendRequest is the outbound message payload. At least one of Message and
// Image must be set.
type SendRequest struct {
	Message string `json:"message"`
	Image   string `json:"image,omitempty"`
	ReplyTo string `json:"replyTo,omitempty"`
}

// Backend is the REST surface the engine consumes.
type Backend interface {
	GetConversations(ctx context.Context) ([]ConversationPreview, error)
	GetMessages(ctx context.Context, peerID string) ([]Message, error)
	SendMessage(ctx context.Context, peerID string, req SendRequest) (*Message, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	PinConversation(ctx context.Context, conversationID string) error
	UnpinConversation(ctx context.Context, conversationID string) error
	BlockConversation(ctx context.Context, conversationID string) error
	UnblockConversation(ctx context.Context, conversationID string) error
	GetUser(ctx context.Context, userID string) (*User, error)
}

// Socket is the established realtime channel.
type Socket interface {
	EmitTyping(to string, isTyping bool) error
	Close()
}

// SocketHandlers receives decoded realtime events.
type SocketHandlers struct {
	OnMessage     func(msg Message)
	OnOnlineUsers func(userIDs []string)
	OnTyping      func(from string, isTyping bool)
	OnDisconnect  func(err error)
}

// SocketDialer establishes the realtime channel for one user.
type SocketDialer func(ctx context.Context, userID string, handlers SocketHandlers) (Socket, error)

// Service is the conversation and presence synchronization engine for one
// authenticated session at a time.
type Service interface {
	Start(ctx context.Context, sess *session.Session) error
	Stop()
	Refresh(ctx context.Context) error

	Conversations() []ConversationPreview
	UnreadCounts() map[string]int
	OnlineUserIDs() []string
	TypingPeers() []string
	LatestMessage() *Message
	Events() <-chan Event

	Messages(ctx context.Context, peerID string) ([]Message, error)
	Send(ctx context.Context, peerID string, req SendRequest) (*Message, error)
	MarkActive(peerID string)
	MarkRead(peerID string)
	Typing(peerID string)
	Delete(ctx context.Context, conversationID, peerID string) error
	TogglePin(ctx context.Context, conversationID string, pinned bool) error
	ToggleBlock(ctx context.Context, conversationID string, blocked bool) error
}

// Deps are the collaborators the engine is constructed with.
type Deps struct {
	Durable    *storage.Store
	Backend    Backend
	Dial       SocketDialer
	Dispatcher notify.Dispatcher

	PreviewLength int
	TypingIdle    time.Duration
}

type service struct {
	deps Deps

	// lifecycleMu serializes Start/Stop against each other; mu guards the
	// session-scoped fields against concurrent readers.
	lifecycleMu sync.Mutex
	mu          sync.RWMutex

	sess    *session.Session
	store   *Store
	socket  Socket
	emitter *TypingEmitter
}

// NewService creates a stopped engine.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

// Start binds the engine to an identity: restores counters, loads the first
// snapshot and opens the realtime channel. Starting while already started
// tears the previous session down first, so events never arrive under the
// wrong identity.
func (s *service) Start(ctx context.Context, sess *session.Session) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.teardown()

	store := NewStore(sess.UserID, s.deps.Durable, s.deps.Dispatcher, s.deps.PreviewLength)

	// Counters must be restored before any event processing begins.
	if err := store.LoadCounters(); err != nil {
		log.Printf("Starting with empty unread counters: %v", err)
	}

	backend := s.deps.Backend
	store.SetRefreshFunc(func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		previews, err := backend.GetConversations(refreshCtx)
		if err != nil {
			log.Printf("Background snapshot refresh failed: %v", err)
			return
		}
		store.LoadSnapshot(previews)
	})

	if previews, err := backend.GetConversations(ctx); err != nil {
		// Degrade to an empty collection; the caller can refresh later.
		log.Printf("Initial snapshot load failed: %v", err)
	} else {
		store.LoadSnapshot(previews)
	}

	socket, err := s.deps.Dial(ctx, sess.UserID, SocketHandlers{
		OnMessage:     store.ApplyIncomingMessage,
		OnOnlineUsers: store.ReplaceOnline,
		OnTyping:      store.SetTyping,
		OnDisconnect: func(err error) {
			log.Printf("Realtime channel lost: %v", err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open realtime channel: %w", err)
	}

	emitter := NewTypingEmitter(s.deps.TypingIdle, func(to string, isTyping bool) error {
		return socket.EmitTyping(to, isTyping)
	})

	s.mu.Lock()
	s.sess = sess
	s.store = store
	s.socket = socket
	s.emitter = emitter
	s.mu.Unlock()

	log.Printf("Chat engine started for user %s", sess.UserID)
	return nil
}

// Stop tears the session down: typing timers first, then the channel.
// Stopping a stopped engine is a no-op.
func (s *service) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	s.teardown()
}

// teardown detaches the session fields and releases their resources. Caller
// holds lifecycleMu.
func (s *service) teardown() {
	s.mu.Lock()
	sess := s.sess
	socket := s.socket
	emitter := s.emitter
	s.sess = nil
	s.store = nil
	s.socket = nil
	s.emitter = nil
	s.mu.Unlock()

	if sess == nil {
		return
	}

	if emitter != nil {
		emitter.Stop()
	}
	if socket != nil {
		socket.Close()
	}
	log.Printf("Chat engine stopped for user %s", sess.UserID)
}

// current returns the session-scoped collaborators, nil when stopped.
func (s *service) current() (*Store, *TypingEmitter) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store, s.emitter
}

// Refresh fetches and applies a full conversation snapshot.
func (s *service) Refresh(ctx context.Context) error {
	store, _ := s.current()
	if store == nil {
		return ErrNotStarted
	}

	previews, err := s.deps.Backend.GetConversations(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch conversations: %w", err)
	}
	store.LoadSnapshot(previews)
	return nil
}

func (s *service) Conversations() []ConversationPreview {
	store, _ := s.current()
	if store == nil {
		return []ConversationPreview{}
	}
	return store.Conversations()
}

func (s *service) UnreadCounts() map[string]int {
	store, _ := s.current()
	if store == nil {
		return map[string]int{}
	}
	return store.UnreadCounts()
}

func (s *service) OnlineUserIDs() []string {
	store, _ := s.current()
	if store == nil {
		return []string{}
	}
	return store.OnlineUserIDs()
}

func (s *service) TypingPeers() []string {
	store, _ := s.current()
	if store == nil {
		return []string{}
	}
	return store.TypingPeers()
}

func (s *service) LatestMessage() *Message {
	store, _ := s.current()
	if store == nil {
		return nil
	}
	return store.LatestMessage()
}

func (s *service) Events() <-chan Event {
	store, _ := s.current()
	if store == nil {
		return closedFeed
	}
	return store.Events()
}

// Messages fetches the thread with a peer, deduplicated by message id.
func (s *service) Messages(ctx context.Context, peerID string) ([]Message, error) {
	store, _ := s.current()
	if store == nil {
		return nil, ErrNotStarted
	}

	messages, err := s.deps.Backend.GetMessages(ctx, peerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	seen := make(map[string]bool, len(messages))
	out := messages[:0]
	for _, msg := range messages {
		if msg.ID == "" || seen[msg.ID] {
			continue
		}
		seen[msg.ID] = true
		out = append(out, msg)
	}
	return out, nil
}

// Send posts a message and applies the confirmed result as a local echo.
// State is only mutated after the backend accepts the message.
func (s *service) Send(ctx context.Context, peerID string, req SendRequest) (*Message, error) {
	store, emitter := s.current()
	if store == nil {
		return nil, ErrNotStarted
	}
	if req.Message == "" && req.Image == "" {
		return nil, ErrEmptyMessage
	}

	msg, err := s.deps.Backend.SendMessage(ctx, peerID, req)
	if err != nil {
		return nil, err
	}

	if emitter != nil {
		emitter.MessageSent(peerID)
	}

	var hint *User
	if idx := store.findPreviewIndex(peerID); idx < 0 {
		hint = s.peerHint(ctx, peerID)
	}
	store.ApplySentMessage(*msg, hint)
	return msg, nil
}

// peerHint fetches the peer's profile so a first message creates the preview
// with real metadata. Falls back to a bare id when the lookup fails.
func (s *service) peerHint(ctx context.Context, peerID string) *User {
	peer, err := s.deps.Backend.GetUser(ctx, peerID)
	if err != nil {
		log.Printf("Failed to fetch profile for %s: %v", peerID, err)
		return &User{ID: peerID}
	}
	return peer
}

func (s *service) MarkActive(peerID string) {
	if store, _ := s.current(); store != nil {
		store.MarkActive(peerID)
	}
}

func (s *service) MarkRead(peerID string) {
	if store, _ := s.current(); store != nil {
		store.MarkRead(peerID)
	}
}

// Typing records local input activity toward a peer.
func (s *service) Typing(peerID string) {
	if _, emitter := s.current(); emitter != nil {
		emitter.Keystroke(peerID)
	}
}

// Delete removes a conversation, server first.
func (s *service) Delete(ctx context.Context, conversationID, peerID string) error {
	store, _ := s.current()
	if store == nil {
		return ErrNotStarted
	}

	if err := s.deps.Backend.DeleteConversation(ctx, conversationID); err != nil {
		return err
	}
	store.Remove(conversationID, peerID)
	return nil
}

// TogglePin pins or unpins a conversation, server first.
func (s *service) TogglePin(ctx context.Context, conversationID string, pinned bool) error {
	store, _ := s.current()
	if store == nil {
		return ErrNotStarted
	}

	var err error
	if pinned {
		err = s.deps.Backend.PinConversation(ctx, conversationID)
	} else {
		err = s.deps.Backend.UnpinConversation(ctx, conversationID)
	}
	if err != nil {
		return err
	}
	store.SetPinned(conversationID, pinned)
	return nil
}

// ToggleBlock blocks or unblocks a conversation's peer, server first.
func (s *service) ToggleBlock(ctx context.Context, conversationID string, blocked bool) error {
	store, _ := s.current()
	if store == nil {
		return ErrNotStarted
	}

	var err error
	if blocked {
		err = s.deps.Backend.BlockConversation(ctx, conversationID)
	} else {
		err = s.deps.Backend.UnblockConversation(ctx, conversationID)
	}
	if err != nil {
		return err
	}
	store.SetBlocked(conversationID, blocked)
	return nil
}
