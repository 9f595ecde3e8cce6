package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goutam96801/whoami/internal/notify"
	"github.com/Goutam96801/whoami/internal/session"
	"github.com/Goutam96801/whoami/internal/storage"
)

type fakeBackend struct {
	mu            sync.Mutex
	conversations []ConversationPreview
	messages      map[string][]Message
	users         map[string]*User
	userRequests  []string
	failMutations bool
	deleted       []string
	pinned        map[string]bool
	blocked       map[string]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages: map[string][]Message{},
		users:    map[string]*User{},
		pinned:   map[string]bool{},
		blocked:  map[string]bool{},
	}
}

func (b *fakeBackend) GetConversations(ctx context.Context) ([]ConversationPreview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ConversationPreview, len(b.conversations))
	copy(out, b.conversations)
	return out, nil
}

func (b *fakeBackend) GetMessages(ctx context.Context, peerID string) ([]Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[peerID], nil
}

func (b *fakeBackend) SendMessage(ctx context.Context, peerID string, req SendRequest) (*Message, error) {
	if b.failMutations {
		return nil, errors.New("backend unavailable")
	}
	msg := Message{
		ID:         "srv-" + req.Message,
		SenderID:   selfID,
		ReceiverID: peerID,
		Message:    req.Message,
		CreatedAt:  time.Now(),
	}
	return &msg, nil
}

func (b *fakeBackend) DeleteConversation(ctx context.Context, conversationID string) error {
	if b.failMutations {
		return errors.New("backend unavailable")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, conversationID)
	return nil
}

func (b *fakeBackend) PinConversation(ctx context.Context, conversationID string) error {
	return b.setFlag(b.pinned, conversationID, true)
}

func (b *fakeBackend) UnpinConversation(ctx context.Context, conversationID string) error {
	return b.setFlag(b.pinned, conversationID, false)
}

func (b *fakeBackend) BlockConversation(ctx context.Context, conversationID string) error {
	return b.setFlag(b.blocked, conversationID, true)
}

func (b *fakeBackend) UnblockConversation(ctx context.Context, conversationID string) error {
	return b.setFlag(b.blocked, conversationID, false)
}

func (b *fakeBackend) GetUser(ctx context.Context, userID string) (*User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userRequests = append(b.userRequests, userID)
	if u, ok := b.users[userID]; ok {
		out := *u
		return &out, nil
	}
	return nil, errors.New("user not found")
}

func (b *fakeBackend) setFlag(m map[string]bool, id string, v bool) error {
	if b.failMutations {
		return errors.New("backend unavailable")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m[id] = v
	return nil
}

type fakeSocket struct {
	mu     sync.Mutex
	typing []TypingSignal
	closed bool
}

type TypingSignal struct {
	To       string
	IsTyping bool
}

func (s *fakeSocket) EmitTyping(to string, isTyping bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = append(s.typing, TypingSignal{to, isTyping})
	return nil
}

func (s *fakeSocket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestService(t *testing.T, backend Backend) (Service, *fakeSocket) {
	t.Helper()

	durable := storage.NewStore(t.TempDir())
	t.Cleanup(func() { durable.Close() })

	socket := &fakeSocket{}
	svc := NewService(Deps{
		Durable: durable,
		Backend: backend,
		Dial: func(ctx context.Context, userID string, h SocketHandlers) (Socket, error) {
			return socket, nil
		},
		Dispatcher:    notify.NewMockDispatcher(),
		PreviewLength: 120,
		TypingIdle:    time.Hour,
	})
	return svc, socket
}

func startedService(t *testing.T, backend Backend) (Service, *fakeSocket) {
	t.Helper()
	svc, socket := newTestService(t, backend)
	require.NoError(t, svc.Start(context.Background(), &session.Session{UserID: selfID}))
	t.Cleanup(svc.Stop)
	return svc, socket
}

func TestStartLoadsSnapshot(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []ConversationPreview{makePreview("c1", "alice", "alice", time.Now())}

	svc, _ := startedService(t, backend)

	convs := svc.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "alice", convs[0].PeerID())
}

func TestStopTearsDown(t *testing.T) {
	svc, socket := startedService(t, newFakeBackend())

	svc.Stop()

	assert.True(t, socket.isClosed())
	assert.Empty(t, svc.Conversations())
	assert.ErrorIs(t, svc.Refresh(context.Background()), ErrNotStarted)
	_, err := svc.Send(context.Background(), "alice", SendRequest{Message: "x"})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestSendAppliesEchoAndStopsTyping(t *testing.T) {
	svc, socket := startedService(t, newFakeBackend())

	svc.Typing("alice")

	msg, err := svc.Send(context.Background(), "alice", SendRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "srv-hello", msg.ID)

	convs := svc.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "srv-hello", convs[0].LastMessage.ID)
	// Sent messages never count as unread.
	assert.Equal(t, 0, svc.UnreadCounts()["alice"])

	socket.mu.Lock()
	defer socket.mu.Unlock()
	require.Len(t, socket.typing, 2)
	assert.Equal(t, TypingSignal{"alice", true}, socket.typing[0])
	assert.Equal(t, TypingSignal{"alice", false}, socket.typing[1])
}

func TestSendRequiresContent(t *testing.T) {
	svc, _ := startedService(t, newFakeBackend())

	_, err := svc.Send(context.Background(), "alice", SendRequest{})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestFailedMutationLeavesStateUnchanged(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []ConversationPreview{makePreview("c1", "alice", "alice", time.Now())}

	svc, _ := startedService(t, backend)
	backend.failMutations = true

	assert.Error(t, svc.Delete(context.Background(), "c1", "alice"))
	assert.Len(t, svc.Conversations(), 1)

	assert.Error(t, svc.TogglePin(context.Background(), "c1", true))
	assert.False(t, svc.Conversations()[0].IsPinned)

	_, err := svc.Send(context.Background(), "alice", SendRequest{Message: "x"})
	assert.Error(t, err)
	assert.Nil(t, svc.Conversations()[0].LastMessage)
}

func TestDeleteConfirmedRemovesConversation(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []ConversationPreview{makePreview("c1", "alice", "alice", time.Now())}

	svc, _ := startedService(t, backend)

	require.NoError(t, svc.Delete(context.Background(), "c1", "alice"))
	assert.Empty(t, svc.Conversations())
	assert.Equal(t, []string{"c1"}, backend.deleted)
}

func TestTogglePinConfirmed(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []ConversationPreview{makePreview("c1", "alice", "alice", time.Now())}

	svc, _ := startedService(t, backend)

	require.NoError(t, svc.TogglePin(context.Background(), "c1", true))
	assert.True(t, svc.Conversations()[0].IsPinned)
	assert.True(t, backend.pinned["c1"])

	require.NoError(t, svc.TogglePin(context.Background(), "c1", false))
	assert.False(t, svc.Conversations()[0].IsPinned)
}

func TestMessagesDeduplicatedByID(t *testing.T) {
	backend := newFakeBackend()
	now := time.Now()
	backend.messages["alice"] = []Message{
		makeMessage("m1", "alice", selfID, "one", now),
		makeMessage("m1", "alice", selfID, "one", now),
		makeMessage("m2", "alice", selfID, "two", now),
	}

	svc, _ := startedService(t, backend)

	messages, err := svc.Messages(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
}

func TestSendToUnknownPeerFetchesProfile(t *testing.T) {
	backend := newFakeBackend()
	backend.users["nora"] = &User{ID: "nora", Username: "nora", ProfilePhoto: "nora.png"}

	svc, _ := startedService(t, backend)

	_, err := svc.Send(context.Background(), "nora", SendRequest{Message: "hi"})
	require.NoError(t, err)

	convs := svc.Conversations()
	require.Len(t, convs, 1)
	require.NotNil(t, convs[0].User)
	assert.Equal(t, "nora", convs[0].User.Username)
	assert.Equal(t, "nora.png", convs[0].User.ProfilePhoto)
	assert.Equal(t, []string{"nora"}, backend.userRequests)

	// A second send reuses the existing preview without another lookup.
	_, err = svc.Send(context.Background(), "nora", SendRequest{Message: "again"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nora"}, backend.userRequests)
}

func TestSendDegradesWhenProfileLookupFails(t *testing.T) {
	svc, _ := startedService(t, newFakeBackend())

	_, err := svc.Send(context.Background(), "ghost", SendRequest{Message: "hi"})
	require.NoError(t, err)

	convs := svc.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "ghost", convs[0].PeerID())
}

func TestStopConcurrentWithReaders(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []ConversationPreview{makePreview("c1", "alice", "alice", time.Now())}

	svc, _ := startedService(t, backend)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					svc.Conversations()
					svc.UnreadCounts()
					svc.OnlineUserIDs()
					svc.LatestMessage()
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	svc.Stop()
	require.NoError(t, svc.Start(context.Background(), &session.Session{UserID: selfID}))
	svc.Stop()

	close(done)
	wg.Wait()

	assert.Empty(t, svc.Conversations())
}

func TestEventsClosedWhenStopped(t *testing.T) {
	svc, _ := newTestService(t, newFakeBackend())

	select {
	case _, open := <-svc.Events():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("expected a closed events channel on a stopped engine")
	}
}

func TestRestartReplacesIdentity(t *testing.T) {
	backend := newFakeBackend()
	svc, socket := newTestService(t, backend)

	require.NoError(t, svc.Start(context.Background(), &session.Session{UserID: "user-a"}))
	require.NoError(t, svc.Start(context.Background(), &session.Session{UserID: "user-b"}))
	defer svc.Stop()

	// The first session's channel was torn down before the second came up.
	assert.True(t, socket.isClosed())
}
