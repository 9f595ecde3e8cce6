package chat

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreamEventsEndsWhenClientLeaves(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []ConversationPreview{makePreview("c1", "alice", "alice", time.Now())}

	svc, _ := startedService(t, backend)
	handler := NewHandler(svc)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/v1/chat/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	finished := make(chan struct{})
	go func() {
		handler.StreamEvents(rec, req)
		close(finished)
	}()

	// The snapshot applied during startup is buffered in the feed; let the
	// stream write it out before disconnecting.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after the client disconnected")
	}

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"kind":"conversations"`)
}

func TestStreamEventsEndsWhenEngineStopped(t *testing.T) {
	svc, _ := newTestService(t, newFakeBackend())
	handler := NewHandler(svc)

	req := httptest.NewRequest("GET", "/api/v1/chat/events", nil)
	rec := httptest.NewRecorder()

	finished := make(chan struct{})
	go func() {
		handler.StreamEvents(rec, req)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("stream did not end on a stopped engine")
	}
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
