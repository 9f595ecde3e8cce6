package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goutam96801/whoami/internal/chat"
)

func TestGetConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/message/conversations", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"_id": "c1",
			"user": {"_id": "alice", "username": "alice"},
			"lastMessage": null,
			"updatedAt": "2026-08-30T10:00:00Z",
			"unreadCount": 2
		}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	previews, err := client.GetConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, "c1", previews[0].ID.Value)
	assert.False(t, previews[0].ID.Pending)
	assert.Equal(t, "alice", previews[0].PeerID())
	assert.Equal(t, 2, previews[0].UnreadCount)
}

func TestGetMessagesNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/message/alice", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	messages, err := client.GetMessages(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/message/send/alice", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["message"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"newMessage": {"_id": "m1", "senderId": "me", "receiverId": "alice", "message": "hello", "createdAt": "2026-08-30T10:00:00Z"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	msg, err := client.SendMessage(context.Background(), "alice", chat.SendRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "hello", msg.Message)
}

func TestPinAndBlockPaths(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	ctx := context.Background()

	require.NoError(t, client.PinConversation(ctx, "c1"))
	require.NoError(t, client.UnpinConversation(ctx, "c1"))
	require.NoError(t, client.BlockConversation(ctx, "c1"))
	require.NoError(t, client.UnblockConversation(ctx, "c1"))
	require.NoError(t, client.DeleteConversation(ctx, "c1"))

	assert.Equal(t, []string{
		"POST /message/conversations/c1/pin",
		"DELETE /message/conversations/c1/pin",
		"POST /message/conversations/c1/block",
		"DELETE /message/conversations/c1/block",
		"DELETE /message/conversations/c1",
	}, calls)
}

func TestErrorResponseDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "You are blocked."}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	_, err := client.GetConversations(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "You are blocked.", apiErr.Message)
}

func TestErrorResponseWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	_, err := client.GetConversations(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Request failed.", apiErr.Message)
}

func TestGetUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id": "u1", "username": "sam", "gender": "female", "interests": ["music"]}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	users, err := client.GetUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "female", users[0].Gender)
}

func TestGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/u1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user": {"_id": "u1", "username": "sam", "profilePhoto": "sam.png"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	user, err := client.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "sam", user.Username)
	assert.Equal(t, "sam.png", user.ProfilePhoto)
}
