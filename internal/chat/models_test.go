package chat

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyRefDecodesBothEncodings(t *testing.T) {
	var bare ReplyRef
	require.NoError(t, json.Unmarshal([]byte(`"abc123"`), &bare))
	assert.Equal(t, "abc123", bare.ID)

	var full ReplyRef
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"abc123","message":"hi","senderId":"alice"}`), &full))
	assert.Equal(t, "abc123", full.ID)
	assert.Equal(t, "hi", full.Message)
	assert.Equal(t, "alice", full.SenderID)
}

func TestPreviewDecodesServerShape(t *testing.T) {
	raw := `{
		"_id": "conv1",
		"user": {"_id": "alice", "username": "alice"},
		"lastMessage": {"_id": "m1", "senderId": "alice", "receiverId": "me", "message": "hey", "createdAt": "2026-08-30T10:00:00Z"},
		"updatedAt": "2026-08-30T09:00:00Z",
		"unreadCount": 2,
		"isPinned": true
	}`

	var preview ConversationPreview
	require.NoError(t, json.Unmarshal([]byte(raw), &preview))

	assert.Equal(t, "conv1", preview.ID.Value)
	assert.False(t, preview.ID.Pending)
	assert.Equal(t, "alice", preview.PeerID())
	assert.Equal(t, 2, preview.UnreadCount)
	assert.True(t, preview.IsPinned)

	// Sort key prefers the last message time over the conversation time.
	assert.Equal(t, "2026-08-30T10:00:00Z", preview.SortTime().Format(time.RFC3339))
}

func TestSortTimeFallsBackToUpdatedAt(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	preview := ConversationPreview{ID: ConfirmedID("c1"), UpdatedAt: at}
	assert.Equal(t, at, preview.SortTime())
}

func TestMessagePreviewTruncates(t *testing.T) {
	msg := Message{Message: "a very long body that keeps going"}
	assert.Equal(t, "a very lon", msg.Preview(10))

	empty := Message{}
	assert.Equal(t, "You received a new message.", empty.Preview(10))
}

func TestMessagePreviewNeverSplitsRunes(t *testing.T) {
	msg := Message{Message: strings.Repeat("é", 8)}

	got := msg.Preview(5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 5), got)

	emoji := Message{Message: "🎉🎉🎉🎉"}
	assert.Equal(t, "🎉🎉", emoji.Preview(2))
}

func TestOtherParty(t *testing.T) {
	msg := Message{SenderID: "alice", ReceiverID: "me"}
	assert.Equal(t, "alice", msg.OtherParty("me"))
	assert.Equal(t, "me", msg.OtherParty("alice"))
}
