// internal/chat/models.go

package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// User is the denormalized summary of a peer as the backend reports it.
// Directory listings reuse the same shape with the matchmaking attributes
// (dateOfBirth, interests, gender) filled in.
type User struct {
	ID           string     `json:"_id"`
	Username     string     `json:"username"`
	ProfilePhoto string     `json:"profilePhoto,omitempty"`
	IsOnline     bool       `json:"isOnline,omitempty"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	DateOfBirth  string     `json:"dateOfBirth,omitempty"`
	Interests    []string   `json:"interests,omitempty"`
	Gender       string     `json:"gender,omitempty"`
}

// ReplyRef references the message a message replies to. The backend sends
// either a bare id or an embedded summary; both decode into this.
type ReplyRef struct {
	ID        string     `json:"_id"`
	Message   string     `json:"message,omitempty"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	SenderID  string     `json:"senderId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts both the string and the object encoding.
func (r *ReplyRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = ReplyRef{ID: id}
		return nil
	}

	type replyRef ReplyRef
	var full replyRef
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*r = ReplyRef(full)
	return nil
}

// Message is one chat message. Messages are immutable once created.
type Message struct {
	ID          string    `json:"_id"`
	SenderID    string    `json:"senderId"`
	ReceiverID  string    `json:"receiverId"`
	Message     string    `json:"message"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	StreakCount *int      `json:"streakCount,omitempty"`
	ReplyTo     *ReplyRef `json:"replyTo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OtherParty returns whichever side of the message is not the given user.
func (m *Message) OtherParty(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Preview truncates the message body for notification display. Truncation is
// by rune so a multibyte character is never split.
func (m *Message) Preview(maxLen int) string {
	if m.Message == "" {
		return "You received a new message."
	}
	body := m.Message
	if runes := []rune(body); len(runes) > maxLen {
		body = strings.TrimSpace(string(runes[:maxLen]))
	}
	return body
}

// PreviewID identifies a conversation preview. A pending id is minted locally
// when a live event arrives for a peer the snapshot has not confirmed yet; it
// is rewritten with the server id on the next snapshot.
type PreviewID struct {
	Value   string `json:"_id"`
	Pending bool   `json:"pending,omitempty"`
}

// ConfirmedID wraps a server-issued conversation id.
func ConfirmedID(id string) PreviewID {
	return PreviewID{Value: id}
}

// PendingID mints a locally unique placeholder id.
func PendingID(id string) PreviewID {
	return PreviewID{Value: id, Pending: true}
}

// ConversationPreview is the summary row for one conversation thread.
// UnreadCount mirrors the counter map for serialization; the counter map is
// authoritative.
type ConversationPreview struct {
	ID               PreviewID `json:"id"`
	User             *User     `json:"user"`
	LastMessage      *Message  `json:"lastMessage"`
	UpdatedAt        time.Time `json:"updatedAt"`
	UnreadCount      int       `json:"unreadCount"`
	StreakCount      *int      `json:"streakCount,omitempty"`
	IsPinned         bool      `json:"isPinned"`
	IsBlocked        bool      `json:"isBlocked"`
	IsBlockedByOther bool      `json:"isBlockedByOther"`
}

// PeerID returns the peer's user id, empty while the peer is unknown.
func (c *ConversationPreview) PeerID() string {
	if c.User == nil {
		return ""
	}
	return c.User.ID
}

// SortTime is the timestamp the ordering invariant uses: the last message
// time when present, the conversation timestamp otherwise.
func (c *ConversationPreview) SortTime() time.Time {
	if c.LastMessage != nil && !c.LastMessage.CreatedAt.IsZero() {
		return c.LastMessage.CreatedAt
	}
	return c.UpdatedAt
}

// wirePreview is the backend's JSON shape for a conversation preview.
type wirePreview struct {
	ID               string    `json:"_id"`
	User             *User     `json:"user"`
	LastMessage      *Message  `json:"lastMessage"`
	UpdatedAt        time.Time `json:"updatedAt"`
	UnreadCount      int       `json:"unreadCount"`
	StreakCount      *int      `json:"streakCount,omitempty"`
	IsPinned         bool      `json:"isPinned"`
	IsBlocked        bool      `json:"isBlocked"`
	IsBlockedByOther bool      `json:"isBlockedByOther"`
}

// UnmarshalJSON decodes the backend shape into the tagged-id form.
func (c *ConversationPreview) UnmarshalJSON(data []byte) error {
	var w wirePreview
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = ConversationPreview{
		ID:               ConfirmedID(w.ID),
		User:             w.User,
		LastMessage:      w.LastMessage,
		UpdatedAt:        w.UpdatedAt,
		UnreadCount:      w.UnreadCount,
		StreakCount:      w.StreakCount,
		IsPinned:         w.IsPinned,
		IsBlocked:        w.IsBlocked,
		IsBlockedByOther: w.IsBlockedByOther,
	}
	return nil
}
