// internal/api/client.go
// HTTP client for the whoami backend REST contract.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Goutam96801/whoami/internal/chat"
)

// Error is a backend-reported request failure.
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Client talks to the backend REST API on behalf of one session.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL (e.g.
// http://localhost:8080/api/v1). The token authenticates every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: "Request failed."}
		if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
			_ = json.Unmarshal(payload, apiErr)
		}
		return apiErr
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// GetConversations fetches the full conversation snapshot.
func (c *Client) GetConversations(ctx context.Context) ([]chat.ConversationPreview, error) {
	var previews []chat.ConversationPreview
	if err := c.do(ctx, http.MethodGet, "/message/conversations", nil, &previews); err != nil {
		return nil, err
	}
	return previews, nil
}

// GetMessages fetches the message history with a peer, oldest first.
// The backend returns null for an empty thread.
func (c *Client) GetMessages(ctx context.Context, peerID string) ([]chat.Message, error) {
	var messages []chat.Message
	if err := c.do(ctx, http.MethodGet, "/message/"+peerID, nil, &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	return messages, nil
}

// SendMessage posts a message to a peer and returns the created message.
func (c *Client) SendMessage(ctx context.Context, peerID string, req chat.SendRequest) (*chat.Message, error) {
	var resp struct {
		NewMessage *chat.Message `json:"newMessage"`
	}
	if err := c.do(ctx, http.MethodPost, "/message/send/"+peerID, req, &resp); err != nil {
		return nil, err
	}
	if resp.NewMessage == nil {
		return nil, fmt.Errorf("backend returned no message")
	}
	return resp.NewMessage, nil
}

// DeleteConversation removes a conversation thread.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/message/conversations/"+conversationID, nil, nil)
}

// PinConversation pins a conversation.
func (c *Client) PinConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodPost, "/message/conversations/"+conversationID+"/pin", struct{}{}, nil)
}

// UnpinConversation unpins a conversation.
func (c *Client) UnpinConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/message/conversations/"+conversationID+"/pin", nil, nil)
}

// BlockConversation blocks the peer of a conversation.
func (c *Client) BlockConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodPost, "/message/conversations/"+conversationID+"/block", struct{}{}, nil)
}

// UnblockConversation unblocks the peer of a conversation.
func (c *Client) UnblockConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/message/conversations/"+conversationID+"/block", nil, nil)
}

// GetUsers fetches the user directory the matchmaking pool draws from.
func (c *Client) GetUsers(ctx context.Context) ([]chat.User, error) {
	var users []chat.User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []chat.User{}
	}
	return users, nil
}

// GetUser fetches one user's public profile.
func (c *Client) GetUser(ctx context.Context, userID string) (*chat.User, error) {
	var resp struct {
		User *chat.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/"+userID, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("backend returned no user")
	}
	return resp.User, nil
}
