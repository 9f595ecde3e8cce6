// internal/chat/handlers.go

package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Goutam96801/whoami/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotStarted):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrConversationNotFound):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusBadGateway, err.Error())
	}
}

// GetConversations returns the previews in display order.
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, h.service.Conversations())
}

// RefreshConversations forces a snapshot reload.
func (h *Handler) RefreshConversations(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.service.Conversations())
}

// GetUnreadCounts returns the peer-id to unread-count map.
func (h *Handler) GetUnreadCounts(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, h.service.UnreadCounts())
}

// DeleteConversation removes a conversation. The peer id rides along as a
// query parameter so its counter can be cleared too.
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["id"]
	peerID := r.URL.Query().Get("peerId")

	if err := h.service.Delete(r.Context(), conversationID, peerID); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.MessageResponse(w, "Conversation deleted", http.StatusOK)
}

// PinConversation pins a conversation.
func (h *Handler) PinConversation(w http.ResponseWriter, r *http.Request) {
	h.togglePin(w, r, true)
}

// UnpinConversation unpins a conversation.
func (h *Handler) UnpinConversation(w http.ResponseWriter, r *http.Request) {
	h.togglePin(w, r, false)
}

func (h *Handler) togglePin(w http.ResponseWriter, r *http.Request, pinned bool) {
	conversationID := mux.Vars(r)["id"]
	if err := h.service.TogglePin(r.Context(), conversationID, pinned); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.MessageResponse(w, "Conversation updated", http.StatusOK)
}

// BlockConversation blocks the conversation's peer.
func (h *Handler) BlockConversation(w http.ResponseWriter, r *http.Request) {
	h.toggleBlock(w, r, true)
}

// UnblockConversation unblocks the conversation's peer.
func (h *Handler) UnblockConversation(w http.ResponseWriter, r *http.Request) {
	h.toggleBlock(w, r, false)
}

func (h *Handler) toggleBlock(w http.ResponseWriter, r *http.Request, blocked bool) {
	conversationID := mux.Vars(r)["id"]
	if err := h.service.ToggleBlock(r.Context(), conversationID, blocked); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.MessageResponse(w, "Conversation updated", http.StatusOK)
}

// GetMessages returns the thread with a peer.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	peerID := mux.Vars(r)["peerId"]

	messages, err := h.service.Messages(r.Context(), peerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, messages)
}

// SendMessage posts a message to a peer.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	peerID := mux.Vars(r)["peerId"]

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	msg, err := h.service.Send(r.Context(), peerID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"newMessage": msg})
}

// SetActive designates the peer whose thread is open. An empty peer id
// clears the marker.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PeerID string `json:"peerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.service.MarkActive(req.PeerID)
	utils.MessageResponse(w, "Active conversation updated", http.StatusOK)
}

// MarkRead zeroes the unread counter for a peer.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.service.MarkRead(mux.Vars(r)["peerId"])
	utils.MessageResponse(w, "Conversation marked read", http.StatusOK)
}

// Typing records local input activity toward a peer.
func (h *Handler) Typing(w http.ResponseWriter, r *http.Request) {
	h.service.Typing(mux.Vars(r)["peerId"])
	w.WriteHeader(http.StatusNoContent)
}

// GetPresence returns the online and typing peer sets.
func (h *Handler) GetPresence(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"online": h.service.OnlineUserIDs(),
		"typing": h.service.TypingPeers(),
	})
}

// StreamEvents serves the change feed as server-sent events. The stream ends
// when the client disconnects or the engine stops.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := h.service.Events()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// GetLatestMessage returns the most recent message seen this session.
func (h *Handler) GetLatestMessage(w http.ResponseWriter, r *http.Request) {
	msg := h.service.LatestMessage()
	if msg == nil {
		utils.RespondWithJSON(w, http.StatusOK, nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, msg)
}
