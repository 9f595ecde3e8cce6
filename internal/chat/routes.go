// internal/chat/routes.go

package chat

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all chat routes
func RegisterRoutes(router *mux.Router, handler *Handler) {
	api := router.PathPrefix("/api/v1/chat").Subrouter()

	// Conversation endpoints
	api.HandleFunc("/conversations", handler.GetConversations).Methods("GET")
	api.HandleFunc("/conversations/refresh", handler.RefreshConversations).Methods("POST")
	api.HandleFunc("/conversations/unread", handler.GetUnreadCounts).Methods("GET")
	api.HandleFunc("/conversations/{id}", handler.DeleteConversation).Methods("DELETE")
	api.HandleFunc("/conversations/{id}/pin", handler.PinConversation).Methods("POST")
	api.HandleFunc("/conversations/{id}/pin", handler.UnpinConversation).Methods("DELETE")
	api.HandleFunc("/conversations/{id}/block", handler.BlockConversation).Methods("POST")
	api.HandleFunc("/conversations/{id}/block", handler.UnblockConversation).Methods("DELETE")

	// Message endpoints
	api.HandleFunc("/messages/latest", handler.GetLatestMessage).Methods("GET")
	api.HandleFunc("/messages/{peerId}", handler.GetMessages).Methods("GET")
	api.HandleFunc("/messages/{peerId}", handler.SendMessage).Methods("POST")

	// State endpoints
	api.HandleFunc("/active", handler.SetActive).Methods("POST")
	api.HandleFunc("/read/{peerId}", handler.MarkRead).Methods("POST")
	api.HandleFunc("/typing/{peerId}", handler.Typing).Methods("POST")
	api.HandleFunc("/presence", handler.GetPresence).Methods("GET")
	api.HandleFunc("/events", handler.StreamEvents).Methods("GET")
}
