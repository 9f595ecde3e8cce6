// internal/notify/routes.go

package notify

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all notification routes
func RegisterRoutes(router *mux.Router, handler *Handler) {
	api := router.PathPrefix("/api/v1/notifications").Subrouter()

	api.HandleFunc("/preferences", handler.GetPreferences).Methods("GET")
	api.HandleFunc("/preferences", handler.SetPreferences).Methods("PUT")
	api.HandleFunc("/log", handler.GetLog).Methods("GET")
	api.HandleFunc("/log", handler.ClearLog).Methods("DELETE")
}
