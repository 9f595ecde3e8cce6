// internal/matchmaking/routes.go

package matchmaking

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all matchmaking routes
func RegisterRoutes(router *mux.Router, handler *Handler) {
	api := router.PathPrefix("/api/v1/matchmaking").Subrouter()

	api.HandleFunc("/filters", handler.SetFilters).Methods("POST")
	api.HandleFunc("/search", handler.StartSearch).Methods("POST")
	api.HandleFunc("/search", handler.CancelSearch).Methods("DELETE")
	api.HandleFunc("/status", handler.GetStatus).Methods("GET")
}
