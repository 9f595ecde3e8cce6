// internal/matchmaking/handlers.go

package matchmaking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Goutam96801/whoami/internal/common/utils"
)

type Handler struct {
	queue *Queue
}

func NewHandler(queue *Queue) *Handler {
	return &Handler{queue: queue}
}

// SetFilters stores the search configuration.
func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var filters Filters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.queue.SetFilters(filters); err != nil {
		if errors.Is(err, ErrInvalidFilters) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.queue.Status())
}

// StartSearch builds the pool and begins the timed reveal.
func (h *Handler) StartSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Start(r.Context()); err != nil {
		if errors.Is(err, ErrNoFilters) {
			utils.RespondWithError(w, http.StatusConflict, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.queue.Status())
}

// CancelSearch stops the search and discards its results.
func (h *Handler) CancelSearch(w http.ResponseWriter, r *http.Request) {
	h.queue.Cancel()
	utils.RespondWithJSON(w, http.StatusOK, h.queue.Status())
}

// GetStatus returns the queue snapshot.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, h.queue.Status())
}
