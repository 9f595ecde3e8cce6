// internal/notify/handlers.go

package notify

import (
	"encoding/json"
	"net/http"

	"github.com/Goutam96801/whoami/internal/common/utils"
)

type Handler struct {
	dispatcher *LocalDispatcher
}

func NewHandler(dispatcher *LocalDispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// GetPreferences returns the stored delivery preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.dispatcher.Preferences()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, prefs)
}

// SetPreferences replaces the stored delivery preferences.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.dispatcher.SetPreferences(prefs); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, prefs)
}

// GetLog returns the notification history, newest first.
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	items, err := h.dispatcher.Log()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, items)
}

// ClearLog discards the notification history.
func (h *Handler) ClearLog(w http.ResponseWriter, r *http.Request) {
	if err := h.dispatcher.ClearLog(); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.MessageResponse(w, "Notification log cleared", http.StatusOK)
}
