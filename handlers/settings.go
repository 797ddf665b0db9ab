package handlers

import (
	"encoding/json"
	"net/http"

	"embertv/config"
)

// SettingsHandler exposes the portal configuration to the admin panel.
type SettingsHandler struct {
	ConfigManager *config.Manager
}

func NewSettingsHandler(configManager *config.Manager) *SettingsHandler {
	return &SettingsHandler{ConfigManager: configManager}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.ConfigManager.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": settings})
}

// Update merges the submitted fields over the stored settings; fields
// absent from the body keep their current values.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	settings, err := h.ConfigManager.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.ConfigManager.Save(settings); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
