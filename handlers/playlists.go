package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"embertv/models"
	"embertv/services/playlists"
)

type playlistStore interface {
	List() ([]models.PlaylistSummary, error)
	Channels(id int, query string) (models.Playlist, []models.Channel, error)
	Import(ctx context.Context, url, name string) (models.Playlist, error)
	Refresh(ctx context.Context, id int) (int, error)
	Delete(id int) error
}

var _ playlistStore = (*playlists.Service)(nil)

// PlaylistsHandler serves the M3U playlist management endpoints.
type PlaylistsHandler struct {
	Service playlistStore
}

func NewPlaylistsHandler(service playlistStore) *PlaylistsHandler {
	return &PlaylistsHandler{Service: service}
}

func (h *PlaylistsHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.Service.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "lists": lists})
}

func (h *PlaylistsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.Service.Import(r.Context(), body.URL, body.Name)
	if err != nil {
		writeError(w, playlistErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"list_id":          list.ID,
		"channels_count":   list.ChannelsCount,
		"categories_count": len(list.Categories),
	})
}

func (h *PlaylistsHandler) Channels(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "listID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	list, channels, err := h.Service.Channels(id, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, playlistErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"list": map[string]any{
			"id":         list.ID,
			"name":       list.Name,
			"categories": list.Categories,
		},
		"channels": channels,
	})
}

func (h *PlaylistsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "listID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	count, err := h.Service.Refresh(r.Context(), id)
	if err != nil {
		writeError(w, playlistErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "channels_count": count})
}

func (h *PlaylistsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "listID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	if err := h.Service.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func pathID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}

func playlistErrorStatus(err error) int {
	switch {
	case errors.Is(err, playlists.ErrURLRequired):
		return http.StatusBadRequest
	case errors.Is(err, playlists.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, playlists.ErrNoChannels):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
