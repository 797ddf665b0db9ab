package handlers

import (
	"log"
	"net/http"
	"time"

	"embertv/models"
	"embertv/services/sessions"
	"embertv/services/viewers"
)

type viewerStore interface {
	List() ([]models.ViewerSummary, error)
	Get(id int) (models.Viewer, error)
	Register(username, email, pass string) (models.Viewer, error)
	Update(id int, username, email, pass string) (models.Viewer, error)
	UpdateProfile(id int, email, pass string) (models.Viewer, error)
	Delete(id int) error
	ResetPassword(id int) (string, error)
	Favorites(id int) ([]int, error)
	SetFavorite(id int, action string, channelID int) ([]int, error)
}

type sessionRevoker interface {
	RevokeViewer(viewerID int) error
}

var (
	_ viewerStore    = (*viewers.Service)(nil)
	_ sessionRevoker = (*sessions.Service)(nil)
)

// ViewersHandler serves viewer administration, the self-service
// profile and favorites.
type ViewersHandler struct {
	Service  viewerStore
	Sessions sessionRevoker
	now      func() time.Time
}

func NewViewersHandler(service viewerStore, sessionsSvc sessionRevoker) *ViewersHandler {
	return &ViewersHandler{Service: service, Sessions: sessionsSvc, now: time.Now}
}

// List returns all viewers for the admin panel.
func (h *ViewersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "viewers": list, "total": len(list)})
}

// Save creates a viewer when no id is given, otherwise edits one.
func (h *ViewersHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var err error
	if body.ID != 0 {
		_, err = h.Service.Update(body.ID, body.Username, body.Email, body.Password)
	} else {
		_, err = h.Service.Register(body.Username, body.Email, body.Password)
	}
	if err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Delete removes a viewer and revokes all their sessions.
func (h *ViewersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "viewerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid viewer id")
		return
	}

	if err := h.Service.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Sessions.RevokeViewer(id); err != nil {
		log.Printf("[viewers] Session revoke failed for %d: %v", id, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ResetPassword replaces a viewer's password and returns the new one
// so the admin can pass it along.
func (h *ViewersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "viewerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid viewer id")
		return
	}

	plain, err := h.Service.ResetPassword(id)
	if err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}
	if err := h.Sessions.RevokeViewer(id); err != nil {
		log.Printf("[viewers] Session revoke failed for %d: %v", id, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "password": plain})
}

// Profile returns the calling viewer's own account.
func (h *ViewersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sess, ok := ViewerSessionFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	v, err := h.Service.Get(sess.ViewerID)
	if err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}

	now := h.now()
	var sub map[string]any
	if v.Subscription.ActiveAt(now) {
		sub = map[string]any{
			"plan_id":   v.Subscription.PlanID,
			"plan_name": v.Subscription.PlanName,
			"price":     v.Subscription.Price,
			"devices":   v.Subscription.Devices,
			"started":   v.Subscription.Started,
			"expires":   v.Subscription.Expires,
			"days_left": v.Subscription.DaysLeft(now),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"viewer": map[string]any{
			"id":           v.ID,
			"username":     v.Username,
			"email":        v.Email,
			"created":      v.Created,
			"subscription": sub,
			"favorites":    v.Favorites,
		},
	})
}

// UpdateProfile lets the calling viewer change their email or password.
func (h *ViewersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := ViewerSessionFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.Service.UpdateProfile(sess.ViewerID, body.Email, body.Password); err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Favorites returns the calling viewer's favorite channels.
func (h *ViewersHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	sess, ok := ViewerSessionFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	favs, err := h.Service.Favorites(sess.ViewerID)
	if err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "favorites": favs})
}

// SetFavorite applies an add, remove or toggle action.
func (h *ViewersHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	sess, ok := ViewerSessionFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		Action    string `json:"action"`
		ChannelID int    `json:"channel_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	favs, err := h.Service.SetFavorite(sess.ViewerID, body.Action, body.ChannelID)
	if err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "favorites": favs})
}
