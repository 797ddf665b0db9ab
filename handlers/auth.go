package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"embertv/models"
	"embertv/services/sessions"
	"embertv/services/users"
	"embertv/services/viewers"
)

type adminAccounts interface {
	Authenticate(username, password string) (models.User, error)
}

type viewerAccounts interface {
	Register(username, email, pass string) (models.Viewer, error)
	Authenticate(login, pass string) (models.Viewer, error)
	Get(id int) (models.Viewer, error)
}

type sessionIssuer interface {
	CreateAdmin(user models.User, ip string) (string, error)
	CreateViewer(viewer models.Viewer) (string, error)
	Revoke(token string) error
}

var (
	_ adminAccounts  = (*users.Service)(nil)
	_ viewerAccounts = (*viewers.Service)(nil)
	_ sessionIssuer  = (*sessions.Service)(nil)
)

// AuthHandler serves admin and viewer login endpoints.
type AuthHandler struct {
	Users    adminAccounts
	Viewers  viewerAccounts
	Sessions sessionIssuer
	Limiter  *Limiter
	now      func() time.Time
}

func NewAuthHandler(usersSvc adminAccounts, viewersSvc viewerAccounts, sessionsSvc sessionIssuer, limiter *Limiter) *AuthHandler {
	return &AuthHandler{
		Users:    usersSvc,
		Viewers:  viewersSvc,
		Sessions: sessionsSvc,
		Limiter:  limiter,
		now:      time.Now,
	}
}

// throttle applies the shared rate limit and, for login endpoints, the
// failed-attempt lockout. Returns false after writing the response.
func (h *AuthHandler) throttle(w http.ResponseWriter, r *http.Request, lockout bool) bool {
	ip := clientIP(r)
	if !h.Limiter.Allow(ip) {
		writeError(w, http.StatusTooManyRequests, "Rate limited")
		return false
	}
	if lockout {
		if ok, wait := h.Limiter.CheckLockout(ip); !ok {
			writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Locked, retry in %ds", int(wait.Seconds())))
			return false
		}
	}
	return true
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if !h.throttle(w, r, true) {
		return
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip := clientIP(r)
	user, err := h.Users.Authenticate(body.Username, body.Password)
	if err != nil {
		h.Limiter.RecordAttempt(ip, false)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Sessions.CreateAdmin(user, ip)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Limiter.RecordAttempt(ip, true)
	log.Printf("[auth] Admin login: %s", user.Username)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"token":    token,
		"username": user.Username,
		"role":     user.Role,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := h.Sessions.Revoke(token); err != nil {
			log.Printf("[auth] Revoke failed: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me returns the authenticated admin session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := AdminSessionFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": sess.Username,
		"role":     sess.Role,
	})
}

func (h *AuthHandler) ViewerRegister(w http.ResponseWriter, r *http.Request) {
	if !h.throttle(w, r, false) {
		return
	}

	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	viewer, err := h.Viewers.Register(body.Username, body.Email, body.Password)
	if err != nil {
		writeError(w, viewerErrorStatus(err), err.Error())
		return
	}

	token, err := h.Sessions.CreateViewer(viewer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     token,
		"username":  viewer.Username,
		"viewer_id": viewer.ID,
	})
}

func (h *AuthHandler) ViewerLogin(w http.ResponseWriter, r *http.Request) {
	if !h.throttle(w, r, true) {
		return
	}

	var body struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip := clientIP(r)
	viewer, err := h.Viewers.Authenticate(body.Login, body.Password)
	if err != nil {
		h.Limiter.RecordAttempt(ip, false)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Sessions.CreateViewer(viewer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Limiter.RecordAttempt(ip, true)
	log.Printf("[auth] Viewer login: %s", viewer.Username)

	var sub *models.Subscription
	if viewer.Subscription.ActiveAt(h.now()) {
		sub = viewer.Subscription
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"token":        token,
		"username":     viewer.Username,
		"viewer_id":    viewer.ID,
		"subscription": sub,
	})
}

// viewerErrorStatus maps viewer service errors to HTTP statuses.
func viewerErrorStatus(err error) int {
	switch {
	case errors.Is(err, viewers.ErrUsernameTooShort),
		errors.Is(err, viewers.ErrInvalidEmail),
		errors.Is(err, viewers.ErrPasswordTooShort):
		return http.StatusBadRequest
	case errors.Is(err, viewers.ErrUsernameTaken),
		errors.Is(err, viewers.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, viewers.ErrViewerNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
