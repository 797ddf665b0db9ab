package handlers

import (
	"errors"
	"net/http"

	"embertv/models"
	"embertv/services/users"
)

type userStore interface {
	List() ([]models.UserSummary, error)
	Create(username, password, role string) (models.User, error)
	Update(id int, username, password, role string) (models.User, error)
	Delete(id int) error
}

var _ userStore = (*users.Service)(nil)

// UsersHandler manages admin panel accounts.
type UsersHandler struct {
	Service userStore
}

func NewUsersHandler(service userStore) *UsersHandler {
	return &UsersHandler{Service: service}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": list})
}

// Save creates an account when no id is given, otherwise edits one.
func (h *UsersHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var err error
	if body.ID != 0 {
		_, err = h.Service.Update(body.ID, body.Username, body.Password, body.Role)
	} else {
		_, err = h.Service.Create(body.Username, body.Password, body.Role)
	}
	if err != nil {
		writeError(w, userErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.Service.Delete(id); err != nil {
		writeError(w, userErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func userErrorStatus(err error) int {
	switch {
	case errors.Is(err, users.ErrUsernameRequired),
		errors.Is(err, users.ErrPasswordRequired):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, users.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, users.ErrProtectedUser):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
