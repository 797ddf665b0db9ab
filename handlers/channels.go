package handlers

import (
	"errors"
	"net/http"

	"embertv/config"
	"embertv/models"
	"embertv/services/channels"
	"embertv/services/sessions"
	"embertv/services/users"
	"embertv/services/viewers"
)

// freeChannelLimit is how many curated channels anonymous visitors see
// when a subscription is required.
const freeChannelLimit = 3

type channelStore interface {
	Categories() ([]models.Category, error)
	Channels() ([]models.CuratedChannel, error)
	SaveChannel(ch models.CuratedChannel) (models.CuratedChannel, error)
	DeleteChannel(id int) error
	SaveCategory(cat models.Category) (models.Category, error)
	DeleteCategory(id int) error
}

type sessionVerifier interface {
	VerifyAdmin(token string) (sessions.AdminSession, error)
	VerifyViewer(token string) (sessions.ViewerSession, error)
}

type subscriptionChecker interface {
	HasActiveSubscription(id int) bool
}

type userLister interface {
	List() ([]models.UserSummary, error)
}

var (
	_ channelStore        = (*channels.Service)(nil)
	_ sessionVerifier     = (*sessions.Service)(nil)
	_ subscriptionChecker = (*viewers.Service)(nil)
	_ userLister          = (*users.Service)(nil)
)

// ChannelsHandler serves the public channel bundle and the curated
// channel administration.
type ChannelsHandler struct {
	Service       channelStore
	Sessions      sessionVerifier
	Viewers       subscriptionChecker
	Users         userLister
	ConfigManager *config.Manager
}

func NewChannelsHandler(service channelStore, sessionsSvc sessionVerifier, viewersSvc subscriptionChecker, usersSvc userLister, configManager *config.Manager) *ChannelsHandler {
	return &ChannelsHandler{
		Service:       service,
		Sessions:      sessionsSvc,
		Viewers:       viewersSvc,
		Users:         usersSvc,
		ConfigManager: configManager,
	}
}

// Data returns everything the public frontend needs in one call. When
// subscriptions are enforced, visitors without one only get a teaser
// slice of the grid.
func (h *ChannelsHandler) Data(w http.ResponseWriter, r *http.Request) {
	settings, err := h.ConfigManager.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	requireSub := settings.Site.RequireSubscription
	hasSub := false
	isAdmin := false
	if token := bearerToken(r); token != "" {
		if sess, err := h.Sessions.VerifyViewer(token); err == nil {
			hasSub = h.Viewers.HasActiveSubscription(sess.ViewerID)
		}
		if _, err := h.Sessions.VerifyAdmin(token); err == nil {
			isAdmin = true
		}
	}

	chs, err := h.Service.Channels()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if requireSub && !hasSub && !isAdmin && len(chs) > freeChannelLimit {
		chs = chs[:freeChannelLimit]
	}

	cats, err := h.Service.Categories()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	userList, err := h.Users.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"categories":           cats,
		"channels":             chs,
		"users":                userList,
		"require_subscription": requireSub,
		"has_subscription":     hasSub,
	})
}

// SaveChannel creates or updates a curated channel.
func (h *ChannelsHandler) SaveChannel(w http.ResponseWriter, r *http.Request) {
	var body models.CuratedChannel
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ch, err := h.Service.SaveChannel(body)
	if err != nil {
		writeError(w, channelErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "channel": ch})
}

func (h *ChannelsHandler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "channelID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	if err := h.Service.DeleteChannel(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SaveCategory creates or updates a category.
func (h *ChannelsHandler) SaveCategory(w http.ResponseWriter, r *http.Request) {
	var body models.Category
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := h.Service.SaveCategory(body)
	if err != nil {
		writeError(w, channelErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "category": cat})
}

func (h *ChannelsHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := h.Service.DeleteCategory(id); err != nil {
		writeError(w, channelErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func channelErrorStatus(err error) int {
	switch {
	case errors.Is(err, channels.ErrNameRequired):
		return http.StatusBadRequest
	case errors.Is(err, channels.ErrChannelNotFound),
		errors.Is(err, channels.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, channels.ErrProtectedCategory):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
