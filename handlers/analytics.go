package handlers

import (
	"log"
	"net/http"

	"embertv/services/analytics"
)

type viewTracker interface {
	Track(channelID int, channelName string, viewerID int) error
	Summarize() (analytics.Summary, error)
}

var _ viewTracker = (*analytics.Service)(nil)

// AnalyticsHandler records channel views and serves the dashboard
// summary.
type AnalyticsHandler struct {
	Service  viewTracker
	Sessions sessionVerifier
}

func NewAnalyticsHandler(service viewTracker, sessionsSvc sessionVerifier) *AnalyticsHandler {
	return &AnalyticsHandler{Service: service, Sessions: sessionsSvc}
}

// Track is public; a viewer token, when present, attributes the view.
// Tracking failures never surface to the player.
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChannelID   int    `json:"channel_id"`
		ChannelName string `json:"channel_name"`
	}
	if err := decodeBody(r, &body); err == nil {
		viewerID := 0
		if token := bearerToken(r); token != "" {
			if sess, err := h.Sessions.VerifyViewer(token); err == nil {
				viewerID = sess.ViewerID
			}
		}
		if err := h.Service.Track(body.ChannelID, body.ChannelName, viewerID); err != nil {
			log.Printf("[analytics] Track failed: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Summary returns the aggregated dashboard numbers.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Service.Summarize()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"today":   map[string]int{"views": sum.TodayViews, "users": sum.TodayUsers},
		"popular": sum.Popular,
		"daily":   sum.Daily,
	})
}
