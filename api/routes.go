package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"embertv/handlers"
	"embertv/services/sessions"
)

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	authHandler *handlers.AuthHandler,
	playlistsHandler *handlers.PlaylistsHandler,
	channelsHandler *handlers.ChannelsHandler,
	plansHandler *handlers.PlansHandler,
	viewersHandler *handlers.ViewersHandler,
	usersHandler *handlers.UsersHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	settingsHandler *handlers.SettingsHandler,
	sessionsSvc *sessions.Service,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	// Public routes.
	api.HandleFunc("/login", authHandler.AdminLogin).Methods(http.MethodPost)
	api.HandleFunc("/login", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/logout", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/viewer/register", authHandler.ViewerRegister).Methods(http.MethodPost)
	api.HandleFunc("/viewer/register", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/viewer/login", authHandler.ViewerLogin).Methods(http.MethodPost)
	api.HandleFunc("/viewer/login", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/viewer/logout", authHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/viewer/logout", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/data", channelsHandler.Data).Methods(http.MethodGet)
	api.HandleFunc("/data", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/plans", plansHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/plans", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/track", analyticsHandler.Track).Methods(http.MethodPost)
	api.HandleFunc("/track", handleOptions).Methods(http.MethodOptions)

	// Viewer routes - require a viewer session.
	viewer := api.PathPrefix("/viewer").Subrouter()
	viewer.Use(ViewerAuthMiddleware(sessionsSvc))
	viewer.HandleFunc("/profile", viewersHandler.Profile).Methods(http.MethodGet)
	viewer.HandleFunc("/profile", viewersHandler.UpdateProfile).Methods(http.MethodPost)
	viewer.HandleFunc("/profile", handleOptions).Methods(http.MethodOptions)
	viewer.HandleFunc("/favorites", viewersHandler.Favorites).Methods(http.MethodGet)
	viewer.HandleFunc("/favorites", viewersHandler.SetFavorite).Methods(http.MethodPost)
	viewer.HandleFunc("/favorites", handleOptions).Methods(http.MethodOptions)
	viewer.HandleFunc("/subscribe", plansHandler.Subscribe).Methods(http.MethodPost)
	viewer.HandleFunc("/subscribe", handleOptions).Methods(http.MethodOptions)

	// Protected routes - require an admin panel session.
	protected := api.PathPrefix("").Subrouter()
	protected.Use(AdminAuthMiddleware(sessionsSvc))

	protected.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/me", handleOptions).Methods(http.MethodOptions)

	protected.HandleFunc("/m3u/lists", playlistsHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/m3u/lists", playlistsHandler.Import).Methods(http.MethodPost)
	protected.HandleFunc("/m3u/lists", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/m3u/lists/{listID}", playlistsHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/m3u/lists/{listID}", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/m3u/lists/{listID}/channels", playlistsHandler.Channels).Methods(http.MethodGet)
	protected.HandleFunc("/m3u/lists/{listID}/channels", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/m3u/lists/{listID}/refresh", playlistsHandler.Refresh).Methods(http.MethodPost)
	protected.HandleFunc("/m3u/lists/{listID}/refresh", handleOptions).Methods(http.MethodOptions)

	protected.HandleFunc("/channels", channelsHandler.SaveChannel).Methods(http.MethodPost)
	protected.HandleFunc("/channels", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/channels/{channelID}", channelsHandler.DeleteChannel).Methods(http.MethodDelete)
	protected.HandleFunc("/channels/{channelID}", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/categories", channelsHandler.SaveCategory).Methods(http.MethodPost)
	protected.HandleFunc("/categories", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/categories/{categoryID}", channelsHandler.DeleteCategory).Methods(http.MethodDelete)
	protected.HandleFunc("/categories/{categoryID}", handleOptions).Methods(http.MethodOptions)

	protected.HandleFunc("/viewers", viewersHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/viewers", viewersHandler.Save).Methods(http.MethodPost)
	protected.HandleFunc("/viewers", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/viewers/{viewerID}", viewersHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/viewers/{viewerID}", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/viewers/{viewerID}/password", viewersHandler.ResetPassword).Methods(http.MethodPut)
	protected.HandleFunc("/viewers/{viewerID}/password", handleOptions).Methods(http.MethodOptions)

	protected.HandleFunc("/plans", plansHandler.Save).Methods(http.MethodPost)
	protected.HandleFunc("/plans/{planID}", plansHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/plans/{planID}", handleOptions).Methods(http.MethodOptions)
	protected.HandleFunc("/sales", plansHandler.Sales).Methods(http.MethodGet)
	protected.HandleFunc("/sales", handleOptions).Methods(http.MethodOptions)

	protected.HandleFunc("/analytics", analyticsHandler.Summary).Methods(http.MethodGet)
	protected.HandleFunc("/analytics", handleOptions).Methods(http.MethodOptions)

	// Account and settings management stays admin-role only; editors
	// manage content but not the panel itself.
	adminOnly := protected.PathPrefix("").Subrouter()
	adminOnly.Use(AdminRoleMiddleware())
	adminOnly.HandleFunc("/users", usersHandler.List).Methods(http.MethodGet)
	adminOnly.HandleFunc("/users", usersHandler.Save).Methods(http.MethodPost)
	adminOnly.HandleFunc("/users", handleOptions).Methods(http.MethodOptions)
	adminOnly.HandleFunc("/users/{userID}", usersHandler.Delete).Methods(http.MethodDelete)
	adminOnly.HandleFunc("/users/{userID}", handleOptions).Methods(http.MethodOptions)
	adminOnly.HandleFunc("/settings", settingsHandler.Get).Methods(http.MethodGet)
	adminOnly.HandleFunc("/settings", settingsHandler.Update).Methods(http.MethodPost)
	adminOnly.HandleFunc("/settings", handleOptions).Methods(http.MethodOptions)
}
