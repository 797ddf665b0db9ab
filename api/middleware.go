package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"embertv/handlers"
	"embertv/models"
	"embertv/services/sessions"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func token(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"error":"Unauthorized"}`))
}

// AdminAuthMiddleware requires a valid admin session token.
func AdminAuthMiddleware(sessionsSvc *sessions.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessionsSvc.VerifyAdmin(token(r))
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, handlers.WithAdminSession(r, sess))
		})
	}
}

// AdminRoleMiddleware additionally requires the admin role; editors
// are rejected.
func AdminRoleMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := handlers.AdminSessionFrom(r)
			if !ok || sess.Role != models.RoleAdmin {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ViewerAuthMiddleware requires a valid viewer session token.
func ViewerAuthMiddleware(sessionsSvc *sessions.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessionsSvc.VerifyViewer(token(r))
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, handlers.WithViewerSession(r, sess))
		})
	}
}
