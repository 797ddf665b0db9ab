package handlers

import (
	"context"
	"net/http"

	"embertv/services/sessions"
)

type contextKey int

const (
	adminSessionKey contextKey = iota
	viewerSessionKey
)

// WithAdminSession attaches an authenticated admin session to a request.
func WithAdminSession(r *http.Request, sess sessions.AdminSession) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), adminSessionKey, sess))
}

// AdminSessionFrom returns the admin session set by the auth middleware.
func AdminSessionFrom(r *http.Request) (sessions.AdminSession, bool) {
	sess, ok := r.Context().Value(adminSessionKey).(sessions.AdminSession)
	return sess, ok
}

// WithViewerSession attaches an authenticated viewer session to a request.
func WithViewerSession(r *http.Request, sess sessions.ViewerSession) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), viewerSessionKey, sess))
}

// ViewerSessionFrom returns the viewer session set by the auth middleware.
func ViewerSessionFrom(r *http.Request) (sessions.ViewerSession, bool) {
	sess, ok := r.Context().Value(viewerSessionKey).(sessions.ViewerSession)
	return sess, ok
}
