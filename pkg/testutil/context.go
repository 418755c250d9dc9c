package testutil

import (
	"net/http"
	"time"

	id "drawcore/pkg/domain"
	"drawcore/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context, simulating what the auth
// middleware does for authenticated requests. An invalid UUID is silently
// ignored.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsed, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
	}
	return req
}

// WithAdmin marks the request as coming from an admin caller.
func WithAdmin(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithAdmin(req.Context(), true))
}

// WithAuth adds an authenticated user, optionally with the admin role.
func WithAuth(req *http.Request, userID string, admin bool) *http.Request {
	req = WithUserID(req, userID)
	if admin {
		req = WithAdmin(req)
	}
	return req
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
