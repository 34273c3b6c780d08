// Package handler is the HTTP layer: request parsing, response envelopes,
// and the mapping from domain errors to status codes.
//
// Every response uses the same envelope: {"ok":true, ...} on success and
// {"ok":false, "error": "..."} on failure.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/careblog/careblog/internal/apperror"
	"github.com/careblog/careblog/internal/model"
)

// debug controls whether 500 responses expose the underlying error text.
// Enabled outside production; set once during wiring, before any request.
var debug bool

// EnableDebugErrors makes internal errors include their cause in the
// response body. Never call this in production builds.
func EnableDebugErrors() {
	debug = true
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeData sends the standard success envelope: {"ok":true,"data":...}.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"ok": true, "data": data})
}

// writeError translates a domain error into the failure envelope with the
// matching status code. Unrecognized errors become a generic 500; their
// detail is logged, and exposed in the body only when debug is on.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}

		writeJSON(w, status, errorResponse{OK: false, Error: appErr.Message})
		return
	}

	slog.Error("internal error", slog.String("error", err.Error()))

	message := "Internal Server Error"
	if debug {
		message = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{OK: false, Error: message})
}

// requestOrigin resolves the absolute origin image URLs are rooted at.
// A configured PUBLIC_ORIGIN wins; otherwise it is derived from the request
// so responses stay renderable wherever the client is hosted.
func requestOrigin(r *http.Request, configured string) string {
	if configured != "" {
		return configured
	}

	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}

// absoluteURL rewrites a server-relative stored path to an absolute address.
// Paths already absolute (or empty) pass through untouched.
func absoluteURL(origin, path string) string {
	if strings.HasPrefix(path, "/uploads") {
		return origin + path
	}
	return path
}

// absolutizeUser rewrites the profile image on a copy of the account.
func absolutizeUser(u *model.User, origin string) *model.User {
	out := *u
	out.ProfileImage = absoluteURL(origin, out.ProfileImage)
	return &out
}

// absolutizeBlog rewrites the post image and the embedded author's profile
// image on a copy of the blog.
func absolutizeBlog(b *model.Blog, origin string) *model.Blog {
	out := *b
	out.ImageURL = absoluteURL(origin, out.ImageURL)
	if b.Doctor != nil {
		doctor := *b.Doctor
		doctor.ProfileImage = absoluteURL(origin, doctor.ProfileImage)
		out.Doctor = &doctor
	}
	return &out
}

func absolutizeBlogs(blogs []model.Blog, origin string) []model.Blog {
	out := make([]model.Blog, len(blogs))
	for i := range blogs {
		out[i] = *absolutizeBlog(&blogs[i], origin)
	}
	return out
}
