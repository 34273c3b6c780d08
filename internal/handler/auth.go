package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/careblog/careblog/internal/auth"
	"github.com/careblog/careblog/internal/service"
	"github.com/careblog/careblog/internal/upload"
)

// signupMaxMemory caps how much of a multipart signup body is buffered in
// memory; larger parts spill to temp files.
const signupMaxMemory = 10 << 20

// AuthHandler serves signup, login, the current-user endpoint, and the
// public signups listing.
type AuthHandler struct {
	authService *service.AuthService
	store       *upload.Store
	origin      string // configured PUBLIC_ORIGIN, may be empty
	logger      *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, store *upload.Store, origin string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
		origin:      origin,
		logger:      logger,
	}
}

// HandleSignup registers an account.
//
// HTTP: POST /auth/signup
//
// Accepts multipart/form-data (profile fields plus an optional profileImage
// file) or a plain JSON body. The file is stored before the account is
// created; if creation then fails the file stays behind as an accepted
// orphan.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(signupMaxMemory); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid form body"})
			return
		}

		in = service.SignupInput{
			FirstName:    r.FormValue("firstName"),
			LastName:     r.FormValue("lastName"),
			Email:        r.FormValue("email"),
			Password:     r.FormValue("password"),
			UserType:     r.FormValue("userType"),
			AddressLine1: r.FormValue("addressLine1"),
			City:         r.FormValue("city"),
			State:        r.FormValue("state"),
			Pincode:      r.FormValue("pincode"),
		}

		if file, header, err := r.FormFile("profileImage"); err == nil {
			defer file.Close()
			saved, err := h.store.Save(upload.KindProfiles, header.Filename, file)
			if err != nil {
				writeError(w, err)
				return
			}
			in.ProfileImage = saved.URL
		}
	} else {
		var body struct {
			FirstName    string `json:"firstName"`
			LastName     string `json:"lastName"`
			Email        string `json:"email"`
			Password     string `json:"password"`
			UserType     string `json:"userType"`
			AddressLine1 string `json:"addressLine1"`
			City         string `json:"city"`
			State        string `json:"state"`
			Pincode      string `json:"pincode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
			return
		}
		in = service.SignupInput{
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			Email:        body.Email,
			Password:     body.Password,
			UserType:     body.UserType,
			AddressLine1: body.AddressLine1,
			City:         body.City,
			State:        body.State,
			Pincode:      body.Pincode,
		}
	}

	result, err := h.authService.Signup(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	origin := requestOrigin(r, h.origin)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"user":  absolutizeUser(result.User, origin),
		"token": result.Token,
	})
}

// HandleLogin authenticates an account.
//
// HTTP: POST /auth/login
// Body: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}

	result, err := h.authService.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	origin := requestOrigin(r, h.origin)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"user":  absolutizeUser(result.User, origin),
		"token": result.Token,
	})
}

// HandleMe returns the authenticated caller's account.
//
// HTTP: GET /auth/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	user, err := h.authService.Me(r.Context(), ident.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": absolutizeUser(user, requestOrigin(r, h.origin)),
	})
}

// HandleSignups returns the public account listing, kept for compatibility
// with the original deployment. Password hashes never serialize.
//
// HTTP: GET /auth/signups
func (h *AuthHandler) HandleSignups(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListSignups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	origin := requestOrigin(r, h.origin)
	out := make([]any, 0, len(users))
	for i := range users {
		out = append(out, absolutizeUser(&users[i], origin))
	}

	writeData(w, http.StatusOK, out)
}
