package handler

import (
	"log/slog"
	"net/http"

	"github.com/careblog/careblog/internal/service"
	"github.com/careblog/careblog/internal/upload"
)

// UploadHandler serves the media upload endpoint.
type UploadHandler struct {
	store       *upload.Store
	authService *service.AuthService
	blogService *service.BlogService
	origin      string
	logger      *slog.Logger
}

func NewUploadHandler(
	store *upload.Store,
	authService *service.AuthService,
	blogService *service.BlogService,
	origin string,
	logger *slog.Logger,
) *UploadHandler {
	return &UploadHandler{
		store:       store,
		authService: authService,
		blogService: blogService,
		origin:      origin,
		logger:      logger,
	}
}

// HandleUpload stores a single image and, when an owning record id is
// supplied, persists the resulting path onto it.
//
// HTTP: POST /upload
// Form: profileImage=<file>, type=profiles|blogs, userId or blogId
//
// The file write and the database update are not atomic: if the update
// fails the file stays on disk and the client gets a 500. Orphaned files
// are accepted, never retried.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(upload.KindBlogs.MaxBytes() + (1 << 20)); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid form body"})
		return
	}

	file, header, err := r.FormFile("profileImage")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file uploaded"})
		return
	}
	defer file.Close()

	// FormValue also falls back to the query string, matching the original
	// endpoint's body-or-query lookup.
	kind, err := upload.ParseKind(r.FormValue("type"))
	if err != nil {
		writeError(w, err)
		return
	}

	saved, err := h.store.Save(kind, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("file uploaded",
		slog.String("filename", saved.Filename),
		slog.String("type", string(kind)),
		slog.Int64("size", saved.Size),
	)

	origin := requestOrigin(r, h.origin)

	// Best-effort association with the owning record.
	var db any
	switch {
	case kind == upload.KindProfiles && r.FormValue("userId") != "":
		user, err := h.authService.AttachProfileImage(r.Context(), r.FormValue("userId"), saved.URL)
		if err != nil {
			h.uploadDBError(w, err)
			return
		}
		db = absolutizeUser(user, origin)
	case kind == upload.KindBlogs && r.FormValue("blogId") != "":
		blog, err := h.blogService.AttachImage(r.Context(), r.FormValue("blogId"), saved.URL)
		if err != nil {
			h.uploadDBError(w, err)
			return
		}
		db = absolutizeBlog(blog, origin)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"file": saved,
		"db":   db,
	})
}

// uploadDBError reports a post-write association failure. The stored file is
// deliberately left in place.
func (h *UploadHandler) uploadDBError(w http.ResponseWriter, err error) {
	h.logger.Error("failed to save upload metadata", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError,
		errorResponse{Error: "Uploaded but failed to save metadata"})
}
