package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/careblog/careblog/internal/auth"
	"github.com/careblog/careblog/internal/service"
)

// BlogHandler serves the blog endpoints. All policy decisions live in
// BlogService; this layer only parses requests and shapes responses.
type BlogHandler struct {
	blogService *service.BlogService
	origin      string
	logger      *slog.Logger
}

func NewBlogHandler(blogService *service.BlogService, origin string, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		blogService: blogService,
		origin:      origin,
		logger:      logger,
	}
}

// blogBody is the write payload. Draft state arrives under several names
// from different frontend revisions (draft, isDraft, status), all honoured.
type blogBody struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Summary  *string `json:"summary"`
	Category *string `json:"category"`
	ImageURL *string `json:"imageUrl"`
	Draft    *bool   `json:"draft"`
	IsDraft  *bool   `json:"isDraft"`
	Status   *string `json:"status"`
}

// draftFlag resolves the draft state from whichever field the client sent.
// Returns nil when none was supplied.
func (b *blogBody) draftFlag() *bool {
	if b.IsDraft != nil {
		return b.IsDraft
	}
	if b.Draft != nil {
		return b.Draft
	}
	if b.Status != nil {
		v := *b.Status == "draft"
		return &v
	}
	return nil
}

func stringOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}

// HandleList returns the public feed.
//
// HTTP: GET /blogs?category=
func (h *BlogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogService.ListPublished(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, absolutizeBlogs(blogs, requestOrigin(r, h.origin)))
}

// HandleListMine returns every post of the authenticated doctor, drafts
// included.
//
// HTTP: GET /blogs/mine (RequireAuth)
func (h *BlogHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	blogs, err := h.blogService.ListMine(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, absolutizeBlogs(blogs, requestOrigin(r, h.origin)))
}

// HandleGet returns one post. Identity is optional: it only matters for
// drafts, which resolve to 404 for anyone but their author.
//
// HTTP: GET /blogs/{id} (OptionalAuth)
func (h *BlogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	var viewer *auth.Identity
	if ident, ok := auth.IdentityFromContext(r.Context()); ok {
		viewer = &ident
	}

	blog, err := h.blogService.GetByID(r.Context(), chi.URLParam(r, "id"), viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, absolutizeBlog(blog, requestOrigin(r, h.origin)))
}

// HandleCreate creates a post owned by the caller.
//
// HTTP: POST /blogs (RequireAuth, doctor only)
func (h *BlogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	var body blogBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}

	in := service.CreateBlogInput{
		Title:    stringOr(body.Title, ""),
		Content:  stringOr(body.Content, ""),
		Summary:  stringOr(body.Summary, ""),
		Category: stringOr(body.Category, ""),
	}
	if draft := body.draftFlag(); draft != nil {
		in.IsDraft = *draft
	}

	blog, err := h.blogService.Create(r.Context(), ident, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, absolutizeBlog(blog, requestOrigin(r, h.origin)))
}

// HandleUpdate applies a partial update to a post the caller owns.
//
// HTTP: PUT /blogs/{id} (RequireAuth, owner only)
func (h *BlogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	var body blogBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}

	in := service.UpdateBlogInput{
		Title:    body.Title,
		Content:  body.Content,
		Summary:  body.Summary,
		Category: body.Category,
		ImageURL: body.ImageURL,
		IsDraft:  body.draftFlag(),
	}

	blog, err := h.blogService.Update(r.Context(), ident, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, absolutizeBlog(blog, requestOrigin(r, h.origin)))
}

// HandleDelete removes a post the caller owns and echoes the deleted record.
//
// HTTP: DELETE /blogs/{id} (RequireAuth, owner only)
func (h *BlogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	blog, err := h.blogService.Delete(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, absolutizeBlog(blog, requestOrigin(r, h.origin)))
}
