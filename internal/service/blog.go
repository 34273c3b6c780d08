package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/careblog/careblog/internal/apperror"
	"github.com/careblog/careblog/internal/auth"
	"github.com/careblog/careblog/internal/model"
	"github.com/careblog/careblog/internal/repository"
)

// BlogService enforces the blog visibility and ownership policy: who may see
// or mutate a post, and what shape comes back.
//
// The rules, in short:
//   - published posts are visible to anyone, drafts only to their author
//   - a draft fetched by anyone else reads as not-found, so hidden and
//     absent are indistinguishable
//   - only doctors create posts; only the owning author mutates or deletes
//   - ownership implies the doctor role at creation time and is never
//     re-derived from the account's current role
type BlogService struct {
	blogs  repository.BlogRepository
	logger *slog.Logger
}

func NewBlogService(blogs repository.BlogRepository, logger *slog.Logger) *BlogService {
	return &BlogService{
		blogs:  blogs,
		logger: logger,
	}
}

// CreateBlogInput is the payload for a new post.
type CreateBlogInput struct {
	Title    string
	Content  string
	Summary  string
	Category string
	IsDraft  bool // defaults to published when the caller omits it
}

// UpdateBlogInput is a partial update: nil fields are left unchanged.
type UpdateBlogInput struct {
	Title    *string
	Content  *string
	Summary  *string
	Category *string
	ImageURL *string
	IsDraft  *bool
}

// ListPublished returns the public feed: non-draft posts, newest first,
// optionally narrowed to one category. Drafts never appear here, whoever
// asks; "my drafts" is a separate operation.
func (s *BlogService) ListPublished(ctx context.Context, category string) ([]model.Blog, error) {
	var filter repository.BlogFilter
	if strings.TrimSpace(category) != "" {
		normalized, err := model.NormalizeCategory(category)
		if err != nil {
			return nil, apperror.ValidationFailed("category", "Invalid category")
		}
		filter.Category = normalized
	}

	blogs, err := s.blogs.ListPublished(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/blog: listing published blogs: %w", err)
	}

	return blogs, nil
}

// ListMine returns all of the caller's posts, drafts included, newest first.
// Only doctors own posts, so any other role is refused outright.
func (s *BlogService) ListMine(ctx context.Context, ident auth.Identity) ([]model.Blog, error) {
	if ident.Role != model.RoleDoctor {
		return nil, apperror.Forbidden("Only doctors have blogs")
	}

	blogs, err := s.blogs.ListByAuthor(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("service/blog: listing blogs for author %s: %w", ident.ID, err)
	}

	return blogs, nil
}

// GetByID returns a single post. viewer is nil for anonymous callers.
// A draft is returned only to its owning author; for everyone else it is
// reported as not found.
func (s *BlogService) GetByID(ctx context.Context, id string, viewer *auth.Identity) (*model.Blog, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "Blog ID is required")
	}

	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if blog.IsDraft && (viewer == nil || viewer.ID != blog.DoctorID) {
		return nil, apperror.NotFound("blog", id)
	}

	return blog, nil
}

// Create validates and stores a new post owned by the caller. The owning
// author is always the resolved identity; a client-supplied author id is
// never consulted.
func (s *BlogService) Create(ctx context.Context, ident auth.Identity, in CreateBlogInput) (*model.Blog, error) {
	if ident.Role != model.RoleDoctor {
		return nil, apperror.Forbidden("Only doctors can create blogs")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "Title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperror.ValidationFailed("content", "Content is required")
	}

	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		return nil, apperror.ValidationFailed("summary", "Summary is required")
	}
	if words := model.WordCount(summary); words > model.MaxSummaryWords {
		return nil, apperror.ValidationFailed("summary",
			fmt.Sprintf("Summary must be %d words or fewer", model.MaxSummaryWords))
	}

	category, err := model.NormalizeCategory(in.Category)
	if err != nil {
		return nil, apperror.ValidationFailed("category", "Category is required")
	}

	blog := &model.Blog{
		Title:    title,
		Content:  in.Content,
		Summary:  summary,
		Category: category,
		IsDraft:  in.IsDraft,
		DoctorID: ident.ID,
	}

	if err := s.blogs.Create(ctx, blog); err != nil {
		s.logger.Error("failed to create blog",
			slog.String("doctorID", ident.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/blog: creating blog: %w", err)
	}

	s.logger.Info("blog created",
		slog.String("blogID", blog.ID),
		slog.String("doctorID", ident.ID),
		slog.String("category", blog.Category),
		slog.Bool("draft", blog.IsDraft),
	)

	// Re-read so the response carries the author projection.
	return s.blogs.GetByID(ctx, blog.ID)
}

// Update applies a partial update to a post the caller owns. Supplied
// fields are re-validated under the same rules as Create; omitted fields
// keep their stored values.
//
// The ownership check reads the record first, so a concurrent delete
// between the check and the write surfaces as not-found from the
// repository. That stale-read window is accepted.
func (s *BlogService) Update(ctx context.Context, ident auth.Identity, id string, in UpdateBlogInput) (*model.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}

	// Ownership, not current role: an author demoted after writing keeps
	// mutation rights over their existing posts.
	if blog.DoctorID != ident.ID {
		return nil, apperror.Forbidden("Only the author can modify this blog")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "Title is required")
		}
		blog.Title = title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, apperror.ValidationFailed("content", "Content is required")
		}
		blog.Content = *in.Content
	}
	if in.Summary != nil {
		summary := strings.TrimSpace(*in.Summary)
		if summary == "" {
			return nil, apperror.ValidationFailed("summary", "Summary is required")
		}
		if words := model.WordCount(summary); words > model.MaxSummaryWords {
			return nil, apperror.ValidationFailed("summary",
				fmt.Sprintf("Summary must be %d words or fewer", model.MaxSummaryWords))
		}
		blog.Summary = summary
	}
	if in.Category != nil {
		category, err := model.NormalizeCategory(*in.Category)
		if err != nil {
			return nil, apperror.ValidationFailed("category", "Invalid category")
		}
		blog.Category = category
	}
	if in.ImageURL != nil {
		blog.ImageURL = *in.ImageURL
	}
	if in.IsDraft != nil {
		blog.IsDraft = *in.IsDraft
	}

	if err := s.blogs.Update(ctx, blog); err != nil {
		s.logger.Error("failed to update blog",
			slog.String("blogID", blog.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("blog updated", slog.String("blogID", blog.ID))

	return blog, nil
}

// AttachImage records a stored upload path on the blog and returns the
// updated record. The upload endpoint predates ownership checks in the
// original system and is kept permission-free for compatibility.
func (s *BlogService) AttachImage(ctx context.Context, blogID, imageURL string) (*model.Blog, error) {
	blog, err := s.blogs.UpdateImage(ctx, blogID, imageURL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("blog image updated", slog.String("blogID", blogID))
	return blog, nil
}

// Delete removes a post the caller owns. The stored image, if any, is left
// behind, deletion has no media side effects.
func (s *BlogService) Delete(ctx context.Context, ident auth.Identity, id string) (*model.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}

	if blog.DoctorID != ident.ID {
		return nil, apperror.Forbidden("Only the author can delete this blog")
	}

	if err := s.blogs.Delete(ctx, blog.ID); err != nil {
		return nil, err
	}

	s.logger.Info("blog deleted",
		slog.String("blogID", blog.ID),
		slog.String("doctorID", ident.ID),
	)

	return blog, nil
}
