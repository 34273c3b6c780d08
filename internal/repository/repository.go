// Package repository declares the persistence interfaces consumed by the
// service layer. The sqlite subpackage provides the concrete implementation.
package repository

import (
	"context"

	"github.com/careblog/careblog/internal/model"
)

// BlogFilter narrows blog listings. Zero values mean "no filter".
type BlogFilter struct {
	Category string // canonical category token
}

type UserRepository interface {
	// Create inserts a new account. Returns apperror.ErrConflict if the
	// email (compared case-insensitively) is already registered.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail matches case-insensitively against the stored email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfileImage(ctx context.Context, id, imageURL string) (*model.User, error)
}

type BlogRepository interface {
	Create(ctx context.Context, blog *model.Blog) error
	// GetByID returns the blog with its author projection populated,
	// regardless of draft state; visibility is the service's concern.
	GetByID(ctx context.Context, id string) (*model.Blog, error)
	// ListPublished returns non-draft blogs, newest first.
	ListPublished(ctx context.Context, filter BlogFilter) ([]model.Blog, error)
	// ListByAuthor returns every blog owned by the author, drafts
	// included, newest first.
	ListByAuthor(ctx context.Context, authorID string) ([]model.Blog, error)
	Update(ctx context.Context, blog *model.Blog) error
	Delete(ctx context.Context, id string) error
	UpdateImage(ctx context.Context, id, imageURL string) (*model.Blog, error)
}
