package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/careblog/careblog/internal/apperror"
	"github.com/careblog/careblog/internal/model"
	"github.com/careblog/careblog/internal/repository"
)

// BlogStore implements repository.BlogRepository on the shared pool.
type BlogStore struct {
	conn *sql.DB
}

var _ repository.BlogRepository = (*BlogStore)(nil)

// blogSelect joins the author projection in one query; every read path
// returns blogs with their doctor columns populated.
const blogSelect = `
	SELECT b.id, b.title, b.content, b.summary, b.category, b.image_url,
	       b.is_draft, b.doctor_id, b.created_at, b.updated_at,
	       u.id, u.first_name, u.last_name, u.profile_image
	FROM blogs b
	JOIN users u ON u.id = b.doctor_id`

// Create inserts a new blog. ID and timestamps are assigned here; the
// caller's struct is updated in place.
func (s *BlogStore) Create(ctx context.Context, blog *model.Blog) error {
	blog.ID = xid.New().String()
	now := time.Now()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO blogs (id, title, content, summary, category, image_url,
		 is_draft, doctor_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		blog.ID,
		blog.Title,
		blog.Content,
		blog.Summary,
		blog.Category,
		blog.ImageURL,
		blog.IsDraft,
		blog.DoctorID,
		blog.CreatedAt,
		blog.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating blog: %w", err)
	}

	return nil
}

// GetByID returns the blog with its author projection, drafts included.
// Draft visibility is decided by the service, not here.
func (s *BlogStore) GetByID(ctx context.Context, id string) (*model.Blog, error) {
	row := s.conn.QueryRowContext(ctx, blogSelect+` WHERE b.id = ?`, id)

	blog, err := scanBlog(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("blog", id)
		}
		return nil, fmt.Errorf("sqlite: getting blog %s: %w", id, err)
	}

	return blog, nil
}

// ListPublished returns non-draft blogs, newest first, optionally filtered
// by canonical category token.
func (s *BlogStore) ListPublished(ctx context.Context, filter repository.BlogFilter) ([]model.Blog, error) {
	query := blogSelect + ` WHERE b.is_draft = 0`
	args := []any{}
	if filter.Category != "" {
		query += ` AND b.category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY b.created_at DESC`

	return s.listBlogs(ctx, query, args...)
}

// ListByAuthor returns every blog owned by the author, drafts included,
// newest first.
func (s *BlogStore) ListByAuthor(ctx context.Context, authorID string) ([]model.Blog, error) {
	return s.listBlogs(ctx,
		blogSelect+` WHERE b.doctor_id = ? ORDER BY b.created_at DESC`,
		authorID,
	)
}

func (s *BlogStore) listBlogs(ctx context.Context, query string, args ...any) ([]model.Blog, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing blogs: %w", err)
	}
	defer rows.Close()

	blogs := []model.Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning blog row: %w", err)
		}
		blogs = append(blogs, *blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating blogs: %w", err)
	}

	return blogs, nil
}

// Update persists the mutable fields of a blog. ID, doctor_id, and
// created_at never change after creation.
func (s *BlogStore) Update(ctx context.Context, blog *model.Blog) error {
	blog.UpdatedAt = time.Now()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE blogs
		 SET title = ?, content = ?, summary = ?, category = ?, image_url = ?,
		     is_draft = ?, updated_at = ?
		 WHERE id = ?`,
		blog.Title,
		blog.Content,
		blog.Summary,
		blog.Category,
		blog.ImageURL,
		blog.IsDraft,
		blog.UpdatedAt,
		blog.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating blog %s: %w", blog.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("blog", blog.ID)
	}

	return nil
}

// Delete removes a blog permanently. Associated media is left in place.
func (s *BlogStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting blog %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("blog", id)
	}

	return nil
}

// UpdateImage records the stored image path on the blog and returns the
// updated record.
func (s *BlogStore) UpdateImage(ctx context.Context, id, imageURL string) (*model.Blog, error) {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE blogs SET image_url = ?, updated_at = ? WHERE id = ?`,
		imageURL, time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating image for blog %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("blog", id)
	}

	return s.GetByID(ctx, id)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBlog(s scanner) (*model.Blog, error) {
	var b model.Blog
	var author model.Author

	err := s.Scan(
		&b.ID,
		&b.Title,
		&b.Content,
		&b.Summary,
		&b.Category,
		&b.ImageURL,
		&b.IsDraft,
		&b.DoctorID,
		&b.CreatedAt,
		&b.UpdatedAt,
		&author.ID,
		&author.FirstName,
		&author.LastName,
		&author.ProfileImage,
	)
	if err != nil {
		return nil, err
	}

	b.Doctor = &author
	return &b, nil
}
