package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/careblog/careblog/internal/apperror"
	"github.com/careblog/careblog/internal/auth"
	"github.com/careblog/careblog/internal/model"
	"github.com/careblog/careblog/internal/repository"
)

// mockBlogRepo is an in-memory BlogRepository for service tests.
type mockBlogRepo struct {
	blogs  map[string]*model.Blog
	nextID int
}

func newMockBlogRepo() *mockBlogRepo {
	return &mockBlogRepo{blogs: map[string]*model.Blog{}}
}

func (m *mockBlogRepo) Create(_ context.Context, blog *model.Blog) error {
	m.nextID++
	blog.ID = fmt.Sprintf("b%d", m.nextID)
	copy := *blog
	m.blogs[blog.ID] = &copy
	return nil
}

func (m *mockBlogRepo) GetByID(_ context.Context, id string) (*model.Blog, error) {
	b, ok := m.blogs[id]
	if !ok {
		return nil, apperror.NotFound("blog", id)
	}
	copy := *b
	return &copy, nil
}

func (m *mockBlogRepo) ListPublished(_ context.Context, filter repository.BlogFilter) ([]model.Blog, error) {
	var out []model.Blog
	for _, b := range m.blogs {
		if b.IsDraft {
			continue
		}
		if filter.Category != "" && b.Category != filter.Category {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockBlogRepo) ListByAuthor(_ context.Context, authorID string) ([]model.Blog, error) {
	var out []model.Blog
	for _, b := range m.blogs {
		if b.DoctorID == authorID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockBlogRepo) Update(_ context.Context, blog *model.Blog) error {
	if _, ok := m.blogs[blog.ID]; !ok {
		return apperror.NotFound("blog", blog.ID)
	}
	copy := *blog
	m.blogs[blog.ID] = &copy
	return nil
}

func (m *mockBlogRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.blogs[id]; !ok {
		return apperror.NotFound("blog", id)
	}
	delete(m.blogs, id)
	return nil
}

func (m *mockBlogRepo) UpdateImage(_ context.Context, id, imageURL string) (*model.Blog, error) {
	b, ok := m.blogs[id]
	if !ok {
		return nil, apperror.NotFound("blog", id)
	}
	b.ImageURL = imageURL
	copy := *b
	return &copy, nil
}

var (
	drOwner  = auth.Identity{ID: "doc-1", Email: "owner@x.com", Role: model.RoleDoctor}
	drOther  = auth.Identity{ID: "doc-2", Email: "other@x.com", Role: model.RoleDoctor}
	aPatient = auth.Identity{ID: "pat-1", Email: "patient@x.com", Role: model.RolePatient}
)

func validCreate() CreateBlogInput {
	return CreateBlogInput{
		Title:    "Managing chronic stress",
		Content:  "Long form content about stress management.",
		Summary:  "Practical steps for daily stress relief.",
		Category: "Mental Health",
	}
}

func newTestBlogService() (*BlogService, *mockBlogRepo) {
	repo := newMockBlogRepo()
	return NewBlogService(repo, discardLogger()), repo
}

func TestBlogCreate_NormalizesCategoryAndForcesAuthor(t *testing.T) {
	svc, _ := newTestBlogService()

	in := validCreate()
	in.Category = "Heart Disease"
	in.IsDraft = true

	blog, err := svc.Create(context.Background(), drOwner, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if blog.Category != "HEART_DISEASE" {
		t.Errorf("Category = %q, want HEART_DISEASE", blog.Category)
	}
	if !blog.IsDraft {
		t.Error("expected blog to be stored as a draft")
	}
	if blog.DoctorID != drOwner.ID {
		t.Errorf("DoctorID = %q, want the creator's id", blog.DoctorID)
	}
}

func TestBlogCreate_PatientForbidden(t *testing.T) {
	svc, _ := newTestBlogService()

	_, err := svc.Create(context.Background(), aPatient, validCreate())
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestBlogCreate_DraftDefaultsToPublished(t *testing.T) {
	svc, _ := newTestBlogService()

	blog, err := svc.Create(context.Background(), drOwner, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if blog.IsDraft {
		t.Error("expected blog to default to published")
	}
}

func TestBlogCreate_SummaryWordLimit(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	in := validCreate()
	in.Summary = strings.TrimSpace(strings.Repeat("word ", model.MaxSummaryWords))
	if _, err := svc.Create(ctx, drOwner, in); err != nil {
		t.Errorf("a %d-word summary should be accepted, got %v", model.MaxSummaryWords, err)
	}

	in.Summary = strings.TrimSpace(strings.Repeat("word ", model.MaxSummaryWords+1))
	if _, err := svc.Create(ctx, drOwner, in); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("a %d-word summary should be rejected, got %v", model.MaxSummaryWords+1, err)
	}
}

func TestBlogCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateBlogInput)
	}{
		{"missing title", func(in *CreateBlogInput) { in.Title = "  " }},
		{"missing content", func(in *CreateBlogInput) { in.Content = "" }},
		{"missing summary", func(in *CreateBlogInput) { in.Summary = "" }},
		{"missing category", func(in *CreateBlogInput) { in.Category = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestBlogService()

			in := validCreate()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), drOwner, in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestBlogGetByID_DraftVisibility(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	in := validCreate()
	in.IsDraft = true
	draft, err := svc.Create(ctx, drOwner, in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The owner sees their draft.
	if _, err := svc.GetByID(ctx, draft.ID, &drOwner); err != nil {
		t.Errorf("owner GetByID() error = %v", err)
	}

	// Anonymous and other doctors get not-found, same as a missing id.
	if _, err := svc.GetByID(ctx, draft.ID, nil); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("anonymous GetByID() = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByID(ctx, draft.ID, &drOther); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("other doctor GetByID() = %v, want ErrNotFound", err)
	}
}

func TestBlogGetByID_PublishedVisibleToAnyone(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	blog, err := svc.Create(ctx, drOwner, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, viewer := range []*auth.Identity{nil, &aPatient, &drOther} {
		if _, err := svc.GetByID(ctx, blog.ID, viewer); err != nil {
			t.Errorf("GetByID() with viewer %v error = %v", viewer, err)
		}
	}
}

func TestBlogListPublished_FilterNormalized(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, drOwner, validCreate()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	heart := validCreate()
	heart.Category = "HEART_DISEASE"
	if _, err := svc.Create(ctx, drOwner, heart); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	blogs, err := svc.ListPublished(ctx, "heart disease")
	if err != nil {
		t.Fatalf("ListPublished() error = %v", err)
	}
	if len(blogs) != 1 || blogs[0].Category != "HEART_DISEASE" {
		t.Errorf("filtered feed = %+v, want only HEART_DISEASE", blogs)
	}
}

func TestBlogListMine_PatientForbidden(t *testing.T) {
	svc, _ := newTestBlogService()

	_, err := svc.ListMine(context.Background(), aPatient)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestBlogListMine_IncludesDrafts(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	in := validCreate()
	in.IsDraft = true
	if _, err := svc.Create(ctx, drOwner, in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, drOwner, validCreate()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, drOther, validCreate()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	blogs, err := svc.ListMine(ctx, drOwner)
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}
	if len(blogs) != 2 {
		t.Errorf("ListMine() returned %d blogs, want 2", len(blogs))
	}
}

func TestBlogUpdate_OwnerOnly(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	blog, err := svc.Create(ctx, drOwner, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	newTitle := "Updated title"
	_, err = svc.Update(ctx, drOther, blog.ID, UpdateBlogInput{Title: &newTitle})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("other doctor Update() = %v, want ErrForbidden", err)
	}

	updated, err := svc.Update(ctx, drOwner, blog.ID, UpdateBlogInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("owner Update() error = %v", err)
	}
	if updated.Title != "Updated title" {
		t.Errorf("Title = %q", updated.Title)
	}
}

func TestBlogUpdate_PartialKeepsOtherFields(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	blog, err := svc.Create(ctx, drOwner, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	published := false
	draft := true
	updated, err := svc.Update(ctx, drOwner, blog.ID, UpdateBlogInput{IsDraft: &draft})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.IsDraft {
		t.Error("expected blog to become a draft")
	}
	if updated.Title != blog.Title || updated.Summary != blog.Summary {
		t.Error("untouched fields must keep their stored values")
	}

	if _, err := svc.Update(ctx, drOwner, blog.ID, UpdateBlogInput{IsDraft: &published}); err != nil {
		t.Fatalf("republish Update() error = %v", err)
	}
}

func TestBlogUpdate_RevalidatesSuppliedFields(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	blog, err := svc.Create(ctx, drOwner, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	empty := "  "
	if _, err := svc.Update(ctx, drOwner, blog.ID, UpdateBlogInput{Title: &empty}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank title Update() = %v, want ErrValidation", err)
	}

	long := strings.TrimSpace(strings.Repeat("word ", model.MaxSummaryWords+1))
	if _, err := svc.Update(ctx, drOwner, blog.ID, UpdateBlogInput{Summary: &long}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("oversized summary Update() = %v, want ErrValidation", err)
	}
}

func TestBlogDelete_OwnerOnly(t *testing.T) {
	svc, repo := newTestBlogService()
	ctx := context.Background()

	blog, err := svc.Create(ctx, drOwner, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Delete(ctx, drOther, blog.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("other doctor Delete() = %v, want ErrForbidden", err)
	}

	deleted, err := svc.Delete(ctx, drOwner, blog.ID)
	if err != nil {
		t.Fatalf("owner Delete() error = %v", err)
	}
	if deleted.ID != blog.ID {
		t.Errorf("Delete() returned blog %q, want %q", deleted.ID, blog.ID)
	}
	if len(repo.blogs) != 0 {
		t.Error("expected blog to be removed from the repository")
	}
}

func TestBlogAttachImage(t *testing.T) {
	svc, _ := newTestBlogService()
	ctx := context.Background()

	blog, err := svc.Create(ctx, drOwner, validCreate())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.AttachImage(ctx, blog.ID, "/uploads/blogs/cover.png")
	if err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}
	if updated.ImageURL != "/uploads/blogs/cover.png" {
		t.Errorf("ImageURL = %q", updated.ImageURL)
	}
}
