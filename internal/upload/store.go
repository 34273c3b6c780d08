// Package upload implements the media store: uploaded images saved on disk
// under a type-partitioned namespace (profiles, blogs) and served back via
// /uploads.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/careblog/careblog/internal/apperror"
)

// Kind partitions the upload namespace and picks the size cap.
type Kind string

const (
	KindProfiles Kind = "profiles"
	KindBlogs    Kind = "blogs"
)

// ParseKind maps the request's type field onto a Kind, defaulting to
// profiles the way the original upload endpoint does.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindProfiles):
		return KindProfiles, nil
	case string(KindBlogs):
		return KindBlogs, nil
	default:
		return "", apperror.ValidationFailed("type", "type must be profiles or blogs")
	}
}

// MaxBytes is the size cap for this kind: 2 MiB for profile pictures,
// 8 MiB for blog images.
func (k Kind) MaxBytes() int64 {
	if k == KindProfiles {
		return 2 << 20
	}
	return 8 << 20
}

// allowedTypes is the sniffed-MIME allowlist. The client-declared
// Content-Type is never trusted.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// File describes a stored upload. URL is the server-relative path that gets
// persisted on the owning record and absolutized at the response boundary.
type File struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
	URL          string `json:"url"`
}

// Store writes uploads beneath a single root directory.
type Store struct {
	root string
}

// NewStore creates the store, making the root directory if needed. Kind
// subdirectories are created lazily on first save.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory uploads are stored under, for static serving.
func (s *Store) Root() string {
	return s.root
}

// Save sniffs, size-checks, and writes one upload. The stored name is a
// fresh xid plus the original extension, so names never collide and client
// input never reaches the filesystem.
func (s *Store) Save(kind Kind, originalName string, r io.Reader) (*File, error) {
	// Sniff the real content type from the first 512 bytes.
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("upload: reading file: %w", err)
	}
	head = head[:n]

	mimeType := http.DetectContentType(head)
	if !allowedTypes[mimeType] {
		return nil, apperror.ValidationFailed("profileImage",
			"Unsupported file type. Allowed: jpeg, png, webp")
	}

	dir := filepath.Join(s.root, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating %s: %w", dir, err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".png"
	}
	filename := xid.New().String() + ext
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("upload: creating file: %w", err)
	}

	// Copy at most one byte over the cap so an oversized upload is
	// detectable without buffering the whole stream.
	max := kind.MaxBytes()
	written, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), io.LimitReader(r, max-int64(len(head))+1)))
	closeErr := f.Close()

	switch {
	case err != nil:
		os.Remove(path)
		return nil, fmt.Errorf("upload: writing file: %w", err)
	case closeErr != nil:
		os.Remove(path)
		return nil, fmt.Errorf("upload: closing file: %w", closeErr)
	case written > max:
		os.Remove(path)
		return nil, apperror.ValidationFailed("profileImage",
			fmt.Sprintf("File exceeds the %d MB limit", max>>20))
	}

	return &File{
		Filename:     filename,
		OriginalName: originalName,
		Size:         written,
		MimeType:     mimeType,
		URL:          fmt.Sprintf("/uploads/%s/%s", kind, filename),
	}, nil
}
