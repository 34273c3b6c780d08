package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/careblog/careblog/internal/auth"
	"github.com/careblog/careblog/internal/repository/sqlite"
	"github.com/careblog/careblog/internal/service"
	"github.com/careblog/careblog/internal/upload"
)

const testSecret = "handler-test-secret-0123456789abcdef"

// testEnv is a fully wired API over an in-memory database, mirroring the
// production route table.
type testEnv struct {
	router *chi.Mux
	auth   *service.AuthService
	blogs  *service.BlogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	store, err := upload.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authService := service.NewAuthService(db.Users(), tokens, passwords, logger)
	blogService := service.NewBlogService(db.Blogs(), logger)

	authHandler := NewAuthHandler(authService, store, "", logger)
	blogHandler := NewBlogHandler(blogService, "", logger)
	uploadHandler := NewUploadHandler(store, authService, blogService, "", logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/signups", authHandler.HandleSignups)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)
	})
	router.Route("/blogs", func(r chi.Router) {
		r.Get("/", blogHandler.HandleList)
		r.With(requireAuth).Get("/mine", blogHandler.HandleListMine)
		r.With(optionalAuth).Get("/{id}", blogHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", blogHandler.HandleCreate)
			r.Put("/{id}", blogHandler.HandleUpdate)
			r.Delete("/{id}", blogHandler.HandleDelete)
		})
	})
	router.Post("/upload", uploadHandler.HandleUpload)

	return &testEnv{router: router, auth: authService, blogs: blogService}
}

// signup registers an account directly through the service and returns its
// issued token alongside the record.
func (e *testEnv) signup(t *testing.T, email, role string) *service.AuthResult {
	t.Helper()
	res, err := e.auth.Signup(context.Background(), service.SignupInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "secret1",
		UserType:  role,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return res
}

// do runs one request through the router and returns the recorder.
func (e *testEnv) do(method, target, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope is the decoded response body. Exactly one of Data/User is set
// depending on the endpoint.
type envelope struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
	User  json.RawMessage `json:"user"`
	Token string          `json:"token"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return env
}

// blogJSON is the wire shape of a post, used for assertions.
type blogJSON struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
	ImageURL string `json:"imageUrl"`
	IsDraft  bool   `json:"isDraft"`
	DoctorID string `json:"doctorId"`
	Doctor   *struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
	} `json:"doctor"`
}

func decodeBlog(t *testing.T, raw json.RawMessage) blogJSON {
	t.Helper()
	var b blogJSON
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatalf("decoding blog %s: %v", raw, err)
	}
	return b
}
