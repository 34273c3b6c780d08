// Package server wires the dependency graph and the route table. It is the
// composition root: main.go builds a Config, and everything else (database,
// media store, services, handlers, middleware) is assembled here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/careblog/careblog/internal/auth"
	"github.com/careblog/careblog/internal/config"
	"github.com/careblog/careblog/internal/handler"
	"github.com/careblog/careblog/internal/middleware"
	sqliteRepo "github.com/careblog/careblog/internal/repository/sqlite"
	"github.com/careblog/careblog/internal/service"
	"github.com/careblog/careblog/internal/upload"
)

// loginRateLimit caps login attempts per IP per minute.
const loginRateLimit = 5

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and media store and assembles the full handler
// graph. The returned server is ready for Start.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes builds the middleware chain and the route table.
//
// Route structure:
//
//	GET    /health             → liveness probe
//	POST   /auth/signup        → register (multipart or JSON)
//	POST   /auth/login         → authenticate (rate limited)
//	GET    /auth/signups       → public account listing
//	GET    /auth/me            → current user            [auth]
//	GET    /blogs              → public feed, ?category= filter
//	GET    /blogs/mine         → own posts incl. drafts  [auth, doctor]
//	GET    /blogs/{id}         → single post             [optional auth]
//	POST   /blogs              → create                  [auth, doctor]
//	PUT    /blogs/{id}         → partial update          [auth, owner]
//	DELETE /blogs/{id}         → delete                  [auth, owner]
//	POST   /upload             → media upload
//	GET    /uploads/*          → stored media
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	store, err := upload.NewStore(s.config.UploadDir)
	if err != nil {
		return fmt.Errorf("creating upload store: %w", err)
	}

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	blogService := service.NewBlogService(s.db.Blogs(), s.logger)

	origin := s.config.PublicOrigin
	authHandler := handler.NewAuthHandler(authService, store, origin, s.logger)
	blogHandler := handler.NewBlogHandler(blogService, origin, s.logger)
	uploadHandler := handler.NewUploadHandler(store, authService, blogService, origin, s.logger)

	if !s.config.Production {
		handler.EnableDebugErrors()
	}

	// Global middleware, in order: request IDs for tracing, real client
	// IPs from proxy headers, panic recovery, then our request logger.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})

	s.router.Route("/auth", func(r chi.Router) {
		loginLimiter := middleware.NewRateLimiter(loginRateLimit, time.Minute)

		r.Post("/signup", authHandler.HandleSignup)
		r.With(loginLimiter.Limit).Post("/login", authHandler.HandleLogin)
		r.Get("/signups", authHandler.HandleSignups)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)
	})

	s.router.Route("/blogs", func(r chi.Router) {
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

	s.router.Post("/upload", uploadHandler.HandleUpload)

	// Stored media is served straight off the filesystem.
	fileServer := http.FileServer(http.Dir(store.Root()))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("uploads", s.config.UploadDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
