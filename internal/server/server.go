// Package server wires the database, services, handlers, and routes
// into a running HTTP server. It is the composition root: every
// dependency in the process is assembled in New and setupRoutes.
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

	"github.com/sakif/moot/internal/auth"
	"github.com/sakif/moot/internal/config"
	"github.com/sakif/moot/internal/handler"
	"github.com/sakif/moot/internal/ids"
	"github.com/sakif/moot/internal/middleware"
	sqliteRepo "github.com/sakif/moot/internal/repository/sqlite"
	"github.com/sakif/moot/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and assembles the full dependency chain:
// repositories, the ID generator, the session resolver, services, and
// handlers. Handlers never touch the database directly and services
// never touch HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
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
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	resolver := auth.NewResolver(s.db.Sessions(), s.db.Users(), s.logger)
	generator := ids.NewWithTag(s.config.GeneratorTag)

	postService := service.NewPostService(s.db.Posts(), generator, s.logger)
	userService := service.NewUserService(s.db.Users(), s.logger)

	discord := auth.NewDiscordProvider(
		s.config.DiscordClientID,
		s.config.DiscordClientSecret,
		s.config.CallbackURL(),
	)

	authHandler := handler.NewAuthHandler(discord, resolver, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	// Session resolution runs on every request. Routes below decide how
	// much of the resulting state they demand.
	s.router.Use(auth.Middleware(resolver, s.logger))

	s.router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"pong"}`))
	})

	s.router.Get("/auth/login", authHandler.HandleLogin)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/callback", authHandler.HandleCallback)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)

			r.Get("/me", authHandler.HandleMe)
			r.Get("/posts", postHandler.HandleListRecent)
			r.Get("/posts/{id}", postHandler.HandleGetByID)
			r.Get("/users/{id}", userHandler.HandleGetUser)
			r.Get("/users/{id}/posts", postHandler.HandleListByAuthor)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireActive)
				r.Post("/posts", postHandler.HandleCreate)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Post("/users/{id}/ban", userHandler.HandleBan)
				r.Post("/users/{id}/unban", userHandler.HandleUnban)
				r.Post("/users/{id}/admin", userHandler.HandleSetAdmin)
				r.Post("/posts/{id}/hide", postHandler.HandleHide)
			})
		})
	})
}

// Start runs the HTTP server until a shutdown signal arrives, then
// drains in-flight requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
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
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.DBPath),
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
