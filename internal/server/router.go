// Package server assembles the HTTP router.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ayush/travel-journal/backend/internal/auth"
	"github.com/ayush/travel-journal/backend/internal/journal"
	"github.com/ayush/travel-journal/backend/internal/middleware"
	"github.com/ayush/travel-journal/backend/internal/respond"
)

// Deps are the handlers and collaborators the router is built from.
type Deps struct {
	Auth        *auth.Handler
	Journals    *journal.Handler
	Sessions    auth.Sessions
	Log         *zap.Logger
	CORSOrigins []string
	// Ping checks the database for /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// NewRouter wires every route under /api plus /health.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", d.Auth.Register)
		r.Post("/login", d.Auth.Login)
		r.Post("/logout", d.Auth.Logout)
		if d.Sessions != nil {
			r.With(middleware.RequireAuth(d.Sessions)).Get("/me", d.Auth.Me)
		} else {
			r.Get("/me", d.Auth.Me)
		}
		r.Get("/user/{id}", d.Auth.GetUser)
		r.Put("/user/{id}", d.Auth.UpdateUser)
	})

	r.Route("/api/journals", func(r chi.Router) {
		r.Post("/", d.Journals.Create)
		r.Get("/", d.Journals.List)
		r.Get("/{id}", d.Journals.Get)
		r.Put("/{id}", d.Journals.Update)
		r.Delete("/{id}", d.Journals.Delete)
		r.Get("/{id}/summaries", d.Journals.Summaries)
		r.Put("/{id}/cover", d.Journals.UploadCover)
		r.Get("/{id}/cover", d.Journals.DownloadCover)
	})

	r.Post("/api/summarize", d.Journals.Summarize)

	return r
}
