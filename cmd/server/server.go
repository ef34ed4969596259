package server

import (
	"context"
	"net/http"
	"time"

	"example.com/retrowall/internal/composer"
	"example.com/retrowall/internal/feed"
	"example.com/retrowall/internal/logger"
	"example.com/retrowall/internal/middleware"
	"example.com/retrowall/internal/profile"

	"github.com/go-chi/chi/v5"
)

// Server ties the wall's components to the HTTP surface.
type Server struct {
	composer  *composer.Composer
	feed      *feed.Store
	profile   *profile.Store
	name      *profile.FieldEditor
	bio       *profile.FieldEditor
	avatar    *profile.AvatarEditor
	maxUpload int64
}

var logg = logger.New()

// Options carries the wired components and surface settings for Run.
type Options struct {
	Composer  *composer.Composer
	Feed      *feed.Store
	Profile   *profile.Store
	Name      *profile.FieldEditor
	Bio       *profile.FieldEditor
	Avatar    *profile.AvatarEditor
	MaxUpload int64

	Addr             string
	SessionSecret    string
	DefaultProfileID string
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func Run(ctx context.Context, opts Options) {
	s := &Server{
		composer:  opts.Composer,
		feed:      opts.Feed,
		profile:   opts.Profile,
		name:      opts.Name,
		bio:       opts.Bio,
		avatar:    opts.Avatar,
		maxUpload: opts.MaxUpload,
	}

	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(opts.SessionSecret, opts.DefaultProfileID),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start server in a goroutine ---
	go func() {
		logg.Info("server", "Starting HTTP server on "+opts.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error("server", "Server stopped unexpectedly", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	logg.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
	} else {
		logg.Info("server", "Server stopped gracefully")
	}
}

// routes builds the API router. Read endpoints are public; everything that
// mutates goes through session resolution.
func (s *Server) routes(secret, defaultProfileID string) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", s.getProfileHandler)
		r.Get("/feed", s.getFeedHandler)
		r.Get("/composer", s.getComposerHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(secret, defaultProfileID))

			r.Post("/feed/reload", s.reloadFeedHandler)

			r.Put("/profile/name", s.updateNameHandler)
			r.Put("/profile/bio", s.updateBioHandler)
			r.Post("/profile/avatar", s.updateAvatarHandler)

			r.Put("/composer/body", s.setBodyHandler)
			r.Post("/composer/images", s.attachImagesHandler)
			r.Delete("/composer/images/{index}", s.removeImageHandler)
			r.Post("/composer/submit", s.submitHandler)
		})
	})

	return r
}
