// Package server exposes parsed motions and resolved poses over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/binzume/bvhkit/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API for browser viewers.
type Server struct {
	router chi.Router
	store  *MotionStore
	log    *slog.Logger
	cfg    config.Config
}

func NewServer(store *MotionStore, log *slog.Logger, cfg config.Config) *Server {
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = config.Default().Server.MaxUploadBytes
	}
	s := &Server{
		store: store,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", s.handleParse)

		r.Get("/motions", s.handleListMotions)
		r.Route("/motions/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetMotion)
			r.Get("/frames/{frame}", s.handleGetFrame)
			r.Get("/frames/{frame}/preview", s.handlePreview)
			r.Get("/plot", s.handlePlot)
			r.Get("/gltf", s.handleGLTF)
			r.Get("/csv", s.handleCSV)
		})
	})

	r.Get("/files/{name}", s.handleFile)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
