package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/couchcryptid/geosight-viewer/internal/config"
	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/couchcryptid/geosight-viewer/internal/viewer"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the map pages, the per-session JSON API, the update stream,
// and the health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	sessions   *viewer.Registry
	cfg        *config.Config
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewServer creates the viewer HTTP server.
func NewServer(cfg *config.Config, sessions *viewer.Registry, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", sharedobs.LivenessHandler())
	router.Get("/readyz", sharedobs.ReadinessHandler(sessions))
	router.Handle("/metrics", promhttp.Handler())

	router.Get("/", s.handleWelcome)
	router.Get("/map", s.handleDefaultMap)
	router.Get("/map/{mode}", s.handleMap)
	router.Get("/api/earthquakes", s.handleLegacyEarthquakes)

	router.Route("/sessions/{sid}", func(r chi.Router) {
		r.Get("/markers", s.handleMarkers)
		r.Put("/mode/{mode}", s.handleSwitchMode)
		r.Post("/popups/{id}/open", s.handleOpenPopup)
		r.Post("/popups/{id}/close", s.handleClosePopup)
		r.Get("/ws", s.handleStream)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) defaultMode() domain.Mode {
	if m, err := domain.ParseMode(s.cfg.DefaultMode); err == nil {
		return m
	}
	return domain.ModeEarthquakes
}

// checkOrigin applies the CORS origin list to websocket upgrades.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.cfg.CORSOrigins, "*") {
		return true
	}
	return slices.Contains(s.cfg.CORSOrigins, origin)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
