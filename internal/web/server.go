package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"attendance/internal/attendance"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Server exposes the attendance file over HTTP.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	handler    *AttendanceHandler
}

func NewServer(store *attendance.Store, host string, port int) *Server {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	s := &Server{
		router:  r,
		handler: NewAttendanceHandler(store),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/v1/health", HealthCheck)

	s.router.Route("/api/v1/attendance", func(r chi.Router) {
		r.Get("/", s.handler.List)
		r.Post("/", s.handler.Create)
		r.Delete("/", s.handler.Clear)
		r.Get("/sections", s.handler.Sections)
		r.Get("/export", s.handler.Export)
	})
}

func (s *Server) Start() error {
	log.Infof("starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
