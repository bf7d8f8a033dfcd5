package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chanbridge/internal/constants"
	"chanbridge/internal/metrics"
	"chanbridge/internal/middleware"
	"chanbridge/internal/models"
	"chanbridge/internal/versioning"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// BridgeLister is the registry surface the operational server reads.
type BridgeLister interface {
	List() []models.BridgeConfig
}

// Server exposes the operational HTTP endpoints: liveness, a read-only
// snapshot of the configured bridges, relay metrics, and build identity.
type Server struct {
	router   *mux.Router
	logger   *logrus.Logger
	registry BridgeLister
	stats    *metrics.Registry
	build    versioning.Info
	server   *http.Server
}

func NewServer(registry BridgeLister, stats *metrics.Registry, build versioning.Info, logger *logrus.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		registry: registry,
		stats:    stats,
		build:    build,
	}

	s.router.Use(middleware.RequestLogging(logger, stats))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/bridges", s.handleBridges()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)
	s.router.HandleFunc("/version", s.handleVersion()).Methods(http.MethodGet)
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  constants.DefaultServerReadTimeoutSec * time.Second,
		WriteTimeout: constants.DefaultServerWriteTimeoutSec * time.Second,
		IdleTimeout:  constants.DefaultServerIdleTimeoutSec * time.Second,
	}

	s.logger.Infof("Starting server on port %d", port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

func (s *Server) handleBridges() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bridges := s.registry.List()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(bridges); err != nil {
			s.logger.WithError(err).Error("Failed to encode bridge list")
		}
	}
}

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.stats.Snapshot()
		// Computed at read time; the registry does not push gauge updates.
		snap.Gauges[metrics.BridgesConfigured] = float64(len(s.registry.List()))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			s.logger.WithError(err).Error("Failed to encode metrics")
		}
	}
}

func (s *Server) handleVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.build); err != nil {
			s.logger.WithError(err).Error("Failed to encode version info")
		}
	}
}
