// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/uptime-watcher/internal/metrics"
	"github.com/smartdevs17/uptime-watcher/internal/monitor"
	"github.com/smartdevs17/uptime-watcher/internal/notification"
	"github.com/smartdevs17/uptime-watcher/internal/report"
	"github.com/smartdevs17/uptime-watcher/internal/storage"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int           `json:"port"`
	Host          string        `json:"host"`
	ReadTimeout   time.Duration `json:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout"`
	EnableMetrics bool          `json:"enable_metrics"`
	EnableHealth  bool          `json:"enable_health"`
}

// HTTPServer exposes the watcher's read-only status surface: current
// monitor state, uptime stats computed from the log trail, incident
// history and Prometheus metrics.
type HTTPServer struct {
	config         *ServerConfig
	server         *http.Server
	router         *mux.Router
	monitor        *monitor.Monitor
	reporter       *report.Reporter
	storage        storage.Storage // nil when the incident store is disabled
	notifier       notification.Notifier
	metricsManager *metrics.Manager
	logger         *logrus.Logger
}

// NewHTTPServer creates a new HTTP server. storage may be nil.
func NewHTTPServer(
	config *ServerConfig,
	mon *monitor.Monitor,
	reporter *report.Reporter,
	incidentStore storage.Storage,
	notifier notification.Notifier,
	metricsManager *metrics.Manager,
) *HTTPServer {
	s := &HTTPServer{
		config:         config,
		monitor:        mon,
		reporter:       reporter,
		storage:        incidentStore,
		notifier:       notifier,
		metricsManager: metricsManager,
		logger:         utils.GetLogger(),
	}

	s.setupRouter()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
	}

	if s.config.EnableMetrics {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	api.HandleFunc("/status", s.statusHandler).Methods("GET")
	api.HandleFunc("/uptime", s.uptimeHandler).Methods("GET")
	api.HandleFunc("/incidents", s.incidentsHandler).Methods("GET")
	api.HandleFunc("/notifications/stats", s.notificationStatsHandler).Methods("GET")
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.EnableMetrics,
	}).Info("Starting HTTP server")

	if s.metricsManager != nil {
		s.metricsManager.UpdateSystemMetrics()
		go s.systemMetricsUpdater()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithField("error", err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Catch immediate binding errors
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// systemMetricsUpdater refreshes process metrics periodically
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.metricsManager.UpdateSystemMetrics()
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handlers

// healthHandler reports liveness
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// statusHandler returns the current monitor state snapshot
func (s *HTTPServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.monitor.GetStatus())
}

// uptimeHandler computes availability stats from the log trail
func (s *HTTPServer) uptimeHandler(w http.ResponseWriter, r *http.Request) {
	status := s.monitor.GetStatus()

	stats, err := s.reporter.Report(status.Monitor)
	if err != nil {
		if utils.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// incidentsHandler lists recent incidents from the incident store
func (s *HTTPServer) incidentsHandler(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(w, http.StatusNotImplemented,
			utils.NewAppError(utils.ErrCodeConfiguration, "Incident store is disabled"))
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	status := s.monitor.GetStatus()
	incidents, err := s.storage.ListIncidents(r.Context(), status.Monitor, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"monitor":   status.Monitor,
		"incidents": incidents,
	})
}

// notificationStatsHandler returns notification delivery statistics
func (s *HTTPServer) notificationStatsHandler(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		s.writeError(w, http.StatusNotImplemented,
			utils.NewAppError(utils.ErrCodeConfiguration, "Notifications are disabled"))
		return
	}
	s.writeJSON(w, http.StatusOK, s.notifier.GetStats())
}

// Response helpers

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithField("error", err).Error("Failed to encode response")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}
