// Package admin serves a small HTTP API for inspecting a running simulator.
package admin

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/jkaberg/ebike-sim/internal/config"
	"github.com/jkaberg/ebike-sim/internal/metrics"
	"github.com/jkaberg/ebike-sim/internal/protocol"
	"github.com/jkaberg/ebike-sim/internal/vehicle"
)

// HealthFunc reports whether the simulator is connected to its broker.
type HealthFunc func() bool

type handler struct {
	store  *vehicle.Store
	health HealthFunc
	logger *logrus.Logger
}

// NewRouter builds the admin routes. m and health may be nil.
func NewRouter(store *vehicle.Store, m *metrics.Metrics, health HealthFunc, logger *logrus.Logger) http.Handler {
	h := &handler{store: store, health: health, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", m.Handler())
	r.Route("/vehicles", func(r chi.Router) {
		r.Get("/", h.listVehicles)
		r.Get("/{vehicleID}/status", h.vehicleStatus)
	})
	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("Admin request")
	})
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	connected := h.health == nil || h.health()
	status := http.StatusOK
	if !connected {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":         http.StatusText(status),
		"mqtt_connected": connected,
		"vehicles":       h.store.Len(),
	})
}

func (h *handler) listVehicles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": h.store.IDs()})
}

// StatusResponse is the body of GET /vehicles/{id}/status.
type StatusResponse struct {
	VehicleID string         `json:"vehicle_id"`
	Status    map[string]int `json:"status"`
	Payload   string         `json:"payload"` // hex of the status message
	// FieldErrors lists slots left out of Payload, keyed by field key.
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func (h *handler) vehicleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vehicleID")
	s, ok := h.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown vehicle " + id})
		return
	}

	payload, errs := protocol.StatusSchema.Encode(s.Values())
	resp := StatusResponse{
		VehicleID: id,
		Status:    s.Map(),
		Payload:   hex.EncodeToString(payload),
	}
	if len(errs) > 0 {
		resp.FieldErrors = make(map[string]string, len(errs))
		for _, fe := range errs {
			resp.FieldErrors[fe.Key] = fe.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Server runs the admin API until its context ends.
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

func NewServer(addr string, handler http.Handler, logger *logrus.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Run serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("Admin server listening")
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.AdminShutdownWait)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Debug("Admin server stopped")
	return nil
}

// ListenAndRun listens on the configured address and calls Run.
func (s *Server) ListenAndRun(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Run(ctx, ln)
}
