package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"volcap/internal/api"
	"volcap/internal/config"
	"volcap/internal/engine"
	"volcap/internal/logging"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

// ceilingRequest is the body for ceiling update endpoints.
type ceilingRequest struct {
	MaxVolume float64 `json:"maxVolume"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/devices", authMiddleware(token, srv.handleDevices))
	mux.HandleFunc("/api/devices/", authMiddleware(token, srv.handleDeviceCeiling))
	mux.HandleFunc("/api/global-max", authMiddleware(token, srv.handleGlobalMax))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound listen address, empty before start.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	payload := api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		SettingsDBPath: status.SettingsDBPath,
		LockFilePath:   status.LockFilePath,
		Enforcement:    api.FromEngineStatus(status.Enforcement),
		Dependencies:   deps,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	views := s.daemon.Devices()
	if includeAll(r) {
		views = s.daemon.KnownDevices()
	}
	s.writeJSON(w, http.StatusOK, api.DeviceListResponse{
		Devices:  api.FromDeviceViews(views),
		Revision: s.daemon.Revision(),
	})
}

func (s *apiServer) handleGlobalMax(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]float64{"maxVolume": s.daemon.GlobalMaxVolume()})
	case http.MethodPut:
		var req ceilingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		views, err := s.daemon.SetGlobalMaxVolume(r.Context(), req.MaxVolume)
		if err != nil {
			s.writeCeilingError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.DeviceListResponse{
			Devices:  api.FromDeviceViews(views),
			Revision: s.daemon.Revision(),
		})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleDeviceCeiling(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/devices/")
	id, suffix, ok := strings.Cut(rest, "/")
	if !ok || suffix != "max" || id == "" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req ceilingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := s.daemon.SetDeviceMaxVolume(r.Context(), id, req.MaxVolume)
	if err != nil {
		s.writeCeilingError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromDeviceView(view))
}

func (s *apiServer) writeCeilingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidVolume):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Warn("encode api response failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api")
}

func includeAll(r *http.Request) bool {
	value := r.URL.Query().Get("all")
	return value == "1" || strings.EqualFold(value, "true")
}
