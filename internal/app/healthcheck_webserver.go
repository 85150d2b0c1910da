package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// moduleStatus is one row of the /modules report.
type moduleStatus struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	ResourcePot string `json:"resource_pot,omitempty"`
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// modulesHandler reports the state of every registered module.
func (a *App) modulesHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Modules endpoint hit.", "remote_addr", r.RemoteAddr)
	ids := a.system.Modules()
	report := make([]moduleStatus, 0, len(ids))
	for _, id := range ids {
		pot, _ := a.system.ModuleResourcePot(id)
		report = append(report, moduleStatus{ID: id, State: a.system.ModuleState(id).String(), ResourcePot: pot})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		a.logger.Error("Failed to encode modules report.", "error", err)
	}
}

func (a *App) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/modules", a.modulesHandler)
	return mux
}

// startHealthcheckServer runs the health check HTTP server until the returned
// stop function is called.
func (a *App) startHealthcheckServer(port int) (stop func()) {
	a.logger.Debug("Configuring health check server.")
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: a.handler()}

	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health check server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("Health check server shutdown failed", "error", err)
		}
	}
}
