package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"git.home.luguber.info/inful/hardtrack/internal/logfields"
	"git.home.luguber.info/inful/hardtrack/internal/report"
	"git.home.luguber.info/inful/hardtrack/internal/stats"
	"git.home.luguber.info/inful/hardtrack/internal/version"
)

func (d *Daemon) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.handleHealth)
	mux.HandleFunc("/status", d.handleStatus)
	mux.HandleFunc("/report", d.handleReport)
	mux.Handle("/metrics", d.metrics.Handler())
	return mux
}

// HealthStatus is the coarse state reported by /healthz.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
)

type healthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

type healthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Version   string        `json:"version"`
	Backend   string        `json:"backend"`
	Checks    []healthCheck `json:"checks"`
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    HealthHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(d.started).Round(time.Second).String(),
		Version:   version.Version,
		Backend:   d.store.BackendName(),
	}

	storage := healthCheck{Name: "storage", Status: HealthHealthy}
	probeCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := d.store.Probe(probeCtx); err != nil {
		storage.Status = HealthDegraded
		storage.Message = err.Error()
		resp.Status = HealthDegraded
	}
	resp.Checks = append(resp.Checks, storage)

	code := http.StatusOK
	if resp.Status != HealthHealthy {
		code = http.StatusServiceUnavailable
	}
	d.writeJSON(w, code, resp)
}

type statusResponse struct {
	stats.Summary
	Backend        string `json:"backend"`
	WorkoutDays    int    `json:"workoutDaysLogged"`
	WorkoutEntries int    `json:"workoutEntries"`
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	days, entries := stats.WorkoutTotals(d.wlog.All())
	d.writeJSON(w, http.StatusOK, statusResponse{
		Summary:        stats.Collect(d.state),
		Backend:        d.store.BackendName(),
		WorkoutDays:    days,
		WorkoutEntries: entries,
	})
}

func (d *Daemon) handleReport(w http.ResponseWriter, _ *http.Request) {
	page, err := report.HTML(report.Build(d.state, d.wlog, d.catalog, time.Now()))
	if err != nil {
		d.logger.Error("report rendering failed", logfields.Error(err))
		http.Error(w, "report rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// writeJSON buffers the encoding so a marshal failure never produces a
// half-written 200.
func (d *Daemon) writeJSON(w http.ResponseWriter, code int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		d.logger.Error("response encoding failed", logfields.Error(err))
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
