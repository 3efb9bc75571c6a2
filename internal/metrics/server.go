// Package metrics provides a simple Prometheus-compatible metrics endpoint
// for the job master.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds runtime counters for the job master. The job master
// increments JobsAdmitted, JobsDeniedCapacity, WorkerRegistrations,
// WorkerEvictions, HeartbeatsReceived and LostWorkerSweeps. No component
// increments JobsPurged, JobsCompleted, JobsFailed, JobsCanceled or the
// Tasks* counters, so those are exported but always read 0.
type Metrics struct {
	JobsAdmitted        atomic.Int64
	JobsDeniedCapacity  atomic.Int64
	JobsPurged          atomic.Int64
	JobsCompleted       atomic.Int64
	JobsFailed          atomic.Int64
	JobsCanceled        atomic.Int64
	TasksStarted        atomic.Int64
	TasksCompleted      atomic.Int64
	TasksFailed         atomic.Int64
	TasksCanceled       atomic.Int64
	WorkerRegistrations atomic.Int64
	WorkerEvictions     atomic.Int64
	HeartbeatsReceived  atomic.Int64
	LostWorkerSweeps    atomic.Int64

	startTime time.Time
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Global returns the global metrics instance.
func Global() *Metrics {
	globalOnce.Do(func() {
		global = &Metrics{startTime: time.Now()}
	})
	return global
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
		}

		fmt.Fprintf(w, "# HELP jobmaster_uptime_seconds Time since the job master started\n")
		fmt.Fprintf(w, "# TYPE jobmaster_uptime_seconds gauge\n")
		fmt.Fprintf(w, "jobmaster_uptime_seconds %.2f\n\n", time.Since(m.startTime).Seconds())

		counter("jobmaster_jobs_admitted_total", "Total plans admitted", m.JobsAdmitted.Load())
		counter("jobmaster_jobs_denied_capacity_total", "Total plans denied for capacity", m.JobsDeniedCapacity.Load())
		counter("jobmaster_jobs_purged_total", "Total finished plans purged", m.JobsPurged.Load())
		counter("jobmaster_jobs_completed_total", "Total plans that rolled up to COMPLETED", m.JobsCompleted.Load())
		counter("jobmaster_jobs_failed_total", "Total plans that rolled up to FAILED", m.JobsFailed.Load())
		counter("jobmaster_jobs_canceled_total", "Total plans that rolled up to CANCELED", m.JobsCanceled.Load())
		counter("jobmaster_tasks_started_total", "Total tasks started", m.TasksStarted.Load())
		counter("jobmaster_tasks_completed_total", "Total tasks completed", m.TasksCompleted.Load())
		counter("jobmaster_tasks_failed_total", "Total tasks failed", m.TasksFailed.Load())
		counter("jobmaster_tasks_canceled_total", "Total tasks canceled", m.TasksCanceled.Load())
		counter("jobmaster_worker_registrations_total", "Total worker registrations", m.WorkerRegistrations.Load())
		counter("jobmaster_worker_evictions_total", "Total workers evicted (re-registration or timeout)", m.WorkerEvictions.Load())
		counter("jobmaster_heartbeats_received_total", "Total worker heartbeats received", m.HeartbeatsReceived.Load())
		counter("jobmaster_lost_worker_sweeps_total", "Total lost-worker detector ticks", m.LostWorkerSweeps.Load())
	}
}

// Server wraps the metrics HTTP server.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server on the given listen address.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", Global().Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

// Start starts the metrics server in the background.
func (s *Server) Start() error {
	go s.srv.ListenAndServe()
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
