// Package transport exposes the job master facade over a JSON-over-HTTP
// framing: the five client RPCs under /api/v1/jobs... and the two
// worker RPCs under /api/v1/workers..., each a single-request/
// single-response JSON body routed through net/http.ServeMux. No
// third-party HTTP router is used (see DESIGN.md).
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/guihaojin/alluxio/internal/jobmaster"
	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/wire"
	"github.com/guihaojin/alluxio/internal/workerset"
)

// Server wraps an http.Server exposing the job master's RPCs.
type Server struct {
	master *jobmaster.Master
	log    *logging.Logger
	srv    *http.Server
}

// NewServer builds a transport server over master, listening on addr.
func NewServer(addr string, master *jobmaster.Master, log *logging.Logger) *Server {
	s := &Server{master: master, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/jobs/run", s.handleRun)
	mux.HandleFunc("/api/v1/jobs/cancel", s.handleCancel)
	mux.HandleFunc("/api/v1/jobs/list", s.handleList)
	mux.HandleFunc("/api/v1/jobs/status", s.handleStatus)
	mux.HandleFunc("/api/v1/jobs/summary", s.handleSummary)
	mux.HandleFunc("/api/v1/workers/register", s.handleRegister)
	mux.HandleFunc("/api/v1/workers/heartbeat", s.handleHeartbeat)

	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Handler exposes the underlying http.Handler, useful for tests that
// want to drive the server through httptest.NewServer without binding a
// real port.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins serving in the background.
func (s *Server) Start() error {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("transport_listen_failed", nil, err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// --- request/response shapes ---

type runRequest struct {
	Name   string `json:"name"`
	Config []byte `json:"config,omitempty"`
}

type runResponse struct {
	ID int64 `json:"id"`
}

type cancelRequest struct {
	ID int64 `json:"id"`
}

type listResponse struct {
	IDs []int64 `json:"ids"`
}

type statusRequest struct {
	ID int64 `json:"id"`
}

type summaryResponse struct {
	Groups map[wire.PlanState][]wire.PlanStatus `json:"groups"`
}

type registerRequest struct {
	Host       string `json:"host"`
	RPCPort    int    `json:"rpc_port"`
	DataPort   int    `json:"data_port"`
	WebPort    int    `json:"web_port"`
	DomainSock string `json:"domain_sock,omitempty"`
}

type registerResponse struct {
	WorkerID int64 `json:"worker_id"`
}

type heartbeatRequest struct {
	WorkerID int64                         `json:"worker_id"`
	Reports  []jobmaster.HeartbeatReport   `json:"reports"`
}

type heartbeatResponse struct {
	Commands []wire.Command `json:"commands"`
}

type errorResponse struct {
	Code    wire.Code `json:"code"`
	Message string    `json:"message"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := s.master.Run(r.Context(), jobmaster.PlanConfig{Name: req.Name, Config: req.Config})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{ID: id})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.master.Cancel(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listResponse{IDs: s.master.List()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := s.master.GetStatus(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary := s.master.GetSummary()
	writeJSON(w, http.StatusOK, summaryResponse{Groups: summary.Groups})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	addr := workerset.Address{Host: req.Host, RPCPort: req.RPCPort, DataPort: req.DataPort, WebPort: req.WebPort, DomainSock: req.DomainSock}
	id := s.master.RegisterWorker(addr)
	writeJSON(w, http.StatusOK, registerResponse{WorkerID: id})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmds := s.master.WorkerHeartbeat(req.WorkerID, req.Reports)
	writeJSON(w, http.StatusOK, heartbeatResponse{Commands: cmds})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, wire.NewError(wire.CodeInvalidArgument, "read body: %v", err))
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, wire.NewError(wire.CodeInvalidArgument, "decode body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := wire.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case wire.CodeNotFound:
		status = http.StatusNotFound
	case wire.CodeCapacityExceeded:
		status = http.StatusConflict
	case wire.CodeUnknownPlan, wire.CodeInvalidArgument:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}
