package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/canvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/event"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/journal"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// nodeView is a node plus its output rendered for the output box.
type nodeView struct {
	Node   graph.Node `json:"node"`
	Output string     `json:"output"`
}

// dropRequest is a drop plus the canvas geometry needed to project it.
type dropRequest struct {
	canvas.Drop
	Bounds   canvas.Rect     `json:"bounds"`
	Viewport canvas.Viewport `json:"viewport"`
}

// historyResponse reports an undo or redo and the resulting graph.
type historyResponse struct {
	Applied bool           `json:"applied"`
	Graph   graph.Snapshot `json:"graph"`
}

// eventResponse identifies a dispatched event.
type eventResponse struct {
	ID    string      `json:"id"`
	Topic event.Topic `json:"topic"`
	Time  time.Time   `json:"time"`
}

type nodeRequest struct {
	NodeID string `json:"nodeId"`
}

type updateConfigRequest struct {
	NodeID string         `json:"nodeId"`
	Patch  map[string]any `json:"patch"`
}

type analysisRequest struct {
	NodeID string `json:"nodeId"`
	Op     string `json:"op"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToolbar(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Toolbar())
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Graph())
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	n, ok := s.session.Node(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("node %s: %w", id, graph.ErrNodeNotFound))
		return
	}
	view := nodeView{Node: n}
	if n.Config.Output != nil {
		view.Output = graph.FormatResult(n.Config.Output.Result)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var item canvas.ToolbarItem
	if !decode(w, r, &item) {
		return
	}
	n, err := s.session.AddNode(r.Context(), item)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if !decode(w, r, &req) {
		return
	}
	proj := canvas.ViewportProjector{Bounds: req.Bounds, Viewport: req.Viewport}
	n, ok, err := s.session.HandleDrop(r.Context(), req.Drop, proj)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleNodeChanges(w http.ResponseWriter, r *http.Request) {
	var changes []canvas.NodeChange
	if !decode(w, r, &changes) {
		return
	}
	s.session.ApplyNodeChanges(r.Context(), changes)
	writeJSON(w, http.StatusOK, s.session.Graph())
}

func (s *Server) handleEdgeChanges(w http.ResponseWriter, r *http.Request) {
	var changes []canvas.EdgeChange
	if !decode(w, r, &changes) {
		return
	}
	s.session.ApplyEdgeChanges(r.Context(), changes)
	writeJSON(w, http.StatusOK, s.session.Graph())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var c canvas.Connection
	if !decode(w, r, &c) {
		return
	}
	e, err := s.session.Connect(r.Context(), c)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	deleted := s.session.DeleteSelected(r.Context())
	writeJSON(w, http.StatusOK, historyResponse{Applied: deleted, Graph: s.session.Graph()})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	applied := s.session.Undo(r.Context())
	writeJSON(w, http.StatusOK, historyResponse{Applied: applied, Graph: s.session.Graph()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	applied := s.session.Redo(r.Context())
	writeJSON(w, http.StatusOK, historyResponse{Applied: applied, Graph: s.session.Graph()})
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var k canvas.KeyEvent
	if !decode(w, r, &k) {
		return
	}
	action := s.session.HandleKey(r.Context(), k)
	writeJSON(w, http.StatusOK, map[string]canvas.KeyAction{"action": action})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	nodeID := r.FormValue("nodeId")
	if nodeID == "" {
		writeError(w, http.StatusBadRequest, errors.New("nodeId is required"))
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload file: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload file: %w", err))
		return
	}
	s.dispatch(w, r, event.Upload{NodeID: nodeID, File: event.NewFile(header.Filename, data)})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, event.UpdateConfig{NodeID: req.NodeID, Patch: req.Patch})
}

func (s *Server) handleRunFromStart(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, event.RunFromStart{})
}

func (s *Server) handleRunNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, event.RunNode{NodeID: req.NodeID})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, event.Analysis{NodeID: req.NodeID, Op: req.Op})
}

func (s *Server) handleLog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Log())
}

func (s *Server) handleRuntime(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Runtime())
}

func (s *Server) handleRuns(w http.ResponseWriter, _ *http.Request) {
	runs, err := s.session.Runs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []journal.RunInfo{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	steps, err := s.session.Run(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if steps == nil {
		steps = []journal.Step{}
	}
	writeJSON(w, http.StatusOK, steps)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var rm metricdata.ResourceMetrics
	if err := s.metrics.Collect(r.Context(), &rm); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

// dispatch publishes p and reports the event. Handler failures surface in
// the output log and node status, not in the response.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, p event.Payload) {
	evt, err := s.session.Dispatch(r.Context(), p)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, eventResponse{ID: evt.ID, Topic: evt.Topic, Time: evt.Time})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, event.ErrBusClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
