package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/jsat-analyzer/pkg/codec"
	"github.com/ritzau/jsat-analyzer/pkg/diff"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/highlight"
	"github.com/ritzau/jsat-analyzer/pkg/logging"
	"github.com/ritzau/jsat-analyzer/pkg/metrics"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"github.com/ritzau/jsat-analyzer/pkg/pubsub"
	"github.com/ritzau/jsat-analyzer/pkg/session"
)

// Server exposes a session over a JSON API. Every API call holds the
// server mutex, since a session is single-threaded.
type Server struct {
	router    *mux.Router
	mu        sync.Mutex
	session   *session.Session
	publisher *pubsub.SSEPublisher
	metrics   *serverMetrics
}

// NewServer creates a server over the session built by newSession. The
// session is handed the server's publisher so changes stream to subscribers.
func NewServer(newSession func(pubsub.Publisher) *session.Session) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// graph: replay only the last event; it carries the full graph after imports
	ssePublisher.ConfigureTopic(pubsub.TopicGraph, pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	// status: buffer last 10 events, replay only last event to new subscribers
	ssePublisher.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false, // Only send current state
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.session = newSession(ssePublisher)
	s.metrics = newServerMetrics(
		func() float64 { return float64(s.view(func(ss *session.Session) int { return ss.Snapshot().NodeCount() })) },
		func() float64 { return float64(s.view(func(ss *session.Session) int { return ss.Snapshot().EdgeCount() })) },
	)
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler with logging and metrics middleware
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// Do runs fn with exclusive access to the session. Hosts use it for work
// outside HTTP, such as reloading a watched document.
func (s *Server) Do(fn func(*session.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.session)
}

func (s *Server) view(fn func(*session.Session) int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.session)
}

func (s *Server) setupRoutes() {
	s.router.Use(s.metrics.middleware)
	s.router.Handle("/metrics", s.metrics.handler()).Methods("GET")

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/graph", s.handleSubscribe(pubsub.TopicGraph)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/status", s.handleSubscribe(pubsub.TopicStatus)).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/graph", s.locked(s.handleGraph)).Methods("GET")
	api.HandleFunc("/document", s.locked(s.handleExport)).Methods("GET")
	api.HandleFunc("/document", s.locked(s.handleImport)).Methods("PUT")
	api.HandleFunc("/undo", s.locked(s.handleUndo)).Methods("POST")
	api.HandleFunc("/redo", s.locked(s.handleRedo)).Methods("POST")

	api.HandleFunc("/nodes", s.locked(s.handleAddNode)).Methods("POST")
	api.HandleFunc("/nodes/{id:[0-9]+}", s.locked(s.handleUpdateNode)).Methods("PATCH")
	api.HandleFunc("/nodes/{id:[0-9]+}", s.locked(s.handleRemoveNode)).Methods("DELETE")
	api.HandleFunc("/nodes/{id:[0-9]+}/metrics", s.locked(s.handleNodeMetrics)).Methods("GET")
	api.HandleFunc("/nodes/{id:[0-9]+}/agents", s.locked(s.handleSetAgents)).Methods("PUT")
	api.HandleFunc("/nodes/{id:[0-9]+}/agents/{name}", s.locked(s.handleToggleAgent)).Methods("POST")

	api.HandleFunc("/edges", s.locked(s.handleAddEdge)).Methods("POST")
	api.HandleFunc("/edges/{source:[0-9]+}/{target:[0-9]+}", s.locked(s.handleSetEdgeType)).Methods("PATCH")
	api.HandleFunc("/edges/{source:[0-9]+}/{target:[0-9]+}/flip", s.locked(s.handleFlipEdge)).Methods("POST")
	api.HandleFunc("/edges/{source:[0-9]+}/{target:[0-9]+}", s.locked(s.handleRemoveEdge)).Methods("DELETE")

	api.HandleFunc("/agents", s.locked(s.handleCreateAgent)).Methods("POST")
	api.HandleFunc("/agents/{name}", s.locked(s.handleUpdateAgent)).Methods("PATCH")
	api.HandleFunc("/agents/{name}", s.locked(s.handleDeleteAgent)).Methods("DELETE")

	api.HandleFunc("/metrics", s.locked(s.handleMetrics)).Methods("GET")
	api.HandleFunc("/metrics/{name}", s.locked(s.handleMetric)).Methods("GET")
	api.HandleFunc("/highlights", s.locked(s.handleHighlights)).Methods("GET")
	api.HandleFunc("/highlights/toggle", s.locked(s.handleToggleHighlight)).Methods("POST")

	api.HandleFunc("/architectures", s.locked(s.handleArchitectures)).Methods("GET")
	api.HandleFunc("/architectures", s.locked(s.handleSaveArchitecture)).Methods("POST")
	api.HandleFunc("/compare", s.locked(s.handleCompare)).Methods("GET")
	api.HandleFunc("/compare/node/{label}", s.locked(s.handleCompareNode)).Methods("GET")
}

// locked serializes access to the session
func (s *Server) locked(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(w, r)
	}
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, pubsub.ErrClosed) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, err.Error(), status)
			return
		}
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Initial comment so clients see the stream open before the first event
		fmt.Fprintf(w, ": connected\n\n")
		flusher, _ := w.(http.Flusher)
		if flusher != nil {
			flusher.Flush()
		}

		// The channel closes when the client goes away, the subscriber falls
		// behind, or the server shuts down
		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "error writing SSE event", "topic", topic, "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, diff.Compute(nil, s.session.Snapshot()))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.session.Export(w); err != nil {
		logging.ErrorContext(r.Context(), "export failed", "error", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	report, err := s.session.Import(r.Body)
	s.metrics.mutation("import", err)
	if err != nil {
		writeError(w, err)
		return
	}
	skipped := report.Skipped
	if skipped == nil {
		skipped = []codec.Skip{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"skipped": skipped})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"changed": s.session.Undo()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"changed": s.session.Redo()})
}

type addNodeRequest struct {
	Type     model.NodeType `json:"type"`
	Layer    model.Layer    `json:"layer"`
	Label    string         `json:"label"`
	Position model.Position `json:"position"`
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if !readJSON(w, r, &req) {
		return
	}
	t, err := model.ParseNodeType(string(req.Type))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	layer, _ := model.MatchLayer(string(req.Layer)) // Unknown layers fall back to the type default
	id := s.session.AddNode(t, layer, req.Label, req.Position)
	s.metrics.mutation("add node", nil)
	n, _ := s.session.Snapshot().Node(id)
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r, "id")
	if !ok {
		return
	}
	var attrs session.NodeAttrs
	if !readJSON(w, r, &attrs) {
		return
	}
	if attrs.Layer != nil {
		layer, known := model.MatchLayer(string(*attrs.Layer))
		if !known {
			writeError(w, fmt.Errorf("%w: unknown layer %q", errBadRequest, *attrs.Layer))
			return
		}
		attrs.Layer = &layer
	}
	err := s.session.SetNodeAttr(id, attrs)
	s.metrics.mutation("set node attributes", err)
	s.respondNode(w, id, err)
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r, "id")
	if !ok {
		return
	}
	if !s.session.RemoveNode(id) {
		writeError(w, fmt.Errorf("node %d: %w", id, graph.ErrNodeNotFound))
		return
	}
	s.metrics.mutation("remove node", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNodeMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r, "id")
	if !ok {
		return
	}
	stats, found := s.session.NodeMetrics(id)
	if !found {
		writeError(w, fmt.Errorf("node %d: %w", id, graph.ErrNodeNotFound))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSetAgents(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Agents []string `json:"agents"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	err := s.session.SetAgents(id, req.Agents)
	s.metrics.mutation("set agents", err)
	s.respondNode(w, id, err)
}

func (s *Server) handleToggleAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeID(w, r, "id")
	if !ok {
		return
	}
	err := s.session.AssignAgent(id, mux.Vars(r)["name"])
	s.metrics.mutation("assign agent", err)
	s.respondNode(w, id, err)
}

func (s *Server) respondNode(w http.ResponseWriter, id model.NodeID, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	n, _ := s.session.Snapshot().Node(id)
	writeJSON(w, http.StatusOK, n)
}

type edgeRequest struct {
	Source model.NodeID   `json:"source"`
	Target model.NodeID   `json:"target"`
	Type   model.EdgeType `json:"type"`
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if !readJSON(w, r, &req) {
		return
	}
	err := s.session.AddEdge(req.Source, req.Target, req.Type)
	s.metrics.mutation("add edge", err)
	s.respondEdge(w, http.StatusCreated, req.Source, req.Target, err)
}

func (s *Server) handleSetEdgeType(w http.ResponseWriter, r *http.Request) {
	u, v, ok := edgeIDs(w, r)
	if !ok {
		return
	}
	var req edgeRequest
	if !readJSON(w, r, &req) {
		return
	}
	err := s.session.SetEdgeType(u, v, req.Type)
	s.metrics.mutation("set edge type", err)
	s.respondEdge(w, http.StatusOK, u, v, err)
}

func (s *Server) handleFlipEdge(w http.ResponseWriter, r *http.Request) {
	u, v, ok := edgeIDs(w, r)
	if !ok {
		return
	}
	_, err := s.session.FlipEdgeType(u, v)
	s.metrics.mutation("flip edge type", err)
	s.respondEdge(w, http.StatusOK, u, v, err)
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	u, v, ok := edgeIDs(w, r)
	if !ok {
		return
	}
	if !s.session.RemoveEdge(u, v) {
		writeError(w, fmt.Errorf("edge %d->%d: %w", u, v, graph.ErrEdgeNotFound))
		return
	}
	s.metrics.mutation("remove edge", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondEdge(w http.ResponseWriter, status int, u, v model.NodeID, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	e, _ := s.session.Snapshot().Edge(u, v)
	writeJSON(w, status, e)
}

type agentRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == nil {
		writeError(w, graph.ErrInvalidAgentName)
		return
	}
	color := ""
	if req.Color != nil {
		color = *req.Color
	}
	id, err := s.session.CreateAgent(*req.Name, color)
	s.metrics.mutation("create agent", err)
	if err != nil {
		writeError(w, err)
		return
	}
	a, _ := s.session.Snapshot().Agent(id)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req agentRequest
	if !readJSON(w, r, &req) {
		return
	}
	err := s.session.UpdateAgent(name, req.Name, req.Color)
	s.metrics.mutation("update agent", err)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	a, _ := s.session.Snapshot().AgentByName(name)
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	err := s.session.DeleteAgent(mux.Vars(r)["name"])
	s.metrics.mutation("delete agent", err)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type metricResponse struct {
	Metric      string `json:"metric"`
	Value       string `json:"value"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description,omitempty"`
}

func toMetricResponse(res metrics.Result, description string) metricResponse {
	return metricResponse{
		Metric:      res.Metric,
		Value:       res.String(),
		Status:      res.Status.String(),
		Reason:      res.Reason,
		Description: description,
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	results := s.session.Metrics()
	out := make([]metricResponse, 0, len(results))
	for _, res := range results {
		desc, _ := s.session.DescribeMetric(res.Metric)
		out = append(out, toMetricResponse(res, desc))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	desc, _ := s.session.DescribeMetric(name)
	writeJSON(w, http.StatusOK, toMetricResponse(s.session.Metric(name), desc))
}

func highlightRequest(w http.ResponseWriter, mode, index string) (highlight.Request, bool) {
	m, err := highlight.ParseMode(mode)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return highlight.Request{}, false
	}
	req := highlight.Request{Mode: m}
	if index != "" {
		i, err := strconv.Atoi(index)
		if err != nil {
			writeError(w, fmt.Errorf("%w: bad index %q", errBadRequest, index))
			return highlight.Request{}, false
		}
		req.Index = i
	}
	return req, true
}

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("mode") == "" {
		req, groups := s.session.ActiveHighlights()
		writeJSON(w, http.StatusOK, highlightResponse(req, groups))
		return
	}
	req, ok := highlightRequest(w, q.Get("mode"), q.Get("index"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, highlightResponse(req, s.session.GetHighlights(req)))
}

func (s *Server) handleToggleHighlight(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode  string `json:"mode"`
		Index int    `json:"index"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	req, ok := highlightRequest(w, body.Mode, strconv.Itoa(body.Index))
	if !ok {
		return
	}
	groups := s.session.ToggleHighlight(req)
	active, _ := s.session.ActiveHighlights()
	writeJSON(w, http.StatusOK, highlightResponse(active, groups))
}

func highlightResponse(req highlight.Request, groups []highlight.Group) map[string]any {
	if groups == nil {
		groups = []highlight.Group{}
	}
	var active any
	if req.Mode != "" {
		active = req
	}
	return map[string]any{"active": active, "groups": groups}
}

func (s *Server) handleArchitectures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Architectures())
}

func (s *Server) handleSaveArchitecture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.session.SaveArchitecture(req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.session.Architectures())
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	grid, err := s.session.CompareArchitectures(r.URL.Query()["arch"]...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleCompareNode(w http.ResponseWriter, r *http.Request) {
	grid, err := s.session.CompareNode(mux.Vars(r)["label"], r.URL.Query()["arch"]...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// Start serves on port until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.publisher.Close() // ends SSE streams so Shutdown doesn't wait for them
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
