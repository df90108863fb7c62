// Package session is the engine facade used by hosts. A Session owns the
// work network and routes every mutation through the undo history, so that
// one user action records exactly one snapshot.
//
// A Session is not safe for concurrent use; hosts serialize calls.
package session

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/ritzau/jsat-analyzer/pkg/analysis"
	"github.com/ritzau/jsat-analyzer/pkg/codec"
	"github.com/ritzau/jsat-analyzer/pkg/diff"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/highlight"
	"github.com/ritzau/jsat-analyzer/pkg/history"
	"github.com/ritzau/jsat-analyzer/pkg/logging"
	"github.com/ritzau/jsat-analyzer/pkg/metrics"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"github.com/ritzau/jsat-analyzer/pkg/pubsub"
)

// CurrentArchitecture names the live graph in comparisons
const CurrentArchitecture = "Current"

var (
	ErrArchitectureNotFound    = errors.New("architecture not found")
	ErrInvalidArchitectureName = errors.New("architecture name must not be empty or \"Current\"")
)

// Session holds one work network with its history, analytics and saved
// architectures
type Session struct {
	g          *graph.Graph
	history    *history.Manager[graph.Snapshot]
	cfg        analysis.Config
	metrics    *metrics.Engine
	highlights *highlight.Selector
	publisher  pubsub.Publisher

	archNames []string // Save order
	archs     map[string]graph.Snapshot
}

// Option configures a Session
type Option func(*options)

type options struct {
	cfg          analysis.Config
	historyLimit int
	publisher    pubsub.Publisher
}

// WithConfig sets the analysis configuration
func WithConfig(cfg analysis.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithHistoryLimit sets the number of undo steps kept
func WithHistoryLimit(n int) Option {
	return func(o *options) { o.historyLimit = n }
}

// WithPublisher streams graph changes to p
func WithPublisher(p pubsub.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// New creates a session with an empty graph
func New(opts ...Option) *Session {
	o := options{cfg: analysis.DefaultConfig(), historyLimit: history.DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{
		g:          graph.New(),
		history:    history.New[graph.Snapshot](o.historyLimit),
		cfg:        o.cfg,
		metrics:    metrics.NewEngine(o.cfg),
		highlights: highlight.NewSelector(highlight.NewEngine(o.cfg)),
		publisher:  o.publisher,
		archs:      make(map[string]graph.Snapshot),
	}
}

// Snapshot returns the current graph state
func (s *Session) Snapshot() graph.Snapshot {
	return s.g.Snapshot()
}

// Config returns the analysis configuration
func (s *Session) Config() analysis.Config {
	return s.cfg
}

// mutate applies fn as one undoable action. Nothing is recorded when fn
// fails or leaves the graph unchanged.
func (s *Session) mutate(op string, fn func(g *graph.Graph) error) error {
	before := s.g.Snapshot()
	if err := fn(s.g); err != nil {
		s.g.Restore(before)
		logging.Debug("mutation rejected", "op", op, "error", err)
		return err
	}
	if s.g.View().Equal(before) {
		return nil
	}
	s.history.BeforeMutation(before)
	logging.Debug("graph mutated", "op", op, "nodes", s.g.View().NodeCount(), "edges", s.g.View().EdgeCount())
	s.changed(before)
	return nil
}

// AddNode creates a node and returns its ID
func (s *Session) AddNode(t model.NodeType, layer model.Layer, label string, pos model.Position) model.NodeID {
	var id model.NodeID
	_ = s.mutate("add node", func(g *graph.Graph) error {
		id = g.AddNode(t, layer, label, pos)
		return nil
	})
	return id
}

// RemoveNode deletes a node and its edges. Returns false if it doesn't exist.
func (s *Session) RemoveNode(id model.NodeID) bool {
	var removed bool
	_ = s.mutate("remove node", func(g *graph.Graph) error {
		removed = g.RemoveNode(id)
		return nil
	})
	return removed
}

// AddEdge creates the edge u -> v, failing with graph.ErrTypeMismatch when
// both endpoints have the same type
func (s *Session) AddEdge(u, v model.NodeID, t model.EdgeType) error {
	return s.mutate("add edge", func(g *graph.Graph) error { return g.AddEdge(u, v, t) })
}

// RemoveEdge deletes the edge u -> v. Returns false if it doesn't exist.
func (s *Session) RemoveEdge(u, v model.NodeID) bool {
	var removed bool
	_ = s.mutate("remove edge", func(g *graph.Graph) error {
		removed = g.RemoveEdge(u, v)
		return nil
	})
	return removed
}

// NodeAttrs lists node attributes to change. Nil fields are left alone.
type NodeAttrs struct {
	Label    *string         `json:"label,omitempty"`
	Layer    *model.Layer    `json:"layer,omitempty"`
	Position *model.Position `json:"position,omitempty"`
}

// SetNodeAttr changes several attributes of a node as one action
func (s *Session) SetNodeAttr(id model.NodeID, attrs NodeAttrs) error {
	return s.mutate("set node attributes", func(g *graph.Graph) error {
		if attrs.Label != nil {
			if err := g.SetLabel(id, *attrs.Label); err != nil {
				return err
			}
		}
		if attrs.Layer != nil {
			if err := g.SetLayer(id, *attrs.Layer); err != nil {
				return err
			}
		}
		if attrs.Position != nil {
			if err := g.SetPosition(id, *attrs.Position); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetNodeLabel changes a node's label
func (s *Session) SetNodeLabel(id model.NodeID, label string) error {
	return s.SetNodeAttr(id, NodeAttrs{Label: &label})
}

// SetNodeLayer moves a node to another layer
func (s *Session) SetNodeLayer(id model.NodeID, layer model.Layer) error {
	return s.SetNodeAttr(id, NodeAttrs{Layer: &layer})
}

// SetNodePosition changes a node's advisory position
func (s *Session) SetNodePosition(id model.NodeID, pos model.Position) error {
	return s.SetNodeAttr(id, NodeAttrs{Position: &pos})
}

// SetEdgeType changes the type of the edge u -> v
func (s *Session) SetEdgeType(u, v model.NodeID, t model.EdgeType) error {
	return s.mutate("set edge type", func(g *graph.Graph) error { return g.SetEdgeType(u, v, t) })
}

// FlipEdgeType toggles the edge u -> v between hard and soft
func (s *Session) FlipEdgeType(u, v model.NodeID) (model.EdgeType, error) {
	var t model.EdgeType
	err := s.mutate("flip edge type", func(g *graph.Graph) error {
		var err error
		t, err = g.FlipEdgeType(u, v)
		return err
	})
	return t, err
}

// AssignAgent toggles the agent's membership in the node's agent set
func (s *Session) AssignAgent(id model.NodeID, agent string) error {
	return s.mutate("assign agent", func(g *graph.Graph) error { return g.AssignAgent(id, agent) })
}

// SetAgents replaces the node's agent set
func (s *Session) SetAgents(id model.NodeID, agents []string) error {
	return s.mutate("set agents", func(g *graph.Graph) error { return g.SetAgents(id, agents) })
}

// CreateAgent registers an agent. An empty color derives one from the name.
func (s *Session) CreateAgent(name, color string) (model.AgentID, error) {
	if color == "" {
		color = codec.AgentColor(strings.TrimSpace(name))
	}
	var id model.AgentID
	err := s.mutate("create agent", func(g *graph.Graph) error {
		var err error
		id, err = g.CreateAgent(name, color)
		return err
	})
	return id, err
}

// RenameAgent renames an agent on every node holding it
func (s *Session) RenameAgent(oldName, newName string) error {
	return s.mutate("rename agent", func(g *graph.Graph) error { return g.RenameAgent(oldName, newName) })
}

// SetAgentColor changes an agent's color
func (s *Session) SetAgentColor(name, color string) error {
	return s.mutate("set agent color", func(g *graph.Graph) error { return g.SetAgentColor(name, color) })
}

// UpdateAgent recolors and renames an agent as one undoable step. Nil
// arguments are left unchanged; if either change fails, neither is applied.
func (s *Session) UpdateAgent(name string, newName, color *string) error {
	return s.mutate("update agent", func(g *graph.Graph) error {
		if color != nil {
			if err := g.SetAgentColor(name, *color); err != nil {
				return err
			}
		}
		if newName != nil {
			return g.RenameAgent(name, *newName)
		}
		return nil
	})
}

// DeleteAgent removes an agent from the registry and every node
func (s *Session) DeleteAgent(name string) error {
	return s.mutate("delete agent", func(g *graph.Graph) error { return g.DeleteAgent(name) })
}

// Undo restores the state before the last action. Returns false if there
// is nothing to undo.
func (s *Session) Undo() bool {
	current := s.g.Snapshot()
	prev, ok := s.history.Undo(current)
	if !ok {
		return false
	}
	s.g.Restore(prev)
	logging.Debug("undo", "nodes", prev.NodeCount(), "edges", prev.EdgeCount())
	s.changed(current)
	return true
}

// Redo reapplies the action undone last. Returns false if there is nothing
// to redo.
func (s *Session) Redo() bool {
	current := s.g.Snapshot()
	next, ok := s.history.Redo(current)
	if !ok {
		return false
	}
	s.g.Restore(next)
	logging.Debug("redo", "nodes", next.NodeCount(), "edges", next.EdgeCount())
	s.changed(current)
	return true
}

// CanUndo returns true if Undo would change state
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo returns true if Redo would change state
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Export writes the graph as a JSON document
func (s *Session) Export(w io.Writer) error {
	return codec.Encode(w, s.g.View())
}

// Import replaces the whole graph with the document read from r. The import
// is one undoable action. Items that could not be loaded are listed in the
// report; a malformed document leaves the graph untouched.
func (s *Session) Import(r io.Reader) (codec.Report, error) {
	snap, report, err := codec.Decode(r)
	if err != nil {
		return report, fmt.Errorf("import: %w", err)
	}
	for _, skip := range report.Skipped {
		logging.Warn("skipped document item", "section", skip.Section, "item", skip.Item, "reason", skip.Reason)
	}

	before := s.g.Snapshot()
	s.g.Restore(snap)
	s.highlights.Clear()
	if !before.Equal(snap) {
		s.history.BeforeMutation(before)
	}
	logging.Info("document imported", "nodes", snap.NodeCount(), "edges", snap.EdgeCount(), "skipped", len(report.Skipped))
	s.publishFull()
	return report, nil
}

// ComputeMetric returns the display value of a named metric
func (s *Session) ComputeMetric(name string) string {
	return s.metrics.ComputeMetric(s.g.View(), name)
}

// Metric returns the typed result of a named metric
func (s *Session) Metric(name string) metrics.Result {
	return s.metrics.Compute(s.g.View(), name)
}

// Metrics evaluates every metric in dashboard order
func (s *Session) Metrics() []metrics.Result {
	return s.metrics.ComputeAll(s.g.View())
}

// DescribeMetric returns the explanation shown for a metric
func (s *Session) DescribeMetric(name string) (string, bool) {
	return s.metrics.Describe(name)
}

// NodeMetrics returns the centrality statistics of one node
func (s *Session) NodeMetrics(id model.NodeID) (metrics.NodeStats, bool) {
	return metrics.NodeMetrics(s.g.View(), id)
}

// GetHighlights returns the groups for req without changing the selection
func (s *Session) GetHighlights(req highlight.Request) []highlight.Group {
	return highlight.NewEngine(s.cfg).Groups(s.g.View(), req)
}

// ToggleHighlight selects req, or clears the selection if req is active
func (s *Session) ToggleHighlight(req highlight.Request) []highlight.Group {
	return s.highlights.Toggle(s.g.View(), req)
}

// ActiveHighlights recomputes the active selection against the current graph
func (s *Session) ActiveHighlights() (highlight.Request, []highlight.Group) {
	req, ok := s.highlights.Active()
	if !ok {
		return highlight.Request{}, nil
	}
	return req, s.highlights.Current(s.g.View())
}

// SaveArchitecture stores the current graph under name for comparison.
// Saving under an existing name replaces it.
func (s *Session) SaveArchitecture(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == CurrentArchitecture {
		return ErrInvalidArchitectureName
	}
	if _, exists := s.archs[name]; !exists {
		s.archNames = append(s.archNames, name)
	}
	s.archs[name] = s.g.Snapshot()
	logging.Info("architecture saved", "name", name)
	return nil
}

// Architectures returns the saved architecture names in save order
func (s *Session) Architectures() []string {
	return slices.Clone(s.archNames)
}

// CompareArchitectures compares the named architectures. "Current" names the
// live graph. Without names, the live graph and every saved architecture
// are compared.
func (s *Session) CompareArchitectures(names ...string) (metrics.Grid, error) {
	archs, err := s.resolve(names)
	if err != nil {
		return metrics.Grid{}, err
	}
	return s.metrics.Compare(archs), nil
}

// CompareNode compares the node carrying label across architectures
func (s *Session) CompareNode(label string, names ...string) (metrics.Grid, error) {
	archs, err := s.resolve(names)
	if err != nil {
		return metrics.Grid{}, err
	}
	return metrics.CompareNode(label, archs), nil
}

func (s *Session) resolve(names []string) ([]metrics.Architecture, error) {
	if len(names) == 0 {
		names = append([]string{CurrentArchitecture}, s.archNames...)
	}
	archs := make([]metrics.Architecture, 0, len(names))
	for _, name := range names {
		if name == CurrentArchitecture {
			archs = append(archs, metrics.Architecture{Name: name, Snapshot: s.g.Snapshot()})
			continue
		}
		snap, ok := s.archs[name]
		if !ok {
			return nil, fmt.Errorf("architecture %q: %w", name, ErrArchitectureNotFound)
		}
		archs = append(archs, metrics.Architecture{Name: name, Snapshot: snap})
	}
	return archs, nil
}

// changed publishes the difference between before and the current state
func (s *Session) changed(before graph.Snapshot) {
	if s.publisher == nil {
		return
	}
	d := diff.Compute(&before, s.g.Snapshot())
	if d.Empty() {
		return
	}
	if err := s.publisher.Publish(pubsub.TopicGraph, pubsub.EventGraphDiff, d); err != nil {
		logging.Warn("failed to publish graph diff", "error", err)
	}
	s.publishStatus()
}

// publishFull publishes the whole graph, used after imports
func (s *Session) publishFull() {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(pubsub.TopicGraph, pubsub.EventGraphFull, diff.Compute(nil, s.g.Snapshot())); err != nil {
		logging.Warn("failed to publish graph", "error", err)
	}
	s.publishStatus()
}

func (s *Session) publishStatus() {
	view := s.g.View()
	status := pubsub.GraphStatus{
		Nodes:   view.NodeCount(),
		Edges:   view.EdgeCount(),
		Agents:  len(view.Agents()),
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
	}
	if err := s.publisher.Publish(pubsub.TopicStatus, pubsub.EventStatus, status); err != nil {
		logging.Warn("failed to publish status", "error", err)
	}
}
