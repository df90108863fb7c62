package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

// Builder assembles a snapshot from external data. Unlike Graph.AddEdge it
// performs no Function/Resource alternation check, so documents containing
// same-type edges load unchanged.
type Builder struct {
	st *state
}

// NewBuilder creates a builder holding only the Unassigned agent
func NewBuilder() *Builder {
	return &Builder{st: newState()}
}

// Agent registers an agent, or returns the existing one with that name.
// Naming the Unassigned agent updates its color.
func (b *Builder) Agent(name, color string) model.AgentID {
	name = strings.TrimSpace(name)
	for i, a := range b.st.agents {
		if a.Name == name {
			if a.IsUnassigned() && color != "" {
				b.st.agents[i].Color = color
			}
			return a.ID
		}
	}
	a := model.Agent{ID: uuid.New(), Name: name, Color: color}
	b.st.agents = append(b.st.agents, a)
	return a.ID
}

// Node adds a node with a fresh ID. The agent set is normalized.
func (b *Builder) Node(t model.NodeType, layer model.Layer, label string, pos model.Position, agents []model.AgentID) model.NodeID {
	if !t.Valid() {
		t = model.NodeResource
	}
	if !layer.Valid() {
		layer = model.DefaultLayer(t)
	}
	id := b.st.nextID
	b.st.nextID++
	b.st.nodes[id] = model.Node{
		ID:       id,
		Type:     t,
		Label:    label,
		Layer:    layer,
		Position: pos,
		Agents:   model.NormalizeAgents(agents),
	}
	return id
}

// Edge adds the directed edge u -> v without type validation
func (b *Builder) Edge(u, v model.NodeID, t model.EdgeType) error {
	if _, ok := b.st.nodes[u]; !ok {
		return fmt.Errorf("edge source %d: %w", u, ErrNodeNotFound)
	}
	if _, ok := b.st.nodes[v]; !ok {
		return fmt.Errorf("edge target %d: %w", v, ErrNodeNotFound)
	}
	b.st.edges[model.EdgeKey{From: u, To: v}] = model.ParseEdgeType(string(t))
	return nil
}

// Build returns the assembled snapshot. The builder must not be used afterwards.
func (b *Builder) Build() Snapshot {
	s := Snapshot{st: b.st}
	b.st = nil
	return s
}
