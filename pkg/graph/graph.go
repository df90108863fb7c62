// Package graph holds the mutable work network and its immutable snapshots.
//
// A Graph is the single source of truth for nodes, edges and agents. Taking a
// Snapshot is O(1): the graph and the snapshot share storage until the next
// mutation, which copies the containers before writing (copy-on-write).
package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrEdgeNotFound     = errors.New("edge not found")
	ErrTypeMismatch     = errors.New("connections must alternate between Function and Resource")
	ErrAgentNotFound    = errors.New("agent not found")
	ErrAgentExists      = errors.New("agent already exists")
	ErrReservedAgent    = errors.New("the Unassigned agent cannot be renamed or deleted")
	ErrInvalidAgentName = errors.New("agent name must not be empty")
)

// Graph is the mutable work network. It is not safe for concurrent use.
type Graph struct {
	st     *state
	shared bool // st is referenced by a snapshot and must be copied before writing
}

// New creates an empty graph containing only the Unassigned agent
func New() *Graph {
	return &Graph{st: newState()}
}

// FromSnapshot creates a graph whose state starts out as s
func FromSnapshot(s Snapshot) *Graph {
	g := New()
	g.Restore(s)
	return g
}

// Snapshot returns an immutable view of the current state
func (g *Graph) Snapshot() Snapshot {
	g.shared = true
	return Snapshot{st: g.st}
}

// View returns the current state for reading without pinning it
func (g *Graph) View() Snapshot {
	return Snapshot{st: g.st}
}

// Restore replaces the whole graph state with s
func (g *Graph) Restore(s Snapshot) {
	g.st = s.data()
	g.shared = true
}

// write returns a state that may be modified
func (g *Graph) write() *state {
	if g.shared {
		g.st = g.st.clone()
		g.shared = false
	}
	return g.st
}

// AddNode creates a node and returns its ID. An empty label defaults to the
// type initial and an invalid layer to the type's default layer.
func (g *Graph) AddNode(t model.NodeType, layer model.Layer, label string, pos model.Position) model.NodeID {
	if !t.Valid() {
		t = model.NodeFunction
	}
	if !layer.Valid() {
		layer = model.DefaultLayer(t)
	}
	if label == "" {
		label = t.Initial()
	}

	st := g.write()
	id := st.nextID
	st.nextID++
	st.nodes[id] = model.Node{
		ID:       id,
		Type:     t,
		Label:    label,
		Layer:    layer,
		Position: pos,
		Agents:   []model.AgentID{model.UnassignedID},
	}
	return id
}

// RemoveNode deletes a node and every edge incident to it.
// Returns false if the node doesn't exist.
func (g *Graph) RemoveNode(id model.NodeID) bool {
	if _, ok := g.st.nodes[id]; !ok {
		return false
	}
	st := g.write()
	delete(st.nodes, id)
	for k := range st.edges {
		if k.From == id || k.To == id {
			delete(st.edges, k)
		}
	}
	return true
}

// AddEdge creates the directed edge u -> v. Function nodes may only connect
// to Resource nodes and vice versa. An existing edge u -> v gets its type
// replaced.
func (g *Graph) AddEdge(u, v model.NodeID, t model.EdgeType) error {
	from, ok := g.st.nodes[u]
	if !ok {
		return fmt.Errorf("add edge: source %d: %w", u, ErrNodeNotFound)
	}
	to, ok := g.st.nodes[v]
	if !ok {
		return fmt.Errorf("add edge: target %d: %w", v, ErrNodeNotFound)
	}
	if from.Type == to.Type {
		return fmt.Errorf("cannot connect %s to %s: %w", from.Type, to.Type, ErrTypeMismatch)
	}
	g.write().edges[model.EdgeKey{From: u, To: v}] = model.ParseEdgeType(string(t))
	return nil
}

// RemoveEdge deletes the directed edge u -> v.
// Returns false if the edge doesn't exist.
func (g *Graph) RemoveEdge(u, v model.NodeID) bool {
	key := model.EdgeKey{From: u, To: v}
	if _, ok := g.st.edges[key]; !ok {
		return false
	}
	delete(g.write().edges, key)
	return true
}

// SetEdgeType changes the type of an existing edge
func (g *Graph) SetEdgeType(u, v model.NodeID, t model.EdgeType) error {
	key := model.EdgeKey{From: u, To: v}
	if _, ok := g.st.edges[key]; !ok {
		return fmt.Errorf("edge %d->%d: %w", u, v, ErrEdgeNotFound)
	}
	g.write().edges[key] = model.ParseEdgeType(string(t))
	return nil
}

// FlipEdgeType toggles an edge between hard and soft and returns the new type
func (g *Graph) FlipEdgeType(u, v model.NodeID) (model.EdgeType, error) {
	t, ok := g.st.edges[model.EdgeKey{From: u, To: v}]
	if !ok {
		return "", fmt.Errorf("edge %d->%d: %w", u, v, ErrEdgeNotFound)
	}
	flipped := t.Flip()
	g.write().edges[model.EdgeKey{From: u, To: v}] = flipped
	return flipped, nil
}

// updateNode applies fn to a copy of the node and stores the result
func (g *Graph) updateNode(id model.NodeID, fn func(n *model.Node)) error {
	n, ok := g.st.nodes[id]
	if !ok {
		return fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	fn(&n)
	g.write().nodes[id] = n
	return nil
}

// SetLabel changes the display label of a node
func (g *Graph) SetLabel(id model.NodeID, label string) error {
	return g.updateNode(id, func(n *model.Node) { n.Label = label })
}

// SetLayer moves a node to another layer. Invalid layers are rejected.
func (g *Graph) SetLayer(id model.NodeID, layer model.Layer) error {
	if !layer.Valid() {
		return fmt.Errorf("unknown layer %q", layer)
	}
	return g.updateNode(id, func(n *model.Node) { n.Layer = layer })
}

// SetPosition changes the advisory position of a node
func (g *Graph) SetPosition(id model.NodeID, pos model.Position) error {
	return g.updateNode(id, func(n *model.Node) { n.Position = pos })
}

// AssignAgent toggles the agent's membership in the node's agent set.
// Assigning a real agent drops the Unassigned placeholder; removing the last
// agent reverts the set to {Unassigned}. The set is kept in registry order,
// so toggling twice restores it exactly.
func (g *Graph) AssignAgent(id model.NodeID, agent string) error {
	a, ok := g.View().AgentByName(agent)
	if !ok {
		return fmt.Errorf("agent %q: %w", agent, ErrAgentNotFound)
	}
	return g.updateNode(id, func(n *model.Node) {
		agents := slices.Clone(n.Agents)
		if !a.IsUnassigned() {
			agents = slices.DeleteFunc(agents, func(x model.AgentID) bool { return x == model.UnassignedID })
		}
		if i := slices.Index(agents, a.ID); i >= 0 {
			agents = slices.Delete(agents, i, i+1)
		} else {
			agents = append(agents, a.ID)
		}
		n.Agents = g.registryOrder(model.NormalizeAgents(agents))
	})
}

// SetAgents replaces the node's agent set. An empty list assigns Unassigned.
func (g *Graph) SetAgents(id model.NodeID, agents []string) error {
	ids := make([]model.AgentID, 0, len(agents))
	view := g.View()
	for _, name := range agents {
		a, ok := view.AgentByName(name)
		if !ok {
			return fmt.Errorf("agent %q: %w", name, ErrAgentNotFound)
		}
		ids = append(ids, a.ID)
	}
	return g.updateNode(id, func(n *model.Node) { n.Agents = g.registryOrder(model.NormalizeAgents(ids)) })
}

// registryOrder sorts agents by their position in the agent registry
func (g *Graph) registryOrder(agents []model.AgentID) []model.AgentID {
	rank := func(id model.AgentID) int {
		return slices.IndexFunc(g.st.agents, func(a model.Agent) bool { return a.ID == id })
	}
	slices.SortStableFunc(agents, func(x, y model.AgentID) int { return rank(x) - rank(y) })
	return agents
}

// CreateAgent registers a new agent and returns its ID
func (g *Graph) CreateAgent(name, color string) (model.AgentID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, ErrInvalidAgentName
	}
	if _, exists := g.View().AgentByName(name); exists {
		return uuid.Nil, fmt.Errorf("agent %q: %w", name, ErrAgentExists)
	}
	st := g.write()
	a := model.Agent{ID: uuid.New(), Name: name, Color: color}
	st.agents = append(st.agents, a)
	return a.ID, nil
}

// RenameAgent changes an agent's name. Nodes reference agents by ID, so the
// rename is visible on every node holding the agent.
func (g *Graph) RenameAgent(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrInvalidAgentName
	}
	i, err := g.agentIndex(oldName)
	if err != nil {
		return err
	}
	if g.st.agents[i].IsUnassigned() {
		return ErrReservedAgent
	}
	if newName == oldName {
		return nil
	}
	if _, exists := g.View().AgentByName(newName); exists {
		return fmt.Errorf("agent %q: %w", newName, ErrAgentExists)
	}
	g.write().agents[i].Name = newName
	return nil
}

// SetAgentColor changes an agent's display color
func (g *Graph) SetAgentColor(name, color string) error {
	i, err := g.agentIndex(name)
	if err != nil {
		return err
	}
	g.write().agents[i].Color = color
	return nil
}

// DeleteAgent removes an agent from the registry and from every node.
// Nodes left without agents revert to {Unassigned}.
func (g *Graph) DeleteAgent(name string) error {
	i, err := g.agentIndex(name)
	if err != nil {
		return err
	}
	a := g.st.agents[i]
	if a.IsUnassigned() {
		return ErrReservedAgent
	}

	st := g.write()
	st.agents = slices.Delete(st.agents, i, i+1)
	for id, n := range st.nodes {
		if !n.HasAgent(a.ID) {
			continue
		}
		n.Agents = model.NormalizeAgents(slices.DeleteFunc(slices.Clone(n.Agents), func(x model.AgentID) bool { return x == a.ID }))
		st.nodes[id] = n
	}
	return nil
}

func (g *Graph) agentIndex(name string) (int, error) {
	i := slices.IndexFunc(g.st.agents, func(a model.Agent) bool { return a.Name == name })
	if i < 0 {
		return -1, fmt.Errorf("agent %q: %w", name, ErrAgentNotFound)
	}
	return i, nil
}
