package graph

import (
	"cmp"
	"maps"
	"slices"

	"github.com/ritzau/jsat-analyzer/pkg/model"
)

// state is the storage shared between a Graph and the snapshots taken of it.
// A state reachable from a Snapshot is never written again.
type state struct {
	nodes  map[model.NodeID]model.Node
	edges  map[model.EdgeKey]model.EdgeType
	agents []model.Agent // Registry order; index 0 is always Unassigned
	nextID model.NodeID
}

func newState() *state {
	return &state{
		nodes:  make(map[model.NodeID]model.Node),
		edges:  make(map[model.EdgeKey]model.EdgeType),
		agents: []model.Agent{model.UnassignedAgent()},
		nextID: 1,
	}
}

// clone copies the containers. Node values (including their Agents slices)
// are shared since they are replaced rather than modified.
func (s *state) clone() *state {
	return &state{
		nodes:  maps.Clone(s.nodes),
		edges:  maps.Clone(s.edges),
		agents: slices.Clone(s.agents),
		nextID: s.nextID,
	}
}

// Snapshot is an immutable view of the graph state at one point in time.
// The zero value is an empty graph containing only the Unassigned agent.
type Snapshot struct {
	st *state
}

func (s Snapshot) data() *state {
	if s.st == nil {
		return emptyState
	}
	return s.st
}

var emptyState = newState()

// NodeCount returns the number of nodes
func (s Snapshot) NodeCount() int {
	return len(s.data().nodes)
}

// EdgeCount returns the number of edges
func (s Snapshot) EdgeCount() int {
	return len(s.data().edges)
}

// Node returns the node with the given ID
func (s Snapshot) Node(id model.NodeID) (model.Node, bool) {
	n, ok := s.data().nodes[id]
	return n, ok
}

// Nodes returns all nodes ordered by ID (creation order)
func (s Snapshot) Nodes() []model.Node {
	st := s.data()
	nodes := make([]model.Node, 0, len(st.nodes))
	for _, n := range st.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b model.Node) int { return cmp.Compare(a.ID, b.ID) })
	return nodes
}

// NodeIDs returns all node IDs in ascending order
func (s Snapshot) NodeIDs() []model.NodeID {
	ids := slices.Collect(maps.Keys(s.data().nodes))
	slices.Sort(ids)
	return ids
}

// HasEdge returns true if the directed edge from -> to exists
func (s Snapshot) HasEdge(from, to model.NodeID) bool {
	_, ok := s.data().edges[model.EdgeKey{From: from, To: to}]
	return ok
}

// Edge returns the directed edge from -> to
func (s Snapshot) Edge(from, to model.NodeID) (model.Edge, bool) {
	t, ok := s.data().edges[model.EdgeKey{From: from, To: to}]
	if !ok {
		return model.Edge{}, false
	}
	return model.Edge{From: from, To: to, Type: t}, true
}

// Edges returns all edges ordered by (From, To)
func (s Snapshot) Edges() []model.Edge {
	st := s.data()
	edges := make([]model.Edge, 0, len(st.edges))
	for k, t := range st.edges {
		edges = append(edges, model.Edge{From: k.From, To: k.To, Type: t})
	}
	slices.SortFunc(edges, compareEdges)
	return edges
}

// EdgesOfType returns the edges with the given type ordered by (From, To)
func (s Snapshot) EdgesOfType(t model.EdgeType) []model.Edge {
	return slices.DeleteFunc(s.Edges(), func(e model.Edge) bool { return e.Type != t })
}

// Incident returns the edges that start or end at id
func (s Snapshot) Incident(id model.NodeID) []model.Edge {
	return slices.DeleteFunc(s.Edges(), func(e model.Edge) bool { return e.From != id && e.To != id })
}

// Successors returns the targets of edges leaving id in ascending order
func (s Snapshot) Successors(id model.NodeID) []model.NodeID {
	var out []model.NodeID
	for k := range s.data().edges {
		if k.From == id {
			out = append(out, k.To)
		}
	}
	slices.Sort(out)
	return out
}

// Agents returns the agent registry in creation order, Unassigned first
func (s Snapshot) Agents() []model.Agent {
	return slices.Clone(s.data().agents)
}

// Agent returns the agent with the given ID
func (s Snapshot) Agent(id model.AgentID) (model.Agent, bool) {
	for _, a := range s.data().agents {
		if a.ID == id {
			return a, true
		}
	}
	return model.Agent{}, false
}

// AgentByName returns the agent with the given name
func (s Snapshot) AgentByName(name string) (model.Agent, bool) {
	for _, a := range s.data().agents {
		if a.Name == name {
			return a, true
		}
	}
	return model.Agent{}, false
}

// AgentNames returns the names in the node's agent set, in set order
func (s Snapshot) AgentNames(n model.Node) []string {
	names := make([]string, 0, len(n.Agents))
	for _, id := range n.Agents {
		if a, ok := s.Agent(id); ok {
			names = append(names, a.Name)
		}
	}
	return names
}

// NodeByLabel returns the first node (in ID order) carrying the label
func (s Snapshot) NodeByLabel(label string) (model.Node, bool) {
	for _, n := range s.Nodes() {
		if n.Label == label {
			return n, true
		}
	}
	return model.Node{}, false
}

// Equal reports whether both snapshots hold the same nodes, edges and agents.
// Shared storage short-circuits the comparison.
func (s Snapshot) Equal(other Snapshot) bool {
	a, b := s.data(), other.data()
	if a == b {
		return true
	}
	if !maps.Equal(a.edges, b.edges) || !slices.Equal(a.agents, b.agents) {
		return false
	}
	return maps.EqualFunc(a.nodes, b.nodes, func(x, y model.Node) bool {
		return x.ID == y.ID && x.Type == y.Type && x.Label == y.Label &&
			x.Layer == y.Layer && x.Position == y.Position && slices.Equal(x.Agents, y.Agents)
	})
}

func compareEdges(a, b model.Edge) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}
	return cmp.Compare(a.To, b.To)
}
