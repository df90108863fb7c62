package model

import (
	"slices"

	"github.com/google/uuid"
)

// NodeID identifies a node within one graph. IDs are never reused.
type NodeID int64

// AgentID identifies an agent. Nodes reference agents by ID so renames
// don't have to touch node state.
type AgentID = uuid.UUID

// UnassignedID is the reserved ID of the placeholder agent
var UnassignedID = uuid.Nil

const (
	UnassignedName  = "Unassigned"
	UnassignedColor = "white"
)

// Position is an advisory 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node represents a Function or Resource in the work network.
// Node values are treated as immutable once stored in a graph; the Agents
// slice is never modified in place.
type Node struct {
	ID       NodeID    `json:"id"`
	Type     NodeType  `json:"type"`
	Label    string    `json:"label"`
	Layer    Layer     `json:"layer"`
	Position Position  `json:"position"`
	Agents   []AgentID `json:"agents"` // Non-empty ordered set
}

// HasAgent returns true if the node lists the agent
func (n Node) HasAgent(id AgentID) bool {
	return slices.Contains(n.Agents, id)
}

// RealAgents returns the assigned agents excluding the placeholder
func (n Node) RealAgents() []AgentID {
	agents := make([]AgentID, 0, len(n.Agents))
	for _, id := range n.Agents {
		if id != UnassignedID {
			agents = append(agents, id)
		}
	}
	return agents
}

// SharesAgentWith returns true if the agent sets of n and other intersect
func (n Node) SharesAgentWith(other Node) bool {
	for _, id := range n.Agents {
		if other.HasAgent(id) {
			return true
		}
	}
	return false
}

// EdgeKey identifies a directed edge by its endpoints
type EdgeKey struct {
	From NodeID `json:"source"`
	To   NodeID `json:"target"`
}

// Reverse returns the key of the opposite direction
func (k EdgeKey) Reverse() EdgeKey {
	return EdgeKey{From: k.To, To: k.From}
}

// Edge represents a directed interdependency between two nodes
type Edge struct {
	From NodeID   `json:"source"`
	To   NodeID   `json:"target"`
	Type EdgeType `json:"type"`
}

// Key returns the endpoint pair of the edge
func (e Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To}
}

// Agent represents an owner that holds authority over nodes
type Agent struct {
	ID    AgentID `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
}

// IsUnassigned returns true for the placeholder agent
func (a Agent) IsUnassigned() bool {
	return a.ID == UnassignedID
}

// UnassignedAgent returns the placeholder agent with its default color
func UnassignedAgent() Agent {
	return Agent{ID: UnassignedID, Name: UnassignedName, Color: UnassignedColor}
}

// NormalizeAgents deduplicates ids preserving order and enforces the
// placeholder rules: an empty set becomes {Unassigned}, and Unassigned is
// dropped when any real agent is present.
func NormalizeAgents(ids []AgentID) []AgentID {
	out := make([]AgentID, 0, len(ids))
	hasReal := false
	for _, id := range ids {
		if slices.Contains(out, id) {
			continue
		}
		if id != UnassignedID {
			hasReal = true
		}
		out = append(out, id)
	}
	if hasReal {
		out = slices.DeleteFunc(out, func(id AgentID) bool { return id == UnassignedID })
	}
	if len(out) == 0 {
		out = append(out, UnassignedID)
	}
	return out
}
