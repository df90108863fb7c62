// Package diff computes the changes between two graph snapshots, for
// streaming incremental updates to subscribers.
package diff

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

// GraphDiff represents the difference between two graph states
type GraphDiff struct {
	AddedNodes    []model.Node    `json:"addedNodes"`
	RemovedNodes  []model.NodeID  `json:"removedNodes"`
	ModifiedNodes []model.Node    `json:"modifiedNodes"` // Nodes with changed properties
	AddedEdges    []model.Edge    `json:"addedEdges"`    // New edges and edges whose type changed
	RemovedEdges  []model.EdgeKey `json:"removedEdges"`
	Agents        []model.Agent   `json:"agents,omitempty"` // Full registry, set when it changed
	FullGraph     bool            `json:"fullGraph"`        // True if this is a full graph, not a diff
	Hash          string          `json:"hash"`             // Hash of the new state
}

// Empty returns true if the diff carries no changes
func (d *GraphDiff) Empty() bool {
	return !d.FullGraph && len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.ModifiedNodes) == 0 && len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0 &&
		d.Agents == nil
}

// Hash returns a content hash of the snapshot's nodes, edges and agents
func Hash(s graph.Snapshot) string {
	data := struct {
		Nodes  []model.Node
		Edges  []model.Edge
		Agents []model.Agent
	}{s.Nodes(), s.Edges(), s.Agents()}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%x", hash)
}

// Compute returns the changes from old to next. A nil old yields the full
// next graph.
func Compute(old *graph.Snapshot, next graph.Snapshot) *GraphDiff {
	if old == nil {
		return &GraphDiff{
			AddedNodes: next.Nodes(),
			AddedEdges: next.Edges(),
			Agents:     next.Agents(),
			FullGraph:  true,
			Hash:       Hash(next),
		}
	}

	d := &GraphDiff{
		AddedNodes:    make([]model.Node, 0),
		RemovedNodes:  make([]model.NodeID, 0),
		ModifiedNodes: make([]model.Node, 0),
		AddedEdges:    make([]model.Edge, 0),
		RemovedEdges:  make([]model.EdgeKey, 0),
		Hash:          Hash(next),
	}

	for _, n := range next.Nodes() {
		if prev, exists := old.Node(n.ID); exists {
			if !nodesEqual(prev, n) {
				d.ModifiedNodes = append(d.ModifiedNodes, n)
			}
		} else {
			d.AddedNodes = append(d.AddedNodes, n)
		}
	}
	for _, id := range old.NodeIDs() {
		if _, exists := next.Node(id); !exists {
			d.RemovedNodes = append(d.RemovedNodes, id)
		}
	}

	for _, e := range next.Edges() {
		if prev, exists := old.Edge(e.From, e.To); !exists || prev.Type != e.Type {
			d.AddedEdges = append(d.AddedEdges, e)
		}
	}
	for _, e := range old.Edges() {
		if !next.HasEdge(e.From, e.To) {
			d.RemovedEdges = append(d.RemovedEdges, e.Key())
		}
	}

	if !slices.Equal(old.Agents(), next.Agents()) {
		d.Agents = next.Agents()
	}
	return d
}

// nodesEqual compares every node field, position included
func nodesEqual(a, b model.Node) bool {
	return a.ID == b.ID &&
		a.Type == b.Type &&
		a.Label == b.Label &&
		a.Layer == b.Layer &&
		a.Position == b.Position &&
		slices.Equal(a.Agents, b.Agents)
}

