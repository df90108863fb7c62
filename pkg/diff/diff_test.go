package diff

import (
	"testing"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

func TestComputeFull(t *testing.T) {
	g := graph.New()
	g.AddNode(model.NodeFunction, "", "F", model.Position{})

	d := Compute(nil, g.Snapshot())

	if !d.FullGraph {
		t.Error("Expected a full graph without a previous snapshot")
	}
	if len(d.AddedNodes) != 1 || len(d.Agents) != 1 {
		t.Errorf("Expected 1 node and the Unassigned agent, got %d nodes and %d agents", len(d.AddedNodes), len(d.Agents))
	}
}

func TestComputeChanges(t *testing.T) {
	g := graph.New()
	f := g.AddNode(model.NodeFunction, "", "F", model.Position{})
	r := g.AddNode(model.NodeResource, "", "R", model.Position{})
	gone := g.AddNode(model.NodeResource, "", "Gone", model.Position{})
	g.AddEdge(f, r, model.EdgeHard)
	g.AddEdge(f, gone, model.EdgeHard)
	old := g.Snapshot()

	g.SetPosition(f, model.Position{X: 5, Y: 5})
	g.FlipEdgeType(f, r)
	g.RemoveNode(gone)
	added := g.AddNode(model.NodeResource, "", "New", model.Position{})

	d := Compute(&old, g.Snapshot())

	if d.FullGraph || d.Empty() {
		t.Fatal("Expected an incremental, non-empty diff")
	}
	if len(d.AddedNodes) != 1 || d.AddedNodes[0].ID != added {
		t.Errorf("Expected added node %d, got %v", added, d.AddedNodes)
	}
	if len(d.RemovedNodes) != 1 || d.RemovedNodes[0] != gone {
		t.Errorf("Expected removed node %d, got %v", gone, d.RemovedNodes)
	}
	if len(d.ModifiedNodes) != 1 || d.ModifiedNodes[0].ID != f {
		t.Errorf("Expected modified node %d, got %v", f, d.ModifiedNodes)
	}
	if len(d.AddedEdges) != 1 || d.AddedEdges[0].Type != model.EdgeSoft {
		t.Errorf("Expected the flipped edge as added, got %v", d.AddedEdges)
	}
	if len(d.RemovedEdges) != 1 || d.RemovedEdges[0] != (model.EdgeKey{From: f, To: gone}) {
		t.Errorf("Expected the cascaded edge as removed, got %v", d.RemovedEdges)
	}
	if d.Agents != nil {
		t.Error("Agents did not change")
	}
}

func TestHash(t *testing.T) {
	g := graph.New()
	before := Hash(g.Snapshot())
	if before != Hash(g.Snapshot()) {
		t.Error("Expected hash to be stable")
	}

	g.CreateAgent("A", "red")
	if Hash(g.Snapshot()) == before {
		t.Error("Expected hash to change with the agent registry")
	}

	old := g.Snapshot()
	d := Compute(&old, g.Snapshot())
	if !d.Empty() {
		t.Errorf("Expected empty diff for identical snapshots, got %+v", d)
	}
}
