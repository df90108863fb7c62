package codec

import (
	"encoding/json"
	"io"
	"slices"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/logging"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

const indent = "    "

// Marshal encodes s as an indented document. Nodes appear in ID order and
// agents in registry order, Unassigned included. Documents key nodes by
// label, so of several nodes sharing a label only the last is written; each
// such collision is logged.
func Marshal(s graph.Snapshot) ([]byte, error) {
	return json.MarshalIndent(toDocument(s), "", indent)
}

// Encode writes the document for s to w
func Encode(w io.Writer, s graph.Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// NodeType returns the document type string of a node, e.g. "DistributedWorkFunction"
func NodeType(n model.Node) string {
	return n.Layer.Compact() + string(n.Type)
}

func toDocument(s graph.Snapshot) document {
	var gd graphData
	authority := make(map[model.AgentID][]string)

	for _, n := range s.Nodes() {
		if _, dup := gd.Nodes.Get(n.Label); dup {
			logging.Warn("nodes share a label, export keeps the last", "label", n.Label, "node", n.ID)
		}
		gd.Nodes.Set(n.Label, nodeEntry{Type: NodeType(n), UserData: n.Label})
		for _, id := range n.Agents {
			if !slices.Contains(authority[id], n.Label) {
				authority[id] = append(authority[id], n.Label)
			}
		}
	}

	gd.Edges = make([]edgeEntry, 0, s.EdgeCount())
	for _, e := range s.Edges() {
		from, _ := s.Node(e.From)
		to, _ := s.Node(e.To)
		gd.Edges = append(gd.Edges, edgeEntry{
			Source:   from.Label,
			Target:   to.Label,
			UserData: edgeData{Type: string(e.Type)},
		})
	}

	for _, a := range s.Agents() {
		labels := authority[a.ID]
		if labels == nil {
			labels = []string{}
		}
		gd.Agents.Set(a.Name, agentEntry{Authority: labels})
	}
	return document{GraphData: gd}
}
