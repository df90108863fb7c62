package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/layout"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

type rawDocument struct {
	GraphData *rawGraphData `json:"GraphData"`
}

type rawGraphData struct {
	Nodes  object[json.RawMessage] `json:"Nodes"`
	Edges  []json.RawMessage       `json:"Edges"`
	Agents object[json.RawMessage] `json:"Agents"`
}

// Decode reads a document from r. See Unmarshal.
func Decode(r io.Reader) (graph.Snapshot, Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return graph.Snapshot{}, Report{}, fmt.Errorf("read document: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal builds a snapshot from a document. Invalid JSON, a missing
// GraphData object, or Nodes/Edges/Agents of the wrong kind fail with
// ErrMalformedDocument. Individual items that are malformed or refer to
// unknown labels are skipped and listed in the report. Edges are not checked
// for Function/Resource alternation.
func Unmarshal(data []byte) (graph.Snapshot, Report, error) {
	var report Report
	data = bytes.TrimPrefix(data, bom)

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return graph.Snapshot{}, report, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.GraphData == nil {
		return graph.Snapshot{}, report, fmt.Errorf("%w: missing GraphData", ErrMalformedDocument)
	}
	gd := doc.GraphData
	b := graph.NewBuilder()

	// Agents first so node agent sets can be resolved by label
	labelAgents := make(map[string][]model.AgentID)
	var authorityOrder []string
	for _, m := range gd.Agents.members {
		labels, err := authority(m.value)
		if err != nil {
			report.skip("Agents", m.key, err.Error())
			continue
		}
		name := strings.TrimSpace(m.key)
		if name == "" {
			report.skip("Agents", m.key, "empty agent name")
			continue
		}
		color := AgentColor(name)
		if name == model.UnassignedName {
			color = ""
		}
		id := b.Agent(name, color)
		for _, l := range labels {
			if _, seen := labelAgents[l]; !seen {
				authorityOrder = append(authorityOrder, l)
			}
			labelAgents[l] = append(labelAgents[l], id)
		}
	}

	placer := layout.NewPlacer()
	labelIDs := make(map[string]model.NodeID, gd.Nodes.Len())
	for _, m := range gd.Nodes.members {
		var entry struct {
			Type     string  `json:"Type"`
			UserData *string `json:"UserData"`
		}
		if err := json.Unmarshal(m.value, &entry); err != nil {
			report.skip("Nodes", m.key, "malformed node")
			continue
		}
		t, layer := ParseNodeType(entry.Type)
		label := m.key
		if entry.UserData != nil {
			label = *entry.UserData
		}
		labelIDs[m.key] = b.Node(t, layer, label, placer.Place(layer), labelAgents[m.key])
	}

	for _, l := range authorityOrder {
		if _, ok := labelIDs[l]; !ok {
			report.skip("Agents", l, "authority refers to an unknown node")
		}
	}

	for i, raw := range gd.Edges {
		var entry struct {
			Source   *string         `json:"Source"`
			Target   *string         `json:"Target"`
			UserData json.RawMessage `json:"UserData"`
		}
		item := fmt.Sprintf("#%d", i)
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Source == nil || entry.Target == nil {
			report.skip("Edges", item, "malformed edge")
			continue
		}
		item = *entry.Source + " -> " + *entry.Target
		u, okU := labelIDs[*entry.Source]
		v, okV := labelIDs[*entry.Target]
		if !okU || !okV {
			report.skip("Edges", item, "edge refers to an unknown node")
			continue
		}
		if err := b.Edge(u, v, edgeType(entry.UserData)); err != nil {
			report.skip("Edges", item, err.Error())
		}
	}

	return b.Build(), report, nil
}

// ParseNodeType splits a document type string into node type and layer.
// A missing Function/Resource suffix means Resource; an unknown layer prefix
// means Base Environment.
func ParseNodeType(s string) (model.NodeType, model.Layer) {
	t := model.NodeResource
	prefix := s
	if p, ok := strings.CutSuffix(s, string(model.NodeFunction)); ok {
		t, prefix = model.NodeFunction, p
	} else if p, ok := strings.CutSuffix(s, string(model.NodeResource)); ok {
		prefix = p
	}
	layer, ok := model.MatchLayer(prefix)
	if !ok {
		layer = model.LayerBase
	}
	return t, layer
}

// authority reads an Authority list. A single string is the legacy shape of
// a one-element list. Non-string entries are ignored.
func authority(raw json.RawMessage) ([]string, error) {
	var entry struct {
		Authority json.RawMessage `json:"Authority"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, errors.New("malformed agent")
	}
	if len(entry.Authority) == 0 || string(entry.Authority) == "null" {
		return nil, nil
	}

	var single string
	if err := json.Unmarshal(entry.Authority, &single); err == nil {
		return []string{single}, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(entry.Authority, &list); err != nil {
		return nil, errors.New("authority must be a list of labels")
	}
	labels := make([]string, 0, len(list))
	for _, item := range list {
		var l string
		if json.Unmarshal(item, &l) == nil {
			labels = append(labels, l)
		}
	}
	return labels, nil
}

func edgeType(userData json.RawMessage) model.EdgeType {
	var data struct {
		Type string `json:"type"`
	}
	if len(userData) > 0 {
		_ = json.Unmarshal(userData, &data)
	}
	return model.ParseEdgeType(data.Type)
}
