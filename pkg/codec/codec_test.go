package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/logging"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) graph.Snapshot {
	t.Helper()
	g := graph.New()
	f1 := g.AddNode(model.NodeFunction, model.LayerSynchrony, "Plan", model.Position{})
	r1 := g.AddNode(model.NodeResource, model.LayerCoordination, "Map", model.Position{})
	f2 := g.AddNode(model.NodeFunction, model.LayerDistributed, "Fly", model.Position{})
	g.AddNode(model.NodeResource, model.LayerBase, "Fuel", model.Position{})
	_, err := g.CreateAgent("Pilot", "blue")
	require.NoError(t, err)
	_, err = g.CreateAgent("Tower", "green")
	require.NoError(t, err)
	require.NoError(t, g.AssignAgent(f1, "Pilot"))
	require.NoError(t, g.AssignAgent(f1, "Tower"))
	require.NoError(t, g.AssignAgent(f2, "Pilot"))
	require.NoError(t, g.AddEdge(f1, r1, model.EdgeHard))
	require.NoError(t, g.AddEdge(r1, f2, model.EdgeSoft))
	return g.Snapshot()
}

type nodeKey struct {
	Label  string
	Type   model.NodeType
	Layer  model.Layer
	Agents string
}

type edgeKey struct {
	Source, Target string
	Type           model.EdgeType
}

// canonical reduces a snapshot to the facts a document preserves
func canonical(s graph.Snapshot) ([]nodeKey, []edgeKey) {
	var nodes []nodeKey
	for _, n := range s.Nodes() {
		names := s.AgentNames(n)
		slices.Sort(names)
		nodes = append(nodes, nodeKey{n.Label, n.Type, n.Layer, strings.Join(names, ",")})
	}
	var edges []edgeKey
	for _, e := range s.Edges() {
		from, _ := s.Node(e.From)
		to, _ := s.Node(e.To)
		edges = append(edges, edgeKey{from.Label, to.Label, e.Type})
	}
	slices.SortFunc(edges, func(a, b edgeKey) int { return strings.Compare(a.Source+"\x00"+a.Target, b.Source+"\x00"+b.Target) })
	return nodes, edges
}

func TestMarshalShape(t *testing.T) {
	data, err := Marshal(sample(t))
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "\n    \"GraphData\": {")
	assert.Contains(t, text, `"Type": "SynchronyFunction"`)
	assert.Contains(t, text, `"Type": "CoordinationGroundingResource"`)
	assert.Contains(t, text, `"type": "soft"`)

	// Nodes keep graph order and agents keep registry order
	assert.Less(t, strings.Index(text, `"Plan": {`), strings.Index(text, `"Fuel": {`))
	assert.Less(t, strings.Index(text, `"Unassigned": {`), strings.Index(text, `"Pilot": {`))
	assert.Less(t, strings.Index(text, `"Pilot": {`), strings.Index(text, `"Tower": {`))

	var doc struct {
		GraphData struct {
			Agents map[string]struct{ Authority []string }
		}
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"Plan", "Fly"}, doc.GraphData.Agents["Pilot"].Authority)
	assert.Equal(t, []string{"Map", "Fuel"}, doc.GraphData.Agents["Unassigned"].Authority)
}

func TestRoundTrip(t *testing.T) {
	original := sample(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, original))

	decoded, report, err := Decode(&buf)
	require.NoError(t, err)
	assert.True(t, report.Empty(), "unexpected skips: %v", report.Skipped)

	wantNodes, wantEdges := canonical(original)
	gotNodes, gotEdges := canonical(decoded)
	assert.Equal(t, wantNodes, gotNodes)
	assert.Equal(t, wantEdges, gotEdges)
}

func TestUnmarshalPlacesNodesByLayer(t *testing.T) {
	doc := `{"GraphData": {"Nodes": {
		"A": {"Type": "BaseEnvironmentResource", "UserData": "A"},
		"B": {"Type": "BaseEnvironmentResource", "UserData": "B"},
		"C": {"Type": "SynchronyFunction", "UserData": "C"}
	}}}`

	s, _, err := Unmarshal([]byte(doc))
	require.NoError(t, err)

	nodes := s.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, model.Position{X: 100, Y: 550}, nodes[0].Position)
	assert.Equal(t, model.Position{X: 220, Y: 550}, nodes[1].Position)
	assert.Equal(t, model.Position{X: 100, Y: 100}, nodes[2].Position)
	assert.Equal(t, "C", nodes[2].Label)
}

func TestUnmarshalUnresolvedEdge(t *testing.T) {
	doc := `{"GraphData": {
		"Nodes": {"F1": {"Type": "DistributedWorkFunction", "UserData": "F1"},
		          "R1": {"Type": "BaseEnvironmentResource", "UserData": "R1"}},
		"Edges": [
			{"Source": "F1", "Target": "R1", "UserData": {"type": "hard"}},
			{"Source": "F1", "Target": "Ghost", "UserData": {"type": "soft"}},
			{"Target": "R1"},
			42
		]
	}}`

	s, report, err := Unmarshal([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 1, s.EdgeCount())
	require.Len(t, report.Skipped, 3)
	assert.Equal(t, "F1 -> Ghost", report.Skipped[0].Item)
}

func TestUnmarshalKeepsSameTypeEdges(t *testing.T) {
	doc := `{"GraphData": {
		"Nodes": {"F1": {"Type": "SynchronyFunction"}, "F2": {"Type": "SynchronyFunction"}},
		"Edges": [{"Source": "F1", "Target": "F2", "UserData": {"type": "SOFT"}}, {"Source": "F2", "Target": "F2"}]
	}}`

	s, _, err := Unmarshal([]byte(doc))
	require.NoError(t, err)

	edges := s.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, model.EdgeSoft, edges[0].Type)
	assert.Equal(t, model.EdgeHard, edges[1].Type, "missing type means hard")

	n, _ := s.NodeByLabel("F1")
	assert.Equal(t, "F1", n.Label, "label falls back to the key")
}

func TestUnmarshalAgents(t *testing.T) {
	doc := "\xEF\xBB\xBF" + `{"GraphData": {
		"Nodes": {"F1": {"Type": "DistributedWorkFunction"}, "F2": {"Type": "DistributedWorkFunction"}, "R1": {"Type": "Resource"}},
		"Agents": {
			"Unassigned": {"Authority": ["R1"]},
			"Ops": {"Authority": "F1"},
			"Dev": {"Authority": ["F1", "F2", "Nowhere", 7]}
		}
	}}`

	s, report, err := Unmarshal([]byte(doc))
	require.NoError(t, err)

	agents := s.Agents()
	require.Len(t, agents, 3)
	assert.Equal(t, "Unassigned", agents[0].Name)
	assert.Equal(t, model.UnassignedColor, agents[0].Color)
	assert.Equal(t, "Ops", agents[1].Name)
	assert.Equal(t, AgentColor("Ops"), agents[1].Color)

	f1, _ := s.NodeByLabel("F1")
	assert.Equal(t, []string{"Ops", "Dev"}, s.AgentNames(f1))
	r1, _ := s.NodeByLabel("R1")
	assert.Equal(t, []string{"Unassigned"}, s.AgentNames(r1))
	assert.Equal(t, model.LayerBase, r1.Layer)
	assert.Equal(t, model.NodeResource, r1.Type)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "Nowhere", report.Skipped[0].Item)
}

func TestUnmarshalMalformed(t *testing.T) {
	docs := map[string]string{
		"invalid json":      `{"GraphData": `,
		"missing GraphData": `{"Other": {}}`,
		"top-level array":   `[]`,
		"nodes as list":     `{"GraphData": {"Nodes": []}}`,
		"edges as object":   `{"GraphData": {"Edges": {}}}`,
		"agents as string":  `{"GraphData": {"Agents": "x"}}`,
	}
	for name, doc := range docs {
		_, _, err := Unmarshal([]byte(doc))
		assert.True(t, errors.Is(err, ErrMalformedDocument), "%s: got %v", name, err)
	}
}

func TestParseNodeType(t *testing.T) {
	tests := []struct {
		in    string
		typ   model.NodeType
		layer model.Layer
	}{
		{"DistributedWorkFunction", model.NodeFunction, model.LayerDistributed},
		{"coordination groundingResource", model.NodeResource, model.LayerCoordination},
		{"Synchrony", model.NodeResource, model.LayerSynchrony},
		{"MysteryFunction", model.NodeFunction, model.LayerBase},
		{"", model.NodeResource, model.LayerBase},
	}
	for _, tt := range tests {
		typ, layer := ParseNodeType(tt.in)
		if typ != tt.typ || layer != tt.layer {
			t.Errorf("ParseNodeType(%q) = (%s, %s), expected (%s, %s)", tt.in, typ, layer, tt.typ, tt.layer)
		}
	}
}

func TestAgentColor(t *testing.T) {
	c := AgentColor("Pilot")
	assert.Len(t, c, 7)
	assert.Equal(t, c, AgentColor("Pilot"))
	for _, r := range c[1:] {
		assert.Contains(t, colorAlphabet, string(r))
	}
}

func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("export then import preserves labels, layers, agents and edges", prop.ForAll(
		func(layers []int, codes []int) bool {
			g := graph.New()
			g.CreateAgent("A", "red")
			g.CreateAgent("B", "blue")
			var ids []model.NodeID
			for i, l := range layers {
				t := model.NodeFunction
				if i%2 == 1 {
					t = model.NodeResource
				}
				id := g.AddNode(t, model.Layers[l], "n"+strings.Repeat("x", i), model.Position{})
				if l%2 == 0 {
					g.AssignAgent(id, "A")
				}
				if i%3 == 0 {
					g.AssignAgent(id, "B")
				}
				ids = append(ids, id)
			}
			for _, c := range codes {
				if len(ids) == 0 {
					break
				}
				et := model.EdgeHard
				if c%2 == 0 {
					et = model.EdgeSoft
				}
				g.AddEdge(ids[(c/7)%len(ids)], ids[c%len(ids)], et)
			}
			original := g.Snapshot()

			data, err := Marshal(original)
			if err != nil {
				return false
			}
			decoded, report, err := Unmarshal(data)
			if err != nil || !report.Empty() {
				return false
			}
			wn, we := canonical(original)
			gn, ge := canonical(decoded)
			return slices.Equal(wn, gn) && slices.Equal(we, ge)
		},
		gen.SliceOf(gen.IntRange(0, 3)),
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.TestingRun(t)
}

func TestMarshalSharedLabels(t *testing.T) {
	var logs bytes.Buffer
	logging.SetOutput(&logs)
	defer logging.SetOutput(os.Stderr)

	g := graph.New()
	g.AddNode(model.NodeFunction, "", "", model.Position{})
	g.AddNode(model.NodeFunction, "", "", model.Position{})
	g.AddNode(model.NodeResource, "", "", model.Position{})

	data, err := Marshal(g.Snapshot())
	require.NoError(t, err)

	s, report, err := Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 1, strings.Count(logs.String(), "nodes share a label"))
	assert.Contains(t, logs.String(), "label=F")

	var doc struct {
		GraphData struct {
			Agents map[string]struct {
				Authority []string
			}
		}
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"F", "R"}, doc.GraphData.Agents[model.UnassignedName].Authority)
}
