// Package codec converts work networks to and from the JSON document format:
//
//	{ "GraphData": {
//	    "Nodes":  { "<label>": { "Type": "<Layer><Function|Resource>", "UserData": "<label>" } },
//	    "Edges":  [ { "Source": "<label>", "Target": "<label>", "UserData": { "type": "hard" } } ],
//	    "Agents": { "<name>": { "Authority": ["<label>"] } }
//	} }
//
// Documents identify nodes by label. Importing assigns fresh node IDs and
// positions, so a round trip preserves labels, types, layers, agent sets and
// edges but not identities or coordinates.
package codec

import (
	"errors"
	"hash/fnv"
)

// ErrMalformedDocument reports a document that can't be imported at all
var ErrMalformedDocument = errors.New("malformed document")

type document struct {
	GraphData graphData `json:"GraphData"`
}

type graphData struct {
	Nodes  object[nodeEntry]  `json:"Nodes"`
	Edges  []edgeEntry        `json:"Edges"`
	Agents object[agentEntry] `json:"Agents"`
}

type nodeEntry struct {
	Type     string `json:"Type"`
	UserData string `json:"UserData"`
}

type edgeEntry struct {
	Source   string   `json:"Source"`
	Target   string   `json:"Target"`
	UserData edgeData `json:"UserData"`
}

type edgeData struct {
	Type string `json:"type"`
}

type agentEntry struct {
	Authority []string `json:"Authority"`
}

// Skip describes one document item that was left out of an import
type Skip struct {
	Section string `json:"section"` // Nodes, Edges or Agents
	Item    string `json:"item"`
	Reason  string `json:"reason"`
}

// Report lists the items an import skipped
type Report struct {
	Skipped []Skip `json:"skipped"`
}

// Empty returns true if nothing was skipped
func (r Report) Empty() bool {
	return len(r.Skipped) == 0
}

func (r *Report) skip(section, item, reason string) {
	r.Skipped = append(r.Skipped, Skip{Section: section, Item: item, Reason: reason})
}

const colorAlphabet = "ABCDEF89"

// AgentColor derives a stable display color from an agent name
func AgentColor(name string) string {
	h := fnv.New64a()
	h.Write([]byte(name))
	v := h.Sum64()

	color := []byte{'#'}
	for range 6 {
		color = append(color, colorAlphabet[v%uint64(len(colorAlphabet))])
		v /= uint64(len(colorAlphabet))
	}
	return string(color)
}
