package model

import (
	"fmt"
	"strings"
)

// NodeType represents the kind of a node in the work network
type NodeType string

const (
	NodeFunction NodeType = "Function" // Work that has to be performed
	NodeResource NodeType = "Resource" // Something a function consumes or produces
)

// Valid returns true if t is one of the known node types
func (t NodeType) Valid() bool {
	return t == NodeFunction || t == NodeResource
}

// Initial returns the one-letter default label for the type
func (t NodeType) Initial() string {
	if t == NodeResource {
		return "R"
	}
	return "F"
}

// ParseNodeType matches a node type name case-insensitively
func ParseNodeType(s string) (NodeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "function":
		return NodeFunction, nil
	case "resource":
		return NodeResource, nil
	}
	return "", fmt.Errorf("unknown node type %q", s)
}

// EdgeType represents the strength of an interdependency
type EdgeType string

const (
	EdgeHard EdgeType = "hard" // Essential interdependency
	EdgeSoft EdgeType = "soft" // Supportive interdependency
)

// ParseEdgeType maps "soft" (any case) to EdgeSoft and everything else to EdgeHard
func ParseEdgeType(s string) EdgeType {
	if strings.EqualFold(strings.TrimSpace(s), string(EdgeSoft)) {
		return EdgeSoft
	}
	return EdgeHard
}

// Flip returns the other edge type
func (t EdgeType) Flip() EdgeType {
	if t == EdgeSoft {
		return EdgeHard
	}
	return EdgeSoft
}

// Layer is one of the ordered organizational strata
type Layer string

const (
	LayerSynchrony    Layer = "Synchrony"
	LayerCoordination Layer = "Coordination Grounding"
	LayerDistributed  Layer = "Distributed Work"
	LayerBase         Layer = "Base Environment"
)

// Layers lists all layers from top to bottom
var Layers = []Layer{LayerSynchrony, LayerCoordination, LayerDistributed, LayerBase}

// Valid returns true if l is one of the enumerated layers
func (l Layer) Valid() bool {
	for _, known := range Layers {
		if l == known {
			return true
		}
	}
	return false
}

// Index returns the position of the layer in top-to-bottom order, or -1
func (l Layer) Index() int {
	for i, known := range Layers {
		if l == known {
			return i
		}
	}
	return -1
}

// Compact returns the layer name with spaces removed (e.g. "DistributedWork")
func (l Layer) Compact() string {
	return strings.ReplaceAll(string(l), " ", "")
}

// DefaultLayer returns the layer a new node of type t is placed in
func DefaultLayer(t NodeType) Layer {
	if t == NodeResource {
		return LayerBase
	}
	return LayerDistributed
}

// MatchLayer finds the layer whose normalized name equals the normalized input.
// Normalization lowercases and strips spaces.
func MatchLayer(s string) (Layer, bool) {
	norm := normalizeLayer(s)
	for _, known := range Layers {
		if normalizeLayer(string(known)) == norm {
			return known, true
		}
	}
	return "", false
}

func normalizeLayer(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}
