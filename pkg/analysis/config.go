// Package analysis holds the configuration and the derived structures shared
// by the metric and highlight engines, so both observe identical results.
package analysis

import (
	"maps"
	"slices"
)

// DefaultCycleCap bounds cycle enumeration
const DefaultCycleCap = 100

// Widths holds the stroke widths of the highlight modes
type Widths struct {
	Cycles          float64
	SingleCycle     float64
	Interdependence float64
	Community       float64
}

// Config is an immutable set of analysis parameters. Use NewConfig to build
// one; the zero value behaves like DefaultConfig.
type Config struct {
	cycleCap             int
	descriptions         map[string]string
	cyclePalette         []string
	communityPalette     []string
	interdependenceColor string
	widths               Widths
	set                  bool
}

// Option customizes a Config under construction
type Option func(*Config)

// WithCycleCap sets the maximum number of cycles enumerated
func WithCycleCap(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.cycleCap = n
		}
	}
}

// WithCyclePalette replaces the colors assigned to cycles by index
func WithCyclePalette(colors ...string) Option {
	return func(c *Config) {
		if len(colors) > 0 {
			c.cyclePalette = slices.Clone(colors)
		}
	}
}

// WithCommunityPalette replaces the colors assigned to communities by index
func WithCommunityPalette(colors ...string) Option {
	return func(c *Config) {
		if len(colors) > 0 {
			c.communityPalette = slices.Clone(colors)
		}
	}
}

// WithInterdependenceColor sets the color of cross-boundary highlights
func WithInterdependenceColor(color string) Option {
	return func(c *Config) {
		if color != "" {
			c.interdependenceColor = color
		}
	}
}

// WithWidths sets the highlight stroke widths
func WithWidths(w Widths) Option {
	return func(c *Config) { c.widths = w }
}

// WithDescription overrides the description of one metric
func WithDescription(metric, text string) Option {
	return func(c *Config) { c.descriptions[metric] = text }
}

// DefaultConfig returns the standard configuration
func DefaultConfig() Config {
	return Config{
		cycleCap:     DefaultCycleCap,
		descriptions: maps.Clone(defaultDescriptions),
		cyclePalette: []string{
			"#FF1493", // DeepPink
			"#00FF00", // Lime
			"#00FFFF", // Cyan
			"#FFD700", // Gold
			"#FF4500", // OrangeRed
			"#9400D3", // DarkViolet
			"#32CD32", // LimeGreen
			"#1E90FF", // DodgerBlue
		},
		communityPalette: []string{
			"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
			"#98D8C8", "#F7DC6F", "#BB8FCE", "#B2BABB",
		},
		interdependenceColor: "#FF0000",
		widths:               Widths{Cycles: 8, SingleCycle: 10, Interdependence: 8, Community: 10},
		set:                  true,
	}
}

// NewConfig returns DefaultConfig with the options applied
func NewConfig(opts ...Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Config) resolved() Config {
	if !c.set {
		return DefaultConfig()
	}
	return c
}

// CycleCap returns the maximum number of cycles enumerated
func (c Config) CycleCap() int {
	return c.resolved().cycleCap
}

// Description returns the explanatory text of a metric
func (c Config) Description(metric string) (string, bool) {
	d, ok := c.resolved().descriptions[metric]
	return d, ok
}

// CycleColor returns the color of the cycle at index i
func (c Config) CycleColor(i int) string {
	p := c.resolved().cyclePalette
	return p[i%len(p)]
}

// CommunityColor returns the color of the community at sorted index i
func (c Config) CommunityColor(i int) string {
	p := c.resolved().communityPalette
	return p[i%len(p)]
}

// InterdependenceColor returns the color of cross-boundary highlights
func (c Config) InterdependenceColor() string {
	return c.resolved().interdependenceColor
}

// Widths returns the highlight stroke widths
func (c Config) Widths() Widths {
	return c.resolved().widths
}

var defaultDescriptions = map[string]string{
	"Density":                "The ratio of actual connections to potential connections.\nHigh density = highly connected.",
	"Cyclomatic Number":      "The number of fundamental independent loops.\nMeasures the structural complexity of feedback.",
	"Global Efficiency":      "A measure (0.0 - 1.0) of how easily information flows across the network.\nHigher is better for connectivity.",
	"Supportive Gain":        "The amount of efficiency provided specifically by 'Soft' edges.\nHigh gain = Critical reliance on soft interdependencies.",
	"Brittleness Ratio":      "The balance of Supportive (Soft) vs. Essential (Hard) edges.\nLow soft count may indicate a brittle, rigid system.",
	"Critical Vulnerability": "Checks if the 'Hard' skeleton of the graph is connected.\n'Fractured' means the system breaks if soft links fail.",
	"Interdependence":        "The percentage of edges that cross between different agents.\nHigh interdependence = High requirement for collaboration.",
	"Total Cycles":           "The total count of all feedback loops in the system.\nIndicates potential for recirculation or resonance.",
	"Avg Cycle Length":       "The average number of steps in a feedback loop.\nLong loops = delayed feedback.",
	"Modularity":             "How well the system divides into distinct, isolated groups (modules).\nHigh modularity = Low coupling between groups.",
	"Functional Redundancy":  "The average number of agents assigned to each function.\n>1.0 implies backup capacity exists.",
	"Agent Criticality":      "The agent with the most sole-authority tasks.\nLoss of this agent may cause most disruption.",
	"Collaboration Ratio":    "The percentage of functions that have shared authority.\nCould be a measure of system flexibility.",
}
