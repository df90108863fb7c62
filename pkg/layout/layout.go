// Package layout computes advisory node positions. Positions are never
// canonical: metrics ignore them and documents don't store them.
package layout

import (
	"math"

	"github.com/ritzau/jsat-analyzer/pkg/model"
)

// ViewMode selects how node positions are displayed
type ViewMode string

const (
	ViewFree    ViewMode = "FREE" // Nodes are drawn where they were placed
	ViewLayered ViewMode = "JSAT" // Nodes are drawn on their layer's band
)

const (
	startX = 100
	stepX  = 120
)

var bands = map[model.Layer]float64{
	model.LayerSynchrony:    100,
	model.LayerCoordination: 250,
	model.LayerDistributed:  400,
	model.LayerBase:         550,
}

// LayerY returns the vertical band of a layer. Unknown layers use the
// Base Environment band.
func LayerY(l model.Layer) float64 {
	if y, ok := bands[l]; ok {
		return y
	}
	return bands[model.LayerBase]
}

// LayerForY returns the layer whose band is closest to y. Ties go to the
// upper layer.
func LayerForY(y float64) model.Layer {
	best, dist := model.LayerBase, math.Inf(1)
	for _, l := range model.Layers {
		if d := math.Abs(y - bands[l]); d < dist {
			best, dist = l, d
		}
	}
	return best
}

// DisplayPosition returns where n is drawn in the given view mode
func DisplayPosition(n model.Node, mode ViewMode) model.Position {
	if mode == ViewLayered {
		return model.Position{X: n.Position.X, Y: LayerY(n.Layer)}
	}
	return n.Position
}

// Placer hands out positions left to right within each layer band
type Placer struct {
	next map[model.Layer]float64
}

// NewPlacer creates a placer with every layer starting at the left edge
func NewPlacer() *Placer {
	return &Placer{next: make(map[model.Layer]float64)}
}

// Place returns the next free position in layer l
func (p *Placer) Place(l model.Layer) model.Position {
	x, ok := p.next[l]
	if !ok {
		x = startX
	}
	p.next[l] = x + stepX
	return model.Position{X: x, Y: LayerY(l)}
}
