package session

import (
	"fmt"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/history"
	"github.com/ritzau/jsat-analyzer/pkg/layout"
	"github.com/ritzau/jsat-analyzer/pkg/logging"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

// Drag moves one node through any number of intermediate positions and
// records a single undo step for the whole gesture
type Drag struct {
	s       *Session
	id      model.NodeID
	gesture *history.Gesture[graph.Snapshot]
	last    graph.Snapshot
}

// BeginDrag starts dragging node id. The state before the drag is captured now.
func (s *Session) BeginDrag(id model.NodeID) (*Drag, error) {
	if _, ok := s.g.View().Node(id); !ok {
		return nil, fmt.Errorf("drag node %d: %w", id, graph.ErrNodeNotFound)
	}
	before := s.g.Snapshot()
	return &Drag{s: s, id: id, gesture: s.history.Begin(before), last: before}, nil
}

// Move places the node at pos. Moves are not recorded individually.
func (d *Drag) Move(pos model.Position) error {
	if d.gesture.Done() {
		return nil
	}
	if err := d.s.g.SetPosition(d.id, pos); err != nil {
		return err
	}
	d.publish()
	return nil
}

// Finish ends the drag. In the layered view the node snaps to the layer
// band nearest to its final position. A drag that changed nothing records
// nothing.
func (d *Drag) Finish(mode layout.ViewMode) error {
	if d.gesture.Done() {
		return nil
	}
	if mode == layout.ViewLayered {
		n, ok := d.s.g.View().Node(d.id)
		if !ok {
			d.gesture.Discard()
			return fmt.Errorf("drag node %d: %w", d.id, graph.ErrNodeNotFound)
		}
		if err := d.s.g.SetLayer(d.id, layout.LayerForY(n.Position.Y)); err != nil {
			d.gesture.Discard()
			return err
		}
	}
	if d.s.g.View().Equal(d.gesture.Before()) {
		d.gesture.Discard()
		return nil
	}
	d.gesture.Commit()
	logging.Debug("drag finished", "node", d.id, "mode", mode)
	d.publish()
	return nil
}

// Cancel ends the drag and puts the node back where it started
func (d *Drag) Cancel() {
	if d.gesture.Done() {
		return
	}
	d.gesture.Discard()
	d.s.g.Restore(d.gesture.Before())
	d.publish()
}

func (d *Drag) publish() {
	d.s.changed(d.last)
	d.last = d.s.g.Snapshot()
}
