package highlight

import "github.com/ritzau/jsat-analyzer/pkg/graph"

// Selector tracks the active highlight selection. Selecting the active
// request again turns highlighting off.
type Selector struct {
	engine *Engine
	active *Request
}

// NewSelector creates a selector with nothing highlighted
func NewSelector(e *Engine) *Selector {
	return &Selector{engine: e}
}

// Toggle activates req, or deactivates it if it is already active, and
// returns the groups now shown
func (sel *Selector) Toggle(s graph.Snapshot, req Request) []Group {
	if !req.Mode.Indexed() {
		req.Index = 0
	}
	if sel.active != nil && *sel.active == req {
		sel.active = nil
		return nil
	}
	sel.active = &req
	return sel.engine.Groups(s, req)
}

// Current recomputes the active selection against s
func (sel *Selector) Current(s graph.Snapshot) []Group {
	if sel.active == nil {
		return nil
	}
	return sel.engine.Groups(s, *sel.active)
}

// Active returns the active request
func (sel *Selector) Active() (Request, bool) {
	if sel.active == nil {
		return Request{}, false
	}
	return *sel.active, true
}

// Clear turns highlighting off
func (sel *Selector) Clear() {
	sel.active = nil
}
