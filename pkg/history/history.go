// Package history implements bounded undo/redo over immutable state values.
package history

// DefaultLimit is the number of undo steps kept
const DefaultLimit = 40

// Manager keeps two bounded stacks of states. S should be an immutable value
// (such as graph.Snapshot); the manager never copies it.
type Manager[S any] struct {
	limit int
	undo  []S
	redo  []S
}

// New creates a manager keeping at most limit states per stack.
// A non-positive limit selects DefaultLimit.
func New[S any](limit int) *Manager[S] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager[S]{limit: limit}
}

// Limit returns the stack capacity
func (m *Manager[S]) Limit() int {
	return m.limit
}

// BeforeMutation records current as the state to return to and clears redo
func (m *Manager[S]) BeforeMutation(current S) {
	m.undo = push(m.undo, current, m.limit)
	clear(m.redo)
	m.redo = m.redo[:0]
}

// Undo returns the previous state and records current for redo.
// Returns false if there is nothing to undo.
func (m *Manager[S]) Undo(current S) (S, bool) {
	var prev S
	if len(m.undo) == 0 {
		return prev, false
	}
	prev, m.undo = pop(m.undo)
	m.redo = push(m.redo, current, m.limit)
	return prev, true
}

// Redo returns the state undone last and records current for undo.
// Returns false if there is nothing to redo.
func (m *Manager[S]) Redo(current S) (S, bool) {
	var next S
	if len(m.redo) == 0 {
		return next, false
	}
	next, m.redo = pop(m.redo)
	m.undo = push(m.undo, current, m.limit)
	return next, true
}

// CanUndo returns true if Undo would change state
func (m *Manager[S]) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo returns true if Redo would change state
func (m *Manager[S]) CanRedo() bool { return len(m.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks
func (m *Manager[S]) Depth() (undo, redo int) {
	return len(m.undo), len(m.redo)
}

// Reset drops all recorded states
func (m *Manager[S]) Reset() {
	m.undo = nil
	m.redo = nil
}

// Begin starts a gesture: several writes that undo as one step. The state
// before the gesture is captured now and recorded on Commit.
func (m *Manager[S]) Begin(current S) *Gesture[S] {
	return &Gesture[S]{m: m, before: current}
}

// Gesture captures the state before a multi-write user action
type Gesture[S any] struct {
	m      *Manager[S]
	before S
	done   bool
}

// Before returns the captured state
func (g *Gesture[S]) Before() S {
	return g.before
}

// Commit records the captured state once. Later calls do nothing.
func (g *Gesture[S]) Commit() {
	if g.done {
		return
	}
	g.done = true
	g.m.BeforeMutation(g.before)
}

// Discard ends the gesture without recording anything
func (g *Gesture[S]) Discard() {
	g.done = true
}

// Done returns true once the gesture was committed or discarded
func (g *Gesture[S]) Done() bool {
	return g.done
}

// push appends s, evicting the oldest entry when the stack is full
func push[S any](stack []S, s S, limit int) []S {
	if len(stack) >= limit {
		var zero S
		stack[0] = zero
		stack = stack[1:]
	}
	return append(stack, s)
}

func pop[S any](stack []S) (S, []S) {
	var zero S
	top := stack[len(stack)-1]
	stack[len(stack)-1] = zero
	return top, stack[:len(stack)-1]
}
