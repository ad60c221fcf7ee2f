// Package history keeps undo and redo stacks of whole-graph snapshots.
//
// The manager never reads nodes or edges itself; it only exchanges
// snapshots with a Graph. Runtime state and the output log live elsewhere
// and are never rolled back.
package history

import (
	"sync"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
)

// Graph is the snapshot source and restore target.
// *graph.Store satisfies it.
type Graph interface {
	Snapshot() graph.Snapshot
	Restore(graph.Snapshot)
}

// Manager holds the history and future snapshot stacks.
//
// History always holds at least one entry: the state captured at New.
// Its last entry is the most recently committed state.
type Manager struct {
	mu      sync.Mutex
	g       Graph
	history []graph.Snapshot
	future  []graph.Snapshot
	limit   int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit caps the history stack at n entries, discarding the oldest.
// Zero or negative means unbounded.
func WithLimit(n int) Option {
	return func(m *Manager) {
		m.limit = n
	}
}

// New creates a manager whose initial entry is the current state of g.
func New(g Graph, opts ...Option) *Manager {
	m := &Manager{g: g}
	for _, opt := range opts {
		opt(m)
	}
	m.history = []graph.Snapshot{g.Snapshot()}
	return m
}

// Commit records the current graph state and clears the redo stack.
// Call it once after each structural mutation, not on intermediate frames.
func (m *Manager) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, m.g.Snapshot())
	m.future = nil
	m.trim()
}

// Undo restores the previous committed state. The live state becomes the
// head of the redo stack. It is a no-op, returning false, when only the
// initial entry remains.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) <= 1 {
		return false
	}

	live := m.g.Snapshot()
	m.future = append([]graph.Snapshot{live}, m.future...)
	m.history = m.history[:len(m.history)-1]
	m.g.Restore(m.history[len(m.history)-1])
	return true
}

// Redo re-applies the head of the redo stack, pushing the live state onto
// history first. It returns false when there is nothing to redo.
func (m *Manager) Redo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.future) == 0 {
		return false
	}

	next := m.future[0]
	m.future = m.future[1:]
	m.history = append(m.history, m.g.Snapshot())
	m.trim()
	m.g.Restore(next)
	return true
}

// CanUndo reports whether Undo would change anything.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history) > 1
}

// CanRedo reports whether Redo would change anything.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

// Depth returns the sizes of the history and future stacks.
func (m *Manager) Depth() (history, future int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history), len(m.future)
}

func (m *Manager) trim() {
	if m.limit <= 0 || len(m.history) <= m.limit {
		return
	}
	drop := len(m.history) - m.limit
	m.history = append([]graph.Snapshot(nil), m.history[drop:]...)
}
