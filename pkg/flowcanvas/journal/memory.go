package journal

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps steps in process memory for the life of the session.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string][]Step
	order  []string
	closed bool
}

// NewMemoryStore creates an empty in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]Step)}
}

// Append implements Store.
func (m *MemoryStore) Append(step Step) error {
	if err := validate(step); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	steps, ok := m.runs[step.RunID]
	if !ok {
		m.order = append(m.order, step.RunID)
	}
	for _, s := range steps {
		if s.Sequence == step.Sequence {
			return fmt.Errorf("run %s step %d: %w", step.RunID, step.Sequence, ErrDuplicateStep)
		}
	}

	step.Data = append([]byte(nil), step.Data...)
	if len(step.Data) == 0 {
		step.Data = nil
	}
	m.runs[step.RunID] = append(steps, step)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(runID string) ([]Step, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	steps := m.runs[runID]
	out := make([]Step, len(steps))
	for i, s := range steps {
		s.Data = append([]byte(nil), s.Data...)
		if len(s.Data) == 0 {
			s.Data = nil
		}
		out[i] = s
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// Runs implements Store.
func (m *MemoryStore) Runs() ([]RunInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	out := make([]RunInfo, 0, len(m.order))
	for _, id := range m.order {
		steps := m.runs[id]
		info := RunInfo{RunID: id, Steps: len(steps)}
		for i, s := range steps {
			if i == 0 || s.Timestamp.Before(info.StartedAt) {
				info.StartedAt = s.Timestamp
			}
		}
		out = append(out, info)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if _, ok := m.runs[runID]; !ok {
		return nil
	}

	delete(m.runs, runID)
	for i, id := range m.order {
		if id == runID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
