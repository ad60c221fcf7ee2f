package graph

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors returned by Store mutations.
var (
	// ErrNodeNotFound indicates an id that does not resolve to a node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateID indicates a node or edge id already in the store.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrEmptyID indicates a node or edge with no id.
	ErrEmptyID = errors.New("id cannot be empty")
)

// Store holds the authoritative node and edge lists.
//
// Every method is safe for concurrent use and takes effect before it
// returns. Reads return copies; callers never alias stored state.
type Store struct {
	mu    sync.RWMutex
	nodes []Node
	edges []Edge
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// AddNode appends n.
func (s *Store) AddNode(n Node) error {
	if n.ID == "" {
		return ErrEmptyID
	}
	if n.Config.Params == nil {
		n.Config = NewConfig(n.Kind).Merge(n.Config.Extra)
	}
	if n.Status == "" {
		n.Status = StatusIdle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nodeIndex(n.ID) >= 0 {
		return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
	}
	s.nodes = append(s.nodes, n.Clone())
	return nil
}

// AddEdge appends e. Both endpoints must exist when the edge is added;
// later removal of an endpoint also removes the edge.
func (s *Store) AddEdge(e Edge) error {
	if e.ID == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edgeIndex(e.ID) >= 0 {
		return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateID)
	}
	if s.nodeIndex(e.Source) < 0 {
		return fmt.Errorf("edge source %s: %w", e.Source, ErrNodeNotFound)
	}
	if s.nodeIndex(e.Target) < 0 {
		return fmt.Errorf("edge target %s: %w", e.Target, ErrNodeNotFound)
	}
	s.edges = append(s.edges, e)
	return nil
}

// Remove deletes the given nodes and edges, plus every edge whose source
// or target is a removed node. It returns how many of each were removed.
func (s *Store) Remove(nodeIDs, edgeIDs []string) (nodes, edges int) {
	dropNode := toSet(nodeIDs)
	dropEdge := toSet(edgeIDs)

	s.mu.Lock()
	defer s.mu.Unlock()

	keptNodes := s.nodes[:0:0]
	for _, n := range s.nodes {
		if _, ok := dropNode[n.ID]; ok {
			nodes++
			continue
		}
		keptNodes = append(keptNodes, n)
	}

	keptEdges := s.edges[:0:0]
	for _, e := range s.edges {
		_, byID := dropEdge[e.ID]
		_, bySource := dropNode[e.Source]
		_, byTarget := dropNode[e.Target]
		if byID || bySource || byTarget {
			edges++
			continue
		}
		keptEdges = append(keptEdges, e)
	}

	s.nodes = keptNodes
	s.edges = keptEdges
	return nodes, edges
}

// PatchConfig shallow-merges patch into the node's config.
func (s *Store) PatchConfig(id string, patch map[string]any) error {
	return s.update(id, func(n *Node) {
		n.Config = n.Config.Merge(patch)
	})
}

// SetOutput records the latest run message and result on the node.
func (s *Store) SetOutput(id, msg string, result any) error {
	return s.PatchConfig(id, map[string]any{KeyLastMsg: msg, KeyLastResult: result})
}

// SetStatus sets the node's execution status.
func (s *Store) SetStatus(id string, status Status) error {
	return s.update(id, func(n *Node) {
		n.Status = status
	})
}

// SetPosition moves the node.
func (s *Store) SetPosition(id string, pos Position) error {
	return s.update(id, func(n *Node) {
		n.Position = pos
	})
}

// SelectNode sets the node's selection flag.
func (s *Store) SelectNode(id string, selected bool) error {
	return s.update(id, func(n *Node) {
		n.Selected = selected
	})
}

// SelectEdge sets the edge's selection flag. Unknown ids are ignored.
func (s *Store) SelectEdge(id string, selected bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.edgeIndex(id)
	if i < 0 {
		return false
	}
	s.edges[i].Selected = selected
	return true
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.nodeIndex(id)
	if i < 0 {
		return Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// FirstOfKind returns the earliest-added node of kind.
func (s *Store) FirstOfKind(kind Kind) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.nodes {
		if n.Kind == kind {
			return n.Clone(), true
		}
	}
	return Node{}, false
}

// Outgoing returns the targets of edges leaving id, in edge insertion order.
// Duplicate edges yield duplicate targets.
func (s *Store) Outgoing(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, e := range s.edges {
		if e.Source == id {
			out = append(out, e.Target)
		}
	}
	return out
}

// Nodes returns a copy of every node in insertion order.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges returns a copy of every edge in insertion order.
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Selected returns the ids of selected nodes and edges.
func (s *Store) Selected() (nodeIDs, edgeIDs []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.nodes {
		if n.Selected {
			nodeIDs = append(nodeIDs, n.ID)
		}
	}
	for _, e := range s.edges {
		if e.Selected {
			edgeIDs = append(edgeIDs, e.ID)
		}
	}
	return nodeIDs, edgeIDs
}

// Len returns the number of nodes and edges.
func (s *Store) Len() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), len(s.edges)
}

// Snapshot returns a deep copy of the current graph, taken atomically.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Nodes: s.nodes, Edges: s.edges}.Clone()
}

// Restore replaces the whole graph with a deep copy of snap.
func (s *Store) Restore(snap Snapshot) {
	c := snap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = c.Nodes
	s.edges = c.Edges
}

func (s *Store) update(id string, fn func(*Node)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("node %s: %w", id, ErrNodeNotFound)
	}
	fn(&s.nodes[i])
	return nil
}

func (s *Store) nodeIndex(id string) int {
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) edgeIndex(id string) int {
	for i := range s.edges {
		if s.edges[i].ID == id {
			return i
		}
	}
	return -1
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
