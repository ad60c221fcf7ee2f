package canvas

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
)

// Toolbar placement area for nodes added without a drop position.
const (
	placeX, placeW = 120, 400
	placeY, placeH = 100, 300
)

// AddNode creates a node from a toolbar item at a random position and
// commits it to history.
func (s *Session) AddNode(ctx context.Context, item ToolbarItem) (graph.Node, error) {
	pos := graph.Position{
		X: placeX + s.rand()*placeW,
		Y: placeY + s.rand()*placeH,
	}
	return s.insert(ctx, item, pos)
}

// HandleDrop creates a node from a dropped toolbar item at the projected
// drop point. A drop without a DragMIME payload is ignored and reports
// false.
func (s *Session) HandleDrop(ctx context.Context, d Drop, p Projector) (graph.Node, bool, error) {
	raw := d.Data[DragMIME]
	if raw == "" {
		return graph.Node{}, false, nil
	}
	var item ToolbarItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return graph.Node{}, false, fmt.Errorf("decode %s payload: %w", DragMIME, err)
	}
	n, err := s.insert(ctx, item, p.Project(d.ClientX, d.ClientY))
	return n, err == nil, err
}

func (s *Session) insert(ctx context.Context, item ToolbarItem, pos graph.Position) (graph.Node, error) {
	kind := graph.ParseKind(item.Kind)
	n := graph.NewNode(s.nodeIDs.Next(), kind, item.Label, item.Icon, pos)
	if err := s.graph.AddNode(n); err != nil {
		return graph.Node{}, err
	}
	s.commit(ctx)
	s.logger.Debug("node added", "node_id", n.ID, "kind", string(kind))
	return n, nil
}

// ApplyNodeChanges applies a change batch from the rendering collaborator.
// A batch that ends a drag commits history once.
func (s *Session) ApplyNodeChanges(ctx context.Context, changes []NodeChange) {
	var removed []string
	dragEnded := false

	for _, c := range changes {
		switch c.Type {
		case ChangePosition:
			if c.Position != nil {
				s.ignoreMissing(c.ID, s.graph.SetPosition(c.ID, *c.Position))
			}
			if c.Dragging != nil && !*c.Dragging {
				dragEnded = true
			}
		case ChangeSelect:
			s.ignoreMissing(c.ID, s.graph.SelectNode(c.ID, c.Selected))
		case ChangeRemove:
			removed = append(removed, c.ID)
		case ChangeDimensions:
			// Sizes are measured by the renderer and not stored.
		default:
			s.logger.Debug("unknown node change", "type", c.Type, "node_id", c.ID)
		}
	}

	if len(removed) > 0 {
		s.graph.Remove(removed, nil)
	}
	if dragEnded {
		s.commit(ctx)
	}
}

// ApplyEdgeChanges applies an edge change batch. Edge changes never commit
// history.
func (s *Session) ApplyEdgeChanges(_ context.Context, changes []EdgeChange) {
	var removed []string
	for _, c := range changes {
		switch c.Type {
		case ChangeSelect:
			s.graph.SelectEdge(c.ID, c.Selected)
		case ChangeRemove:
			removed = append(removed, c.ID)
		default:
			s.logger.Debug("unknown edge change", "type", c.Type, "edge_id", c.ID)
		}
	}
	if len(removed) > 0 {
		s.graph.Remove(nil, removed)
	}
}

// Connect adds an animated, styled edge for c and commits history.
func (s *Session) Connect(ctx context.Context, c Connection) (graph.Edge, error) {
	e := graph.Edge{
		ID:           s.edgeIDs.Next(),
		Source:       c.Source,
		Target:       c.Target,
		SourceHandle: c.SourceHandle,
		TargetHandle: c.TargetHandle,
		Animated:     true,
		Style:        graph.DefaultEdgeStyle,
	}
	if err := s.graph.AddEdge(e); err != nil {
		return graph.Edge{}, err
	}
	s.commit(ctx)
	return e, nil
}

// DeleteSelected removes selected nodes and edges, plus every edge
// touching a removed node, as one history commit. It reports false and
// commits nothing when nothing is selected.
func (s *Session) DeleteSelected(ctx context.Context) bool {
	nodeIDs, edgeIDs := s.graph.Selected()
	if len(nodeIDs) == 0 && len(edgeIDs) == 0 {
		return false
	}
	nodes, edges := s.graph.Remove(nodeIDs, edgeIDs)
	s.commit(ctx)
	s.logger.Debug("selection deleted", "nodes", nodes, "edges", edges)
	return true
}

// Undo restores the previous committed graph. Runtime state and the
// output log are unaffected.
func (s *Session) Undo(ctx context.Context) bool {
	applied := s.history.Undo()
	s.afterHistory(ctx, "undo", applied)
	return applied
}

// Redo re-applies the last undone graph.
func (s *Session) Redo(ctx context.Context) bool {
	applied := s.history.Redo()
	s.afterHistory(ctx, "redo", applied)
	return applied
}

func (s *Session) commit(ctx context.Context) {
	s.history.Commit()
	s.afterHistory(ctx, "commit", true)
}

func (s *Session) afterHistory(ctx context.Context, op string, applied bool) {
	if applied {
		s.metrics.RecordHistory(ctx, op)
	}
	depth, future := s.history.Depth()
	observability.LogHistory(s.logger, op, applied, depth, future)
}

func (s *Session) ignoreMissing(id string, err error) {
	if err != nil {
		s.logger.Debug("change for unknown node", "node_id", id, "error", err)
	}
}
