package graph

import (
	"encoding/json"
	"fmt"
)

// Position is a point in graph space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a typed unit of work on the canvas.
type Node struct {
	ID       string
	Kind     Kind
	Label    string
	Icon     string
	Position Position
	Status   Status
	Config   Config
	Selected bool
}

// NewNode returns an idle node of the given kind with empty config.
func NewNode(id string, kind Kind, label, icon string, pos Position) Node {
	return Node{
		ID:       id,
		Kind:     kind,
		Label:    label,
		Icon:     icon,
		Position: pos,
		Status:   StatusIdle,
		Config:   NewConfig(kind),
	}
}

// DisplayName returns the label, or the id when the label is empty.
func (n Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Config = n.Config.Clone()
	return n
}

// nodeWire is the rendering collaborator's node shape.
type nodeWire struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Position Position     `json:"position"`
	Selected bool         `json:"selected,omitempty"`
	Data     nodeDataWire `json:"data"`
}

type nodeDataWire struct {
	ID     string         `json:"id"`
	Label  string         `json:"label"`
	Icon   string         `json:"icon"`
	Kind   string         `json:"kind"`
	Status Status         `json:"status"`
	Config map[string]any `json:"config"`
}

// nodeType is the custom renderer registered with the canvas.
const nodeType = "custom"

// MarshalJSON encodes the node in the canvas wire shape.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeWire{
		ID:       n.ID,
		Type:     nodeType,
		Position: n.Position,
		Selected: n.Selected,
		Data: nodeDataWire{
			ID:     n.ID,
			Label:  n.Label,
			Icon:   n.Icon,
			Kind:   string(n.Kind),
			Status: n.Status,
			Config: n.Config.Map(),
		},
	})
}

// UnmarshalJSON decodes the canvas wire shape. Unknown kinds become generic
// and a missing status becomes idle.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode node: %w", err)
	}
	id := w.ID
	if id == "" {
		id = w.Data.ID
	}
	kind := ParseKind(w.Data.Kind)
	status := w.Data.Status
	if status == "" {
		status = StatusIdle
	}
	*n = Node{
		ID:       id,
		Kind:     kind,
		Label:    w.Data.Label,
		Icon:     w.Data.Icon,
		Position: w.Position,
		Status:   status,
		Config:   NewConfig(kind).Merge(w.Data.Config),
		Selected: w.Selected,
	}
	return nil
}

// EdgeStyle is display styling carried on an edge.
type EdgeStyle struct {
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// DefaultEdgeStyle is applied to edges created by connect.
var DefaultEdgeStyle = EdgeStyle{Stroke: "#4f9eed", StrokeWidth: 2}

// Edge is a directed connection from Source to Target.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Animated     bool      `json:"animated,omitempty"`
	Style        EdgeStyle `json:"style"`
	Selected     bool      `json:"selected,omitempty"`
}

// Touches reports whether the edge starts or ends at nodeID.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}
