package canvas

import "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"

// Change types sent by the rendering collaborator.
const (
	ChangePosition   = "position"
	ChangeSelect     = "select"
	ChangeRemove     = "remove"
	ChangeDimensions = "dimensions"
)

// Dimensions is a measured node size.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NodeChange is one entry of a node change batch.
type NodeChange struct {
	Type     string          `json:"type"`
	ID       string          `json:"id"`
	Position *graph.Position `json:"position,omitempty"`
	// Dragging is false on the frame that ends a drag, true while
	// dragging, and nil for programmatic moves.
	Dragging   *bool       `json:"dragging,omitempty"`
	Selected   bool        `json:"selected,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// EdgeChange is one entry of an edge change batch.
type EdgeChange struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Selected bool   `json:"selected,omitempty"`
}

// Connection is the canonical pair produced when the user draws an edge.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Drop is a drag-and-drop release over the canvas. Data maps MIME types
// to their string payloads.
type Drop struct {
	ClientX float64           `json:"clientX"`
	ClientY float64           `json:"clientY"`
	Data    map[string]string `json:"data"`
}

// Projector converts a client (screen) point into graph coordinates.
type Projector interface {
	Project(clientX, clientY float64) graph.Position
}

// ProjectorFunc adapts a function to Projector.
type ProjectorFunc func(clientX, clientY float64) graph.Position

// Project calls f.
func (f ProjectorFunc) Project(clientX, clientY float64) graph.Position {
	return f(clientX, clientY)
}

// Rect is the canvas element's bounding box in client coordinates.
type Rect struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Viewport is the canvas pan offset and zoom.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// ViewportProjector projects through a canvas bounding box and viewport.
// A zero zoom is treated as 1.
type ViewportProjector struct {
	Bounds   Rect
	Viewport Viewport
}

// Project implements Projector.
func (p ViewportProjector) Project(clientX, clientY float64) graph.Position {
	zoom := p.Viewport.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return graph.Position{
		X: (clientX - p.Bounds.Left - p.Viewport.X) / zoom,
		Y: (clientY - p.Bounds.Top - p.Viewport.Y) / zoom,
	}
}
