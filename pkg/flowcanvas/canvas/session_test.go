package canvas_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/canvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
}

func newSession(t *testing.T, opts ...canvas.Option) *canvas.Session {
	t.Helper()
	opts = append([]canvas.Option{
		canvas.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		canvas.WithClock(fixedNow),
		canvas.WithRand(func() float64 { return 0.5 }),
	}, opts...)
	s := canvas.NewSession(opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func item(kind graph.Kind) canvas.ToolbarItem {
	return canvas.ToolbarItem{Label: string(kind) + " node", Icon: "*", Kind: string(kind)}
}

func addNode(t *testing.T, s *canvas.Session, kind graph.Kind) graph.Node {
	t.Helper()
	n, err := s.AddNode(context.Background(), item(kind))
	require.NoError(t, err)
	return n
}

func connect(t *testing.T, s *canvas.Session, source, target string) graph.Edge {
	t.Helper()
	e, err := s.Connect(context.Background(), canvas.Connection{Source: source, Target: target})
	require.NoError(t, err)
	return e
}

func logTexts(s *canvas.Session) []string {
	var out []string
	for _, e := range s.Log() {
		out = append(out, e.Text)
	}
	return out
}

// TestDefaultCatalog verifies the ten toolbar items in order.
func TestDefaultCatalog(t *testing.T) {
	items := canvas.DefaultCatalog().Items()
	require.Len(t, items, 10)

	var kinds []string
	for _, it := range items {
		kinds = append(kinds, it.Kind)
	}
	assert.Equal(t, []string{"start", "upload", "script", "ai", "analysis", "check", "cloud", "nlp", "db", "editable"}, kinds)
	assert.Equal(t, canvas.ToolbarItem{Label: "AI Model", Icon: "🤖", Kind: "ai"}, items[3])

	s := newSession(t)
	got, ok := s.Catalog().Lookup(graph.KindAI)
	require.True(t, ok)
	assert.Equal(t, items[3], got)
	assert.Equal(t, items, s.Toolbar())
}

// TestAddNode verifies ids, placement and the history commit.
func TestAddNode(t *testing.T) {
	s := newSession(t)

	n := addNode(t, s, graph.KindAI)

	assert.Equal(t, "node_1", n.ID)
	assert.Equal(t, graph.KindAI, n.Kind)
	assert.Equal(t, "ai node", n.Label)
	assert.Equal(t, graph.Position{X: 320, Y: 250}, n.Position)
	assert.Equal(t, graph.StatusIdle, n.Status)

	undo, redo := s.HistoryDepth()
	assert.Equal(t, 2, undo)
	assert.Equal(t, 0, redo)

	assert.Equal(t, "node_2", addNode(t, s, graph.KindStart).ID)
}

// TestAddNode_UnknownKind verifies unknown kinds become generic.
func TestAddNode_UnknownKind(t *testing.T) {
	s := newSession(t)

	n, err := s.AddNode(context.Background(), canvas.ToolbarItem{Label: "Mystery", Kind: "quantum"})
	require.NoError(t, err)
	assert.Equal(t, graph.KindGeneric, n.Kind)
}

// TestHandleDrop verifies projection, ignored drops and bad payloads.
func TestHandleDrop(t *testing.T) {
	s := newSession(t)
	proj := canvas.ViewportProjector{
		Bounds:   canvas.Rect{Left: 10, Top: 20},
		Viewport: canvas.Viewport{X: 0, Y: 0, Zoom: 2},
	}

	n, ok, err := s.HandleDrop(context.Background(), canvas.Drop{
		ClientX: 110,
		ClientY: 220,
		Data:    map[string]string{canvas.DragMIME: `{"label":"Checks","icon":"✅","kind":"check"}`},
	}, proj)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, graph.KindCheck, n.Kind)
	assert.Equal(t, graph.Position{X: 50, Y: 100}, n.Position)

	_, ok, err = s.HandleDrop(context.Background(), canvas.Drop{Data: map[string]string{"text/plain": "x"}}, proj)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.HandleDrop(context.Background(), canvas.Drop{Data: map[string]string{canvas.DragMIME: "{"}}, proj)
	assert.Error(t, err)
	assert.False(t, ok)

	undo, _ := s.HistoryDepth()
	assert.Equal(t, 2, undo, "only the successful drop commits")
}

// TestViewportProjector_ZeroZoom verifies a zero zoom acts as 1.
func TestViewportProjector_ZeroZoom(t *testing.T) {
	p := canvas.ViewportProjector{Bounds: canvas.Rect{Left: 5, Top: 5}, Viewport: canvas.Viewport{X: 10, Y: -10}}
	assert.Equal(t, graph.Position{X: 85, Y: 105}, p.Project(100, 100))
}

// TestConnect verifies edge defaults and the history commit.
func TestConnect(t *testing.T) {
	s := newSession(t)
	a := addNode(t, s, graph.KindStart)
	b := addNode(t, s, graph.KindCheck)

	e, err := s.Connect(context.Background(), canvas.Connection{Source: a.ID, Target: b.ID, SourceHandle: "out"})
	require.NoError(t, err)

	assert.Equal(t, "edge_1", e.ID)
	assert.True(t, e.Animated)
	assert.Equal(t, graph.DefaultEdgeStyle, e.Style)
	assert.Equal(t, "out", e.SourceHandle)
	undo, _ := s.HistoryDepth()
	assert.Equal(t, 4, undo)

	_, err = s.Connect(context.Background(), canvas.Connection{Source: a.ID, Target: "node_99"})
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
	undo, _ = s.HistoryDepth()
	assert.Equal(t, 4, undo)
}

// TestDeleteSelected verifies edge pruning and the single commit.
func TestDeleteSelected(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	a := addNode(t, s, graph.KindStart)
	b := addNode(t, s, graph.KindScript)
	c := addNode(t, s, graph.KindCheck)
	connect(t, s, a.ID, b.ID)
	connect(t, s, b.ID, c.ID)
	connect(t, s, a.ID, c.ID)

	s.ApplyNodeChanges(ctx, []canvas.NodeChange{{Type: canvas.ChangeSelect, ID: b.ID, Selected: true}})
	before, _ := s.HistoryDepth()

	require.True(t, s.DeleteSelected(ctx))

	g := s.Graph()
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, a.ID, g.Edges[0].Source)
	assert.Equal(t, c.ID, g.Edges[0].Target)

	after, _ := s.HistoryDepth()
	assert.Equal(t, before+1, after)

	require.True(t, s.Undo(ctx))
	assert.Len(t, s.Graph().Nodes, 3)
	assert.Len(t, s.Graph().Edges, 3)
}

// TestDeleteSelected_NothingSelected verifies the no-op path.
func TestDeleteSelected_NothingSelected(t *testing.T) {
	s := newSession(t)
	addNode(t, s, graph.KindStart)
	before, _ := s.HistoryDepth()

	assert.False(t, s.DeleteSelected(context.Background()))

	after, _ := s.HistoryDepth()
	assert.Equal(t, before, after)
	assert.Len(t, s.Graph().Nodes, 1)
}

// TestApplyNodeChanges_Drag verifies moves apply immediately and only a
// drag end commits, once per batch.
func TestApplyNodeChanges_Drag(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	a := addNode(t, s, graph.KindStart)
	b := addNode(t, s, graph.KindCheck)
	dragging, done := true, false
	base, _ := s.HistoryDepth()

	s.ApplyNodeChanges(ctx, []canvas.NodeChange{
		{Type: canvas.ChangePosition, ID: a.ID, Position: &graph.Position{X: 1, Y: 2}, Dragging: &dragging},
	})
	n, _ := s.Node(a.ID)
	assert.Equal(t, graph.Position{X: 1, Y: 2}, n.Position)
	depth, _ := s.HistoryDepth()
	assert.Equal(t, base, depth)

	s.ApplyNodeChanges(ctx, []canvas.NodeChange{
		{Type: canvas.ChangePosition, ID: a.ID, Position: &graph.Position{X: 5, Y: 6}, Dragging: &done},
		{Type: canvas.ChangePosition, ID: b.ID, Dragging: &done},
		{Type: canvas.ChangeDimensions, ID: b.ID, Dimensions: &canvas.Dimensions{Width: 100, Height: 40}},
	})
	depth, _ = s.HistoryDepth()
	assert.Equal(t, base+1, depth)

	require.True(t, s.Undo(ctx))
	n, _ = s.Node(a.ID)
	assert.NotEqual(t, graph.Position{X: 5, Y: 6}, n.Position)
}

// TestApplyNodeChanges_Remove verifies removal prunes edges without a commit.
func TestApplyNodeChanges_Remove(t *testing.T) {
	s := newSession(t)
	a := addNode(t, s, graph.KindStart)
	b := addNode(t, s, graph.KindCheck)
	connect(t, s, a.ID, b.ID)
	base, _ := s.HistoryDepth()

	s.ApplyNodeChanges(context.Background(), []canvas.NodeChange{{Type: canvas.ChangeRemove, ID: b.ID}})

	assert.Len(t, s.Graph().Nodes, 1)
	assert.Empty(t, s.Graph().Edges)
	depth, _ := s.HistoryDepth()
	assert.Equal(t, base, depth)
}

// TestApplyEdgeChanges verifies edge selection and removal.
func TestApplyEdgeChanges(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	a := addNode(t, s, graph.KindStart)
	b := addNode(t, s, graph.KindCheck)
	e1 := connect(t, s, a.ID, b.ID)
	e2 := connect(t, s, a.ID, b.ID)

	s.ApplyEdgeChanges(ctx, []canvas.EdgeChange{{Type: canvas.ChangeSelect, ID: e1.ID, Selected: true}})
	_, edgeIDs := selected(s)
	assert.Equal(t, []string{e1.ID}, edgeIDs)

	s.ApplyEdgeChanges(ctx, []canvas.EdgeChange{{Type: canvas.ChangeRemove, ID: e2.ID}})
	edges := s.Graph().Edges
	require.Len(t, edges, 1)
	assert.Equal(t, e1.ID, edges[0].ID)
}

func selected(s *canvas.Session) (nodes, edges []string) {
	g := s.Graph()
	for _, n := range g.Nodes {
		if n.Selected {
			nodes = append(nodes, n.ID)
		}
	}
	for _, e := range g.Edges {
		if e.Selected {
			edges = append(edges, e.ID)
		}
	}
	return nodes, edges
}

// TestUndoRedo_RoundTrip verifies N undos then N redos restore the graph.
func TestUndoRedo_RoundTrip(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	a := addNode(t, s, graph.KindStart)
	b := addNode(t, s, graph.KindAI)
	connect(t, s, a.ID, b.ID)
	want := s.Graph()

	for i := 0; i < 3; i++ {
		require.True(t, s.Undo(ctx), "undo %d", i)
	}
	assert.True(t, s.Graph().Empty())
	assert.False(t, s.Undo(ctx))

	for i := 0; i < 3; i++ {
		require.True(t, s.Redo(ctx), "redo %d", i)
	}
	assert.False(t, s.Redo(ctx))

	if diff := cmp.Diff(want, s.Graph()); diff != "" {
		t.Errorf("graph after redo mismatch (-want +got):\n%s", diff)
	}

	// Ids are never reused after undo.
	assert.Equal(t, "node_3", addNode(t, s, graph.KindCheck).ID)
}

// TestUndoRedo_KeepsRuntimeAndLog verifies history only rewinds the graph.
func TestUndoRedo_KeepsRuntimeAndLog(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	up := addNode(t, s, graph.KindUpload)
	upload(t, s, up.ID)

	rt := s.Runtime()
	require.Equal(t, 3, rt.Rows)
	require.NotNil(t, rt.CSVMeta)
	log := s.Log()
	require.Len(t, log, 1)

	undos := 0
	for s.Undo(ctx) {
		undos++
	}
	require.Positive(t, undos)
	assert.True(t, s.Graph().Empty())
	assert.Equal(t, rt.Rows, s.Runtime().Rows)
	assert.Equal(t, rt.CSVMeta, s.Runtime().CSVMeta)
	assert.Equal(t, log, s.Log())

	for i := 0; i < undos; i++ {
		require.True(t, s.Redo(ctx), "redo %d", i)
	}
	_, ok := s.Node(up.ID)
	assert.True(t, ok)
	assert.Equal(t, rt.Rows, s.Runtime().Rows)
	assert.Equal(t, rt.CSVMeta, s.Runtime().CSVMeta)
	assert.Equal(t, log, s.Log())
}
