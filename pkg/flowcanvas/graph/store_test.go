package graph_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(id string, kind graph.Kind) graph.Node {
	return graph.NewNode(id, kind, id, "", graph.Position{})
}

func edge(id, source, target string) graph.Edge {
	return graph.Edge{ID: id, Source: source, Target: target}
}

// buildStore creates a store with nodes a, b, c and edges a->b, a->c, b->c.
func buildStore(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddNode(newNode(id, graph.KindGeneric)))
	}
	require.NoError(t, s.AddEdge(edge("e1", "a", "b")))
	require.NoError(t, s.AddEdge(edge("e2", "a", "c")))
	require.NoError(t, s.AddEdge(edge("e3", "b", "c")))
	return s
}

// TestStore_AddNode verifies insertion and id validation.
func TestStore_AddNode(t *testing.T) {
	s := graph.NewStore()

	require.NoError(t, s.AddNode(newNode("n1", graph.KindStart)))
	assert.ErrorIs(t, s.AddNode(newNode("n1", graph.KindStart)), graph.ErrDuplicateID)
	assert.ErrorIs(t, s.AddNode(newNode("", graph.KindStart)), graph.ErrEmptyID)

	n, ok := s.Node("n1")
	require.True(t, ok)
	assert.Equal(t, graph.KindStart, n.Kind)
	assert.Equal(t, graph.StatusIdle, n.Status)
}

// TestStore_AddNode_FillsConfig verifies a zero config gets the kind's params.
func TestStore_AddNode_FillsConfig(t *testing.T) {
	s := graph.NewStore()
	require.NoError(t, s.AddNode(graph.Node{ID: "n1", Kind: graph.KindAI}))

	n, _ := s.Node("n1")
	assert.Equal(t, graph.KindAI, n.Config.Kind())
	assert.Equal(t, graph.StatusIdle, n.Status)
}

// TestStore_AddEdge_RequiresEndpoints verifies edges reference existing nodes.
func TestStore_AddEdge_RequiresEndpoints(t *testing.T) {
	s := graph.NewStore()
	require.NoError(t, s.AddNode(newNode("a", graph.KindGeneric)))

	assert.ErrorIs(t, s.AddEdge(edge("e1", "a", "missing")), graph.ErrNodeNotFound)
	assert.ErrorIs(t, s.AddEdge(edge("e1", "missing", "a")), graph.ErrNodeNotFound)
	require.NoError(t, s.AddEdge(edge("e1", "a", "a")))
	assert.ErrorIs(t, s.AddEdge(edge("e1", "a", "a")), graph.ErrDuplicateID)
}

// TestStore_Outgoing verifies targets come back in edge insertion order.
func TestStore_Outgoing(t *testing.T) {
	s := buildStore(t)
	require.NoError(t, s.AddEdge(edge("e4", "a", "b")))

	assert.Equal(t, []string{"b", "c", "b"}, s.Outgoing("a"))
	assert.Equal(t, []string{"c"}, s.Outgoing("b"))
	assert.Empty(t, s.Outgoing("c"))
	assert.Empty(t, s.Outgoing("missing"))
}

// TestStore_Remove_PrunesTouchingEdges verifies node removal drops incident edges.
func TestStore_Remove_PrunesTouchingEdges(t *testing.T) {
	s := buildStore(t)

	nodes, edges := s.Remove([]string{"b"}, nil)

	assert.Equal(t, 1, nodes)
	assert.Equal(t, 2, edges)
	got := s.Edges()
	require.Len(t, got, 1)
	assert.Equal(t, "e2", got[0].ID)
	_, ok := s.Node("b")
	assert.False(t, ok)
}

// TestStore_Remove_EdgesOnly verifies edges can be removed without nodes.
func TestStore_Remove_EdgesOnly(t *testing.T) {
	s := buildStore(t)

	nodes, edges := s.Remove(nil, []string{"e1", "unknown"})

	assert.Equal(t, 0, nodes)
	assert.Equal(t, 1, edges)
	n, e := s.Len()
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, e)
}

// TestStore_PatchConfig verifies shallow-merge semantics.
func TestStore_PatchConfig(t *testing.T) {
	s := graph.NewStore()
	require.NoError(t, s.AddNode(newNode("ai", graph.KindAI)))

	require.NoError(t, s.PatchConfig("ai", map[string]any{"prompt": "hi", "temperature": 0.3}))
	require.NoError(t, s.PatchConfig("ai", map[string]any{"note": "x"}))

	n, _ := s.Node("ai")
	assert.Equal(t, graph.AIParams{Prompt: "hi"}, n.Config.Params)
	assert.Equal(t, map[string]any{"temperature": 0.3, "note": "x"}, n.Config.Extra)
	assert.ErrorIs(t, s.PatchConfig("missing", nil), graph.ErrNodeNotFound)
}

// TestStore_SetStatusAndOutput verifies engine-facing setters.
func TestStore_SetStatusAndOutput(t *testing.T) {
	s := graph.NewStore()
	require.NoError(t, s.AddNode(newNode("n", graph.KindCheck)))

	require.NoError(t, s.SetStatus("n", graph.StatusRunning))
	require.NoError(t, s.SetOutput("n", "Found 2 users with no manager.", map[string]any{"noManager": 2}))

	n, _ := s.Node("n")
	assert.Equal(t, graph.StatusRunning, n.Status)
	require.NotNil(t, n.Config.Output)
	assert.Equal(t, "Found 2 users with no manager.", n.Config.Output.Msg)
	assert.Equal(t, map[string]any{"noManager": 2}, n.Config.Output.Result)
	assert.ErrorIs(t, s.SetStatus("missing", graph.StatusError), graph.ErrNodeNotFound)
}

// TestStore_Selection verifies selection flags and Selected.
func TestStore_Selection(t *testing.T) {
	s := buildStore(t)

	require.NoError(t, s.SelectNode("a", true))
	assert.True(t, s.SelectEdge("e3", true))
	assert.False(t, s.SelectEdge("nope", true))

	nodes, edges := s.Selected()
	assert.Equal(t, []string{"a"}, nodes)
	assert.Equal(t, []string{"e3"}, edges)

	require.NoError(t, s.SelectNode("a", false))
	nodes, _ = s.Selected()
	assert.Empty(t, nodes)
}

// TestStore_FirstOfKind verifies the earliest node of a kind wins.
func TestStore_FirstOfKind(t *testing.T) {
	s := graph.NewStore()
	require.NoError(t, s.AddNode(newNode("x", graph.KindUpload)))
	require.NoError(t, s.AddNode(newNode("s1", graph.KindStart)))
	require.NoError(t, s.AddNode(newNode("s2", graph.KindStart)))

	n, ok := s.FirstOfKind(graph.KindStart)
	require.True(t, ok)
	assert.Equal(t, "s1", n.ID)

	_, ok = s.FirstOfKind(graph.KindAI)
	assert.False(t, ok)
}

// TestStore_SnapshotIsolation verifies snapshots never alias live state.
func TestStore_SnapshotIsolation(t *testing.T) {
	s := graph.NewStore()
	require.NoError(t, s.AddNode(newNode("n", graph.KindGeneric)))
	require.NoError(t, s.SetOutput("n", "ok", map[string]any{"rows": []any{1, 2}}))

	snap := s.Snapshot()

	require.NoError(t, s.SetOutput("n", "changed", "x"))
	require.NoError(t, s.SetPosition("n", graph.Position{X: 5, Y: 6}))
	assert.Equal(t, "ok", snap.Nodes[0].Config.Output.Msg)
	assert.Equal(t, graph.Position{}, snap.Nodes[0].Position)

	// Mutating the snapshot must not reach the store either.
	snap.Nodes[0].Config.Output.Result.(map[string]any)["rows"] = nil
	snap.Nodes[0].Label = "mutated"
	live, _ := s.Node("n")
	assert.Equal(t, "n", live.Label)
}

// TestStore_Restore verifies wholesale replacement with a deep copy.
func TestStore_Restore(t *testing.T) {
	s := buildStore(t)
	want := s.Snapshot()

	s.Remove([]string{"a", "b", "c"}, nil)
	s.Restore(want)

	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Errorf("restored graph mismatch (-want +got):\n%s", diff)
	}

	want.Nodes[0].Label = "changed"
	n, _ := s.Node("a")
	assert.Equal(t, "a", n.Label)
}

// TestIDGen verifies ids increase and are never reused.
func TestIDGen(t *testing.T) {
	g := graph.NewIDGen("node")

	assert.Equal(t, "node_1", g.Next())
	assert.Equal(t, "node_2", g.Next())
	assert.Equal(t, "node_3", g.Next())
}
