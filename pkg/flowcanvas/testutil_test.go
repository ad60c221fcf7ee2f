package flowcanvas_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/csvparse"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/outlog"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/runtime"
	"github.com/stretchr/testify/require"
)

// fixture bundles the stores an engine runs over.
type fixture struct {
	graph   *graph.Store
	runtime *runtime.Store
	log     *outlog.Log
	engine  *flowcanvas.Engine
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
}

func newFixture(t *testing.T, opts ...flowcanvas.Option) *fixture {
	t.Helper()
	f := &fixture{
		graph:   graph.NewStore(),
		runtime: runtime.New(),
		log:     outlog.New(outlog.WithClock(fixedNow)),
	}
	opts = append([]flowcanvas.Option{
		flowcanvas.WithLogger(quietLogger()),
		flowcanvas.WithClock(fixedNow),
	}, opts...)
	f.engine = flowcanvas.NewEngine(f.graph, f.runtime, f.log, opts...)
	return f
}

// add inserts a node labelled after its id and applies config.
func (f *fixture) add(t *testing.T, id string, kind graph.Kind, config map[string]any) {
	t.Helper()
	n := graph.NewNode(id, kind, "Node "+id, "", graph.Position{})
	n.Config = n.Config.Merge(config)
	require.NoError(t, f.graph.AddNode(n))
}

func (f *fixture) connect(t *testing.T, source, target string) {
	t.Helper()
	require.NoError(t, f.graph.AddEdge(graph.Edge{
		ID:     "edge_" + source + "_" + target,
		Source: source,
		Target: target,
	}))
}

func (f *fixture) loadCSV(text string) {
	f.runtime.SetCSV(csvparse.ParseTable(text), runtime.CSVMeta{Name: "users.csv", Size: int64(len(text))})
}

func (f *fixture) node(t *testing.T, id string) graph.Node {
	t.Helper()
	n, ok := f.graph.Node(id)
	require.True(t, ok, "node %s", id)
	return n
}

func (f *fixture) logTexts() []string {
	entries := f.log.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

// runnerCtx builds a runner context for calling a runner directly.
func runnerCtx(node graph.Node, rt *runtime.Store, opts ...flowcanvas.RunnerContextOption) flowcanvas.Context {
	opts = append([]flowcanvas.RunnerContextOption{flowcanvas.WithRunnerLogger(quietLogger())}, opts...)
	return flowcanvas.NewRunnerContext(context.Background(), node, rt, opts...)
}

func csvRuntime(text string) *runtime.Store {
	rt := runtime.New()
	rt.SetCSV(csvparse.ParseTable(text), runtime.CSVMeta{Name: "users.csv", Size: int64(len(text))})
	return rt
}
