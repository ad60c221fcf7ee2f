package flowcanvas_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/journal"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestRunNode_UpdatesNode verifies status, output and log after a run.
func TestRunNode_UpdatesNode(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", graph.KindScript, nil)
	f.loadCSV("a\n1\n2")

	res := f.engine.RunNode(context.Background(), "s", "")

	assert.Equal(t, flowcanvas.Result{OK: true, Msg: "CSV present.", Data: map[string]any{"rows": 2}}, res)
	n := f.node(t, "s")
	assert.Equal(t, graph.StatusSuccess, n.Status)
	require.NotNil(t, n.Config.Output)
	assert.Equal(t, "CSV present.", n.Config.Output.Msg)
	assert.Equal(t, map[string]any{"rows": 2}, n.Config.Output.Result)
	assert.Equal(t, []string{"Node s: CSV present."}, f.logTexts())
}

// TestRunNode_FailureStillRecordsOutput verifies failures set error status
// and still write lastMsg with a null lastResult.
func TestRunNode_FailureStillRecordsOutput(t *testing.T) {
	f := newFixture(t)
	f.add(t, "c", graph.KindCheck, nil)

	res := f.engine.RunNode(context.Background(), "c", "")

	assert.False(t, res.OK)
	n := f.node(t, "c")
	assert.Equal(t, graph.StatusError, n.Status)
	require.NotNil(t, n.Config.Output)
	assert.Equal(t, flowcanvas.MsgCSVNotLoaded, n.Config.Output.Msg)
	assert.Nil(t, n.Config.Output.Result)
	assert.Equal(t, []string{"Node c: CSV not loaded."}, f.logTexts())
}

// TestRunNode_LabelFallsBackToID verifies the log prefix for unlabelled nodes.
func TestRunNode_LabelFallsBackToID(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.graph.AddNode(graph.NewNode("n9", graph.KindStart, "", "", graph.Position{})))

	f.engine.RunNode(context.Background(), "n9", "")

	assert.Equal(t, []string{"n9: Start"}, f.logTexts())
}

// TestRunNode_NotFound verifies unknown ids fail softly without side effects.
func TestRunNode_NotFound(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a", graph.KindStart, nil)

	res := f.engine.RunNode(context.Background(), "missing", "")

	assert.Equal(t, flowcanvas.Result{OK: false, Msg: flowcanvas.MsgNodeNotFound}, res)
	assert.Empty(t, f.logTexts())
	assert.Equal(t, graph.StatusIdle, f.node(t, "a").Status)
}

// TestRunNode_RunnerFaults verifies errors and panics become failed results.
func TestRunNode_RunnerFaults(t *testing.T) {
	tests := []struct {
		name    string
		runner  flowcanvas.Runner
		wantMsg string
	}{
		{
			name: "error",
			runner: func(flowcanvas.Context) (flowcanvas.Result, error) {
				return flowcanvas.Result{}, errors.New("disk full")
			},
			wantMsg: "disk full",
		},
		{
			name:    "empty error text",
			runner:  func(flowcanvas.Context) (flowcanvas.Result, error) { return flowcanvas.Result{}, errors.New("") },
			wantMsg: flowcanvas.MsgError,
		},
		{
			name:    "panic",
			runner:  func(flowcanvas.Context) (flowcanvas.Result, error) { panic("boom") },
			wantMsg: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, flowcanvas.WithRunner(graph.KindCloud, tt.runner))
			f.add(t, "x", graph.KindCloud, nil)

			var res flowcanvas.Result
			require.NotPanics(t, func() {
				res = f.engine.RunNode(context.Background(), "x", "")
			})

			assert.Equal(t, flowcanvas.Result{OK: false, Msg: tt.wantMsg}, res)
			assert.Equal(t, graph.StatusError, f.node(t, "x").Status)
			assert.Equal(t, tt.wantMsg, f.node(t, "x").Config.Output.Msg)
		})
	}
}

// TestRunChain_FollowsFirstEdge verifies a linear chain and that only the
// first outgoing edge is followed.
func TestRunChain_FollowsFirstEdge(t *testing.T) {
	f := newFixture(t)
	f.add(t, "start", graph.KindStart, nil)
	f.add(t, "a", graph.KindScript, nil)
	f.add(t, "b", graph.KindAnalysis, nil)
	f.add(t, "side", graph.KindCheck, nil)
	f.connect(t, "start", "a")
	f.connect(t, "start", "side")
	f.connect(t, "a", "b")
	f.loadCSV("user\nx\ny")

	report, err := f.engine.RunChain(context.Background(), "start")
	require.NoError(t, err)

	var ids []string
	for _, s := range report.Steps {
		ids = append(ids, s.NodeID)
	}
	assert.Equal(t, []string{"start", "a", "b"}, ids)
	assert.Equal(t, graph.StatusIdle, f.node(t, "side").Status)
	assert.Equal(t, []string{"Node start: Start", "Node a: CSV present.", "Node b: Rows: 2"}, f.logTexts())
}

// TestRunChain_StopsOnFailure verifies start->A->B where A fails leaves B
// untouched.
func TestRunChain_StopsOnFailure(t *testing.T) {
	f := newFixture(t)
	f.add(t, "start", graph.KindStart, nil)
	f.add(t, "a", graph.KindScript, nil)
	f.add(t, "b", graph.KindCheck, nil)
	f.connect(t, "start", "a")
	f.connect(t, "a", "b")
	before := f.node(t, "b")

	report, err := f.engine.RunChain(context.Background(), "start")
	require.NoError(t, err)

	require.Len(t, report.Steps, 2)
	last, ok := report.Last()
	require.True(t, ok)
	assert.Equal(t, "a", last.NodeID)
	assert.False(t, last.Result.OK)

	assert.Equal(t, graph.StatusError, f.node(t, "a").Status)
	assert.Equal(t, before, f.node(t, "b"))
	assert.Len(t, f.logTexts(), 2)
}

// TestRunChain_OpAppliesToFirstNodeOnly verifies the analysis override.
func TestRunChain_OpAppliesToFirstNodeOnly(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a1", graph.KindAnalysis, nil)
	f.add(t, "a2", graph.KindAnalysis, nil)
	f.connect(t, "a1", "a2")
	f.loadCSV("user\nx\nx")

	report, err := f.engine.RunChain(context.Background(), "a1",
		flowcanvas.WithOp(flowcanvas.OpUniqueUsers), flowcanvas.WithTrigger("analysis"))
	require.NoError(t, err)

	require.Len(t, report.Steps, 2)
	assert.Equal(t, "analysis", report.Trigger)
	assert.Equal(t, "Unique by user: 1", report.Steps[0].Result.Msg)
	assert.Equal(t, "Rows: 2", report.Steps[1].Result.Msg)
}

// TestRunChain_MissingStart verifies an unknown start id runs nothing.
func TestRunChain_MissingStart(t *testing.T) {
	f := newFixture(t)

	report, err := f.engine.RunChain(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Empty(t, report.Steps)
	assert.Empty(t, f.logTexts())
}

// TestRunChain_MaxSteps verifies cycles stop at the step limit.
func TestRunChain_MaxSteps(t *testing.T) {
	f := newFixture(t, flowcanvas.WithMaxSteps(5))
	f.add(t, "a", graph.KindStart, nil)
	f.add(t, "b", graph.KindStart, nil)
	f.connect(t, "a", "b")
	f.connect(t, "b", "a")

	report, err := f.engine.RunChain(context.Background(), "a")

	require.Error(t, err)
	assert.ErrorIs(t, err, flowcanvas.ErrMaxSteps)
	var maxErr *flowcanvas.MaxStepsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 5, maxErr.Max)
	assert.Equal(t, "b", maxErr.LastNodeID)
	assert.Len(t, report.Steps, 5)
}

// TestRunChain_Cancellation verifies the walk stops between steps once the
// context is cancelled.
func TestRunChain_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelling := func(flowcanvas.Context) (flowcanvas.Result, error) {
		cancel()
		return flowcanvas.Result{OK: true, Msg: "cancelled"}, nil
	}
	f := newFixture(t, flowcanvas.WithRunner(graph.KindCloud, cancelling))
	f.add(t, "a", graph.KindCloud, nil)
	f.add(t, "b", graph.KindStart, nil)
	f.connect(t, "a", "b")

	report, err := f.engine.RunChain(ctx, "a")

	var cancelErr *flowcanvas.CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "b", cancelErr.NodeID)
	assert.Equal(t, 1, cancelErr.Steps)
	assert.Len(t, report.Steps, 1)
	assert.Equal(t, graph.StatusIdle, f.node(t, "b").Status)
}

// TestRunFromStart verifies the start lookup.
func TestRunFromStart(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RunFromStart(context.Background())
	assert.ErrorIs(t, err, flowcanvas.ErrNoStartNode)

	f.add(t, "up", graph.KindUpload, nil)
	f.add(t, "go", graph.KindStart, nil)
	f.connect(t, "go", "up")

	report, err := f.engine.RunFromStart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-from-start", report.Trigger)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, "go", report.Steps[0].NodeID)
	assert.Equal(t, flowcanvas.MsgNoFile, report.Steps[1].Result.Msg)
}

// TestRunChain_Journal verifies each step is recorded in order.
func TestRunChain_Journal(t *testing.T) {
	store := journal.NewMemoryStore()
	f := newFixture(t, flowcanvas.WithJournal(store))
	f.add(t, "start", graph.KindStart, nil)
	f.add(t, "s", graph.KindScript, nil)
	f.add(t, "c", graph.KindCheck, nil)
	f.connect(t, "start", "s")
	f.connect(t, "s", "c")
	f.loadCSV("manager\nx\nnull")

	report, err := f.engine.RunChain(context.Background(), "start", flowcanvas.WithRunID("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunID)

	steps, err := store.List("run-1")
	require.NoError(t, err)
	require.Len(t, steps, 3)

	for i, want := range []string{"start", "s", "c"} {
		assert.Equal(t, want, steps[i].NodeID)
		assert.Equal(t, i+1, steps[i].Sequence)
		assert.True(t, steps[i].OK)
		assert.Equal(t, fixedNow(), steps[i].Timestamp)
	}
	assert.Empty(t, steps[0].Data)

	var data map[string]int
	require.NoError(t, json.Unmarshal(steps[2].Data, &data))
	assert.Equal(t, map[string]int{"noManager": 1}, data)
}

// TestRunNode_NotJournaled verifies single runs stay out of the journal.
func TestRunNode_NotJournaled(t *testing.T) {
	store := journal.NewMemoryStore()
	f := newFixture(t, flowcanvas.WithJournal(store))
	f.add(t, "start", graph.KindStart, nil)

	f.engine.RunNode(context.Background(), "start", "")

	runs, err := store.Runs()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

// TestRunChain_Spans verifies one chain span with a child per node.
func TestRunChain_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	f := newFixture(t, flowcanvas.WithSpans(observability.NewSpanManager(tp)))
	f.add(t, "start", graph.KindStart, nil)
	f.add(t, "c", graph.KindCheck, nil)
	f.connect(t, "start", "c")

	_, err := f.engine.RunChain(context.Background(), "start")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	names := map[string]bool{}
	for _, s := range spans {
		names[s.Name()] = true
	}
	assert.True(t, names["flowcanvas.chain"])
	assert.True(t, names["flowcanvas.node.start"])
	assert.True(t, names["flowcanvas.node.check"])

	chain := spans[2]
	assert.Equal(t, "flowcanvas.chain", chain.Name())
	for _, s := range spans[:2] {
		assert.Equal(t, chain.SpanContext().SpanID(), s.Parent().SpanID())
	}
}
