package flowcanvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/chat"
	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/journal"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/outlog"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/registry"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/runtime"
)

// Engine runs nodes of one session's graph.
//
// The engine writes node status and output to the graph store, runner
// state to the runtime store, and one line per run to the output log.
// It does not serialize callers; see canvas.Session for that.
type Engine struct {
	graph   *graph.Store
	runtime *runtime.Store
	log     *outlog.Log

	runners  *registry.Registry[graph.Kind, Runner]
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	journal  journal.Store
	chat     chat.Client
	maxSteps int
	now      func() time.Time
}

// NewEngine creates an engine over the given session stores.
func NewEngine(g *graph.Store, rt *runtime.Store, log *outlog.Log, opts ...Option) *Engine {
	e := &Engine{
		graph:    g,
		runtime:  rt,
		log:      log,
		runners:  DefaultRunners(),
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		maxSteps: DefaultMaxSteps,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Runner returns the runner used for kind.
func (e *Engine) Runner(kind graph.Kind) Runner {
	return e.runners.Lookup(kind, PlaceholderRunner)
}

// MaxSteps returns the chain step limit.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Step is one node run inside a chain walk.
type Step struct {
	NodeID string
	Kind   graph.Kind
	Result Result
}

// Report describes a chain walk.
type Report struct {
	RunID   string
	Trigger string
	Steps   []Step
}

// Last returns the final step, or false when nothing ran.
func (r Report) Last() (Step, bool) {
	if len(r.Steps) == 0 {
		return Step{}, false
	}
	return r.Steps[len(r.Steps)-1], true
}

// RunNode runs a single node with an optional operation override and
// returns its result. It never chains and never returns an error.
func (e *Engine) RunNode(ctx context.Context, nodeID, op string) Result {
	res, _ := e.runNode(ctx, uuid.New().String(), nodeID, op)
	return res
}

// RunChain runs nodeID and then, while results are ok, the target of the
// first outgoing edge of each node. A failing node ends the walk without
// an error; only cancellation and the step limit return one.
func (e *Engine) RunChain(ctx context.Context, nodeID string, opts ...RunOption) (report Report, err error) {
	cfg := runConfig{trigger: "run-node"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.New().String()
	}
	report = Report{RunID: cfg.runID, Trigger: cfg.trigger}

	start := time.Now()
	observability.LogChainStart(e.logger, cfg.runID, cfg.trigger, nodeID)

	spanCtx, span := e.spans.StartChainSpan(ctx, cfg.trigger, cfg.runID, nodeID)
	defer func() {
		e.spans.EndSpanWithError(span, err)
	}()

	current := nodeID
	op := cfg.op
	for {
		if len(report.Steps) >= e.maxSteps {
			err = &MaxStepsError{Max: e.maxSteps, LastNodeID: current}
			break
		}
		if cerr := ctx.Err(); cerr != nil {
			err = &CancellationError{NodeID: current, Steps: len(report.Steps), Cause: cerr}
			break
		}

		res, node := e.runNode(spanCtx, cfg.runID, current, op)
		op = ""
		if node == nil {
			// Unresolved ids do not run and are not journaled.
			break
		}

		report.Steps = append(report.Steps, Step{NodeID: current, Kind: node.Kind, Result: res})
		e.record(ctx, cfg.runID, len(report.Steps), node, res)

		if !res.OK {
			break
		}
		next := e.graph.Outgoing(current)
		if len(next) == 0 {
			break
		}
		current = next[0]
	}

	d := time.Since(start)
	last, _ := report.Last()
	if err != nil {
		observability.LogChainError(e.logger, cfg.runID, len(report.Steps), err)
	} else {
		observability.LogChainComplete(e.logger, cfg.runID, len(report.Steps), last.NodeID, last.Result.OK, d)
	}
	e.metrics.RecordChain(ctx, cfg.trigger, len(report.Steps), err == nil && last.Result.OK, d)

	return report, err
}

// RunFromStart runs a chain from the first node of kind start. It returns
// ErrNoStartNode when the graph has none.
func (e *Engine) RunFromStart(ctx context.Context, opts ...RunOption) (Report, error) {
	start, ok := e.graph.FirstOfKind(graph.KindStart)
	if !ok {
		return Report{}, ErrNoStartNode
	}
	opts = append([]RunOption{WithTrigger("run-from-start")}, opts...)
	return e.RunChain(ctx, start.ID, opts...)
}

// runNode runs one node. The returned node is nil when nodeID did not
// resolve, in which case nothing was changed.
func (e *Engine) runNode(ctx context.Context, runID, nodeID, op string) (Result, *graph.Node) {
	node, ok := e.graph.Node(nodeID)
	if !ok {
		e.logger.Debug("run skipped", "run_id", runID, "node_id", nodeID, "reason", "not found")
		return Result{OK: false, Msg: MsgNodeNotFound}, nil
	}
	kind := string(node.Kind)

	e.setStatus(nodeID, graph.StatusRunning)
	observability.LogNodeStart(e.logger, nodeID, kind)

	nodeCtx, span := e.spans.StartNodeSpan(ctx, nodeID, kind)
	rc := &runContext{
		Context: nodeCtx,
		logger:  observability.EnrichLogger(e.logger, runID, nodeID, kind),
		runID:   runID,
		node:    node,
		op:      op,
		runtime: e.runtime,
		chat:    e.chat,
	}

	started := time.Now()
	res, runErr := e.invoke(rc, e.Runner(node.Kind))
	d := time.Since(started)

	var spanErr error
	if runErr != nil {
		observability.LogNodeError(e.logger, nodeID, runErr)
		e.logger.Debug("runner fault", "node_id", nodeID, "category", fcerrors.Categorize(runErr).String())
		spanErr = runErr
	} else if !res.OK {
		spanErr = &NodeError{NodeID: nodeID, Kind: kind, Err: errors.New(res.Msg)}
	}
	e.spans.EndSpanWithError(span, spanErr)
	e.metrics.RecordNodeRun(ctx, kind, res.OK, d)
	observability.LogNodeComplete(e.logger, nodeID, res.OK, res.Msg, d)

	if res.OK {
		e.setStatus(nodeID, graph.StatusSuccess)
	} else {
		e.setStatus(nodeID, graph.StatusError)
	}
	if err := e.graph.SetOutput(nodeID, res.Msg, res.Data); err != nil {
		e.logger.Debug("output not recorded", "node_id", nodeID, "error", err)
	}
	e.log.Push(node.DisplayName() + ": " + res.Msg)

	return res, &node
}

// invoke calls r, converting errors and panics into a failed Result. The
// returned error is the fault, if any.
func (e *Engine) invoke(ctx Context, r Runner) (res Result, fault error) {
	defer func() {
		if v := recover(); v != nil {
			fault = &PanicError{NodeID: ctx.Node().ID, Value: v, Stack: string(debug.Stack())}
			res = Result{OK: false, Msg: faultMsg(fmt.Sprint(v))}
		}
	}()

	res, err := r(ctx)
	if err != nil {
		return Result{OK: false, Msg: faultMsg(err.Error())}, &NodeError{
			NodeID: ctx.Node().ID,
			Kind:   string(ctx.Node().Kind),
			Err:    err,
		}
	}
	return res, nil
}

func faultMsg(s string) string {
	if s == "" {
		return MsgError
	}
	return s
}

func (e *Engine) setStatus(nodeID string, s graph.Status) {
	if err := e.graph.SetStatus(nodeID, s); err != nil {
		e.logger.Debug("status not recorded", "node_id", nodeID, "status", string(s), "error", err)
	}
}

// record appends a chain step to the journal. Journal failures are logged
// and never stop the walk.
func (e *Engine) record(ctx context.Context, runID string, seq int, node *graph.Node, res Result) {
	if e.journal == nil {
		return
	}

	step := journal.Step{
		RunID:     runID,
		NodeID:    node.ID,
		Sequence:  seq,
		Kind:      string(node.Kind),
		OK:        res.OK,
		Msg:       res.Msg,
		Timestamp: e.now(),
	}
	if res.Data != nil {
		data, err := json.Marshal(res.Data)
		if err != nil {
			observability.LogJournalError(e.logger, runID, node.ID, err)
		} else {
			step.Data = data
		}
	}

	if err := e.journal.Append(step); err != nil {
		observability.LogJournalError(e.logger, runID, node.ID, err)
		return
	}
	e.metrics.RecordJournalWrite(ctx, int64(len(step.Data)+len(step.Msg)))
}
