package flowcanvas

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/chat"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/runtime"
)

// Context is what a Runner sees while it runs.
// It extends context.Context with the node being run and the session
// services the runner may read or write.
type Context interface {
	context.Context

	// Logger returns a logger enriched with run_id, node_id and kind.
	Logger() *slog.Logger

	// RunID identifies the chain walk (or single run) this node belongs to.
	RunID() string

	// Node returns the node as it was when the run started.
	Node() graph.Node

	// Op returns the operation override, or "" when none was given.
	Op() string

	// Runtime returns the session runtime store.
	Runtime() *runtime.Store

	// Chat returns the chat client, or nil when none is configured.
	Chat() chat.Client
}

type runContext struct {
	context.Context

	logger  *slog.Logger
	runID   string
	node    graph.Node
	op      string
	runtime *runtime.Store
	chat    chat.Client
}

func (c *runContext) Logger() *slog.Logger    { return c.logger }
func (c *runContext) RunID() string           { return c.runID }
func (c *runContext) Node() graph.Node        { return c.node }
func (c *runContext) Op() string              { return c.op }
func (c *runContext) Runtime() *runtime.Store { return c.runtime }
func (c *runContext) Chat() chat.Client       { return c.chat }

// RunnerContextOption configures a Context built with NewRunnerContext.
type RunnerContextOption func(*runContext)

// WithRunnerLogger sets the runner logger.
func WithRunnerLogger(l *slog.Logger) RunnerContextOption {
	return func(c *runContext) { c.logger = l }
}

// WithRunnerOp sets the operation override.
func WithRunnerOp(op string) RunnerContextOption {
	return func(c *runContext) { c.op = op }
}

// WithRunnerChat sets the chat client.
func WithRunnerChat(client chat.Client) RunnerContextOption {
	return func(c *runContext) { c.chat = client }
}

// WithRunnerRunID sets the run id.
func WithRunnerRunID(id string) RunnerContextOption {
	return func(c *runContext) { c.runID = id }
}

// NewRunnerContext builds a Context for calling a Runner directly, outside
// the engine. The engine builds its own for every node run.
func NewRunnerContext(ctx context.Context, node graph.Node, rt *runtime.Store, opts ...RunnerContextOption) Context {
	rc := &runContext{
		Context: ctx,
		logger:  slog.Default(),
		node:    node,
		runtime: rt,
	}
	for _, opt := range opts {
		opt(rc)
	}
	if rc.runtime == nil {
		rc.runtime = runtime.New()
	}
	return rc
}
