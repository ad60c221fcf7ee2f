// Package canvas is the editing session behind a node canvas.
//
// A Session owns one graph, its undo history, the runtime store, the output
// log and an event bus whose handlers drive the execution engine. The
// rendering collaborator feeds it change batches, connections, drops and
// key presses; node widgets feed it intents through event.Callbacks.
//
// Run-triggering topics and uploads hold a single session run lock, so at
// most one chain touches the runtime store at a time.
package canvas

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/chat"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/event"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/history"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/journal"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/outlog"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/runtime"
)

// Session is one user's canvas.
type Session struct {
	graph   *graph.Store
	history *history.Manager
	runtime *runtime.Store
	log     *outlog.Log
	bus     *event.Bus
	engine  *flowcanvas.Engine
	journal journal.Store
	catalog *Catalog

	nodeIDs *graph.IDGen
	edgeIDs *graph.IDGen

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	rand    func() float64

	// runMu serializes uploads and chain walks.
	runMu sync.Mutex
	unsub []func()
}

type options struct {
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
	journal      journal.Store
	chat         chat.Client
	maxSteps     int
	logCapacity  int
	historyLimit int
	catalog      *Catalog
	rand         func() float64
	now          func() time.Time
	onError      func(error)
	runners      map[graph.Kind]flowcanvas.Runner
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics recorder shared by the session and engine.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithSpans sets the span manager used by the engine.
func WithSpans(s observability.SpanManager) Option {
	return func(o *options) { o.spans = s }
}

// WithJournal sets the run journal. Defaults to a journal.MemoryStore.
func WithJournal(j journal.Store) Option {
	return func(o *options) { o.journal = j }
}

// WithChat sets the chat client used by ai nodes.
func WithChat(c chat.Client) Option {
	return func(o *options) { o.chat = c }
}

// WithMaxSteps sets the chain step limit.
func WithMaxSteps(n int) Option {
	return func(o *options) { o.maxSteps = n }
}

// WithLogCapacity sets how many output log entries are kept.
func WithLogCapacity(n int) Option {
	return func(o *options) { o.logCapacity = n }
}

// WithHistoryLimit caps the undo stack. Zero means unbounded.
func WithHistoryLimit(n int) Option {
	return func(o *options) { o.historyLimit = n }
}

// WithCatalog replaces the toolbar catalog.
func WithCatalog(c *Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithRand sets the source of toolbar placement, returning values in [0, 1).
func WithRand(fn func() float64) Option {
	return func(o *options) { o.rand = fn }
}

// WithClock sets the clock for log timestamps, event ids and journal steps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithErrorHandler receives errors returned by event handlers.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithRunner replaces the runner for kind.
func WithRunner(kind graph.Kind, r flowcanvas.Runner) Option {
	return func(o *options) {
		if o.runners == nil {
			o.runners = make(map[graph.Kind]flowcanvas.Runner)
		}
		o.runners[kind] = r
	}
}

// NewSession creates an empty canvas with its handlers subscribed.
func NewSession(opts ...Option) *Session {
	o := options{
		logger:      slog.Default(),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		logCapacity: outlog.DefaultCapacity,
		rand:        rand.Float64,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = observability.NoopMetrics{}
	}
	if o.journal == nil {
		o.journal = journal.NewMemoryStore()
	}
	if o.catalog == nil {
		o.catalog = DefaultCatalog()
	}

	s := &Session{
		graph:   graph.NewStore(),
		runtime: runtime.New(),
		log:     outlog.New(outlog.WithCapacity(o.logCapacity), outlog.WithClock(o.now)),
		journal: o.journal,
		catalog: o.catalog,
		nodeIDs: graph.NewIDGen("node"),
		edgeIDs: graph.NewIDGen("edge"),
		logger:  o.logger,
		metrics: o.metrics,
		rand:    o.rand,
	}
	s.history = history.New(s.graph, history.WithLimit(o.historyLimit))
	s.bus = event.NewBus(
		event.WithLogger(o.logger),
		event.WithClock(o.now),
		event.WithErrorHandler(o.onError),
	)

	engineOpts := []flowcanvas.Option{
		flowcanvas.WithLogger(o.logger),
		flowcanvas.WithMetrics(o.metrics),
		flowcanvas.WithSpans(o.spans),
		flowcanvas.WithJournal(o.journal),
		flowcanvas.WithChat(o.chat),
		flowcanvas.WithMaxSteps(o.maxSteps),
		flowcanvas.WithClock(o.now),
	}
	for kind, r := range o.runners {
		engineOpts = append(engineOpts, flowcanvas.WithRunner(kind, r))
	}
	s.engine = flowcanvas.NewEngine(s.graph, s.runtime, s.log, engineOpts...)

	s.subscribe()
	return s
}

// Close unsubscribes every handler and closes the journal.
func (s *Session) Close() error {
	for _, u := range s.unsub {
		u()
	}
	s.bus.Close()
	return s.journal.Close()
}

// Dispatch publishes an intent on the session bus. It returns once every
// handler has finished.
func (s *Session) Dispatch(ctx context.Context, p event.Payload) (event.Event, error) {
	return s.bus.Publish(ctx, p)
}

// Callbacks returns the widget callbacks for a node.
func (s *Session) Callbacks(nodeID string) (event.Callbacks, error) {
	n, ok := s.graph.Node(nodeID)
	if !ok {
		return event.Callbacks{}, fmt.Errorf("node %s: %w", nodeID, graph.ErrNodeNotFound)
	}
	return event.CallbacksFor(s.bus, nodeID, n.Kind), nil
}

// Bus returns the session event bus.
func (s *Session) Bus() *event.Bus { return s.bus }

// Engine returns the session engine.
func (s *Session) Engine() *flowcanvas.Engine { return s.engine }

// Graph returns a snapshot of nodes and edges.
func (s *Session) Graph() graph.Snapshot { return s.graph.Snapshot() }

// Node returns a node by id.
func (s *Session) Node(id string) (graph.Node, bool) { return s.graph.Node(id) }

// Catalog returns the toolbar catalog.
func (s *Session) Catalog() *Catalog { return s.catalog }

// Toolbar returns the catalog items.
func (s *Session) Toolbar() []ToolbarItem { return s.catalog.Items() }

// Log returns the output log, oldest first.
func (s *Session) Log() []outlog.Entry { return s.log.Entries() }

// Runtime returns the runtime store contents.
func (s *Session) Runtime() runtime.View { return s.runtime.View() }

// Run returns the journal steps of a chain walk.
func (s *Session) Run(runID string) ([]journal.Step, error) {
	return s.journal.List(runID)
}

// Runs summarizes every recorded chain walk.
func (s *Session) Runs() ([]journal.RunInfo, error) {
	return s.journal.Runs()
}

// HistoryDepth returns the sizes of the undo and redo stacks.
func (s *Session) HistoryDepth() (undo, redo int) {
	return s.history.Depth()
}
