/*
Package flowcanvas executes the nodes of a visual node graph.

# Overview

A canvas holds typed nodes (start, upload, script, ai, analysis, check and
a few placeholder kinds) joined by directed edges. The Engine runs one node
at a time through a kind-specific Runner and walks a chain by following the
first outgoing edge of every node that succeeds. It is a linear-chain
walker over a graph, not a DAG scheduler: branches after the first edge are
never visited.

# Running a node

RunNode moves a node through idle, running and then success or error,
records the result on the node's config as lastMsg and lastResult, and
appends "label: msg" to the output log:

	store := graph.NewStore()
	rt := runtime.New()
	out := outlog.New()

	engine := flowcanvas.NewEngine(store, rt, out,
	    flowcanvas.WithLogger(logger),
	    flowcanvas.WithChat(chat.NewHTTPClient("http://localhost:8080/api/chat")))

	res := engine.RunNode(ctx, "node_3", "unique_users")

Runner faults never reach the caller. Errors and panics become
{OK: false, Msg: <error text>}, and a node id that does not resolve
returns {OK: false, Msg: "Node not found."} without touching the graph.

# Chains

RunChain starts at a node and keeps going while results are ok:

	report, err := engine.RunChain(ctx, "node_1", flowcanvas.WithTrigger("run-node"))

err is non-nil only when the walk is cut short by context cancellation
(*CancellationError) or by the step limit (*MaxStepsError). A failing node
simply ends the walk. Every step is appended to the configured journal.

# Observability

The engine logs through log/slog and records OpenTelemetry metrics and
spans when WithMetrics and WithSpans are given. Both default to no-ops.
*/
package flowcanvas
