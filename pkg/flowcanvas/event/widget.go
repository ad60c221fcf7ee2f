package event

import (
	"context"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
)

// Callbacks are the intents a node widget may raise. A nil field means the
// widget for that kind has no such control.
type Callbacks struct {
	// OnRun starts execution. Start widgets run from the start node; other
	// runnable widgets run from their own node.
	OnRun func(ctx context.Context)

	// OnConfigChange patches the node's config.
	OnConfigChange func(ctx context.Context, patch map[string]any)

	// OnUpload attaches a file (upload widgets only).
	OnUpload func(ctx context.Context, f File)

	// OnAnalyze runs the node with an explicit operation (analysis widgets only).
	OnAnalyze func(ctx context.Context, op string)
}

// CallbacksFor returns the callbacks a widget of kind needs, each bound to
// nodeID and publishing on b.
func CallbacksFor(b *Bus, nodeID string, kind graph.Kind) Callbacks {
	publish := func(ctx context.Context, p Payload) {
		_, _ = b.Publish(ctx, p)
	}

	runNode := func(ctx context.Context) {
		publish(ctx, RunNode{NodeID: nodeID})
	}
	configure := func(ctx context.Context, patch map[string]any) {
		publish(ctx, UpdateConfig{NodeID: nodeID, Patch: patch})
	}

	switch kind {
	case graph.KindStart:
		return Callbacks{
			OnRun: func(ctx context.Context) { publish(ctx, RunFromStart{}) },
		}
	case graph.KindUpload:
		return Callbacks{
			OnUpload: func(ctx context.Context, f File) {
				publish(ctx, Upload{NodeID: nodeID, File: f})
			},
		}
	case graph.KindAnalysis:
		return Callbacks{
			OnConfigChange: configure,
			OnAnalyze: func(ctx context.Context, op string) {
				publish(ctx, Analysis{NodeID: nodeID, Op: op})
			},
		}
	case graph.KindCheck:
		return Callbacks{OnRun: runNode}
	case graph.KindScript, graph.KindAI, graph.KindCloud, graph.KindNLP, graph.KindDB:
		return Callbacks{OnRun: runNode, OnConfigChange: configure}
	case graph.KindEditable:
		return Callbacks{OnConfigChange: configure}
	default:
		return Callbacks{}
	}
}
