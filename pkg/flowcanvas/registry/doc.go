// Package registry provides a thread-safe, insertion-ordered registry of
// values indexed by key.
//
// Iteration order is the order keys were first registered. Re-registering
// an existing key replaces its value but keeps its position; deleting and
// re-registering moves it to the end. The engine's runner table and the
// toolbar catalog both rely on that order.
//
//	runners := registry.New[graph.Kind, Runner]()
//	runners.Register(graph.KindStart, runStart)
//	runners.Register(graph.KindUpload, runUpload)
//
//	for _, kind := range runners.Keys() {
//	    // start, upload
//	}
package registry
