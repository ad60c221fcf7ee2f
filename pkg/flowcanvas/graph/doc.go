// Package graph holds the authoritative node and edge lists of a canvas
// session and the value types that describe them.
//
// Store is the mutation surface used by the execution engine and by the
// rendering collaborator. Every mutation is synchronous and visible to the
// next read. Snapshot and Restore exchange deep copies, so a stored
// snapshot never aliases live state.
//
// Node parameters are a closed set of per-kind variants (UploadParams,
// AIParams, ...) behind the Params interface. Config pairs them with the
// run Output shared by every kind and an Extra map for keys no variant
// declares; its JSON form is the flat object the canvas UI reads.
package graph
