// Package event carries intents from node widgets to the engine.
//
// Each topic has one payload type. Publish dispatches synchronously to the
// topic's handlers in subscription order, at most once, with no queue and
// no replay for handlers subscribed later. Widgets do not publish directly:
// CallbacksFor hands each widget only the callbacks its kind uses.
package event

import (
	"bytes"
	"io"
	"time"
)

// Topic names a kind of intent.
type Topic string

// Topics understood by the engine.
const (
	TopicUpload       Topic = "upload"
	TopicUpdateConfig Topic = "update-config"
	TopicRunFromStart Topic = "run-from-start"
	TopicRunNode      Topic = "run-node"
	TopicAnalysis     Topic = "analysis"
)

// Payload is the body of an event. Each payload type belongs to one topic.
type Payload interface {
	Topic() Topic
}

// File is a user-selected file handed to an upload widget.
type File interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Upload asks for a file to be read, parsed and attached to a node.
type Upload struct {
	NodeID string
	File   File
}

// UpdateConfig shallow-merges Patch into a node's config.
type UpdateConfig struct {
	NodeID string
	Patch  map[string]any
}

// RunFromStart starts a chain walk at the first start node.
type RunFromStart struct{}

// RunNode starts a chain walk at NodeID.
type RunNode struct {
	NodeID string
}

// Analysis runs an analysis node with an explicit operation, then
// continues the chain from its first outgoing edge.
type Analysis struct {
	NodeID string
	Op     string
}

func (Upload) Topic() Topic       { return TopicUpload }
func (UpdateConfig) Topic() Topic { return TopicUpdateConfig }
func (RunFromStart) Topic() Topic { return TopicRunFromStart }
func (RunNode) Topic() Topic      { return TopicRunNode }
func (Analysis) Topic() Topic     { return TopicAnalysis }

// Event is one dispatched payload.
type Event struct {
	// ID is a ULID, sortable by dispatch time.
	ID      string
	Topic   Topic
	Payload Payload
	Time    time.Time
}

// memFile is a File backed by a byte slice.
type memFile struct {
	name string
	data []byte
}

// NewFile returns a File whose content is data.
func NewFile(name string, data []byte) File {
	return memFile{name: name, data: data}
}

func (f memFile) Name() string { return f.name }
func (f memFile) Size() int64  { return int64(len(f.data)) }

func (f memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
