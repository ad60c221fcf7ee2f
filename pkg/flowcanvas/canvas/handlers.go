package canvas

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/csvparse"
	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/event"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/runtime"
)

func (s *Session) subscribe() {
	s.unsub = append(s.unsub,
		event.Handle(s.bus, s.onUpload),
		event.Handle(s.bus, s.onUpdateConfig),
		event.Handle(s.bus, s.onRunFromStart),
		event.Handle(s.bus, s.onRunNode),
		event.Handle(s.bus, s.onAnalysis),
	)
}

// onUpload reads and parses the file, replaces the runtime CSV and marks
// the node ready.
func (s *Session) onUpload(_ context.Context, p event.Upload) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if p.File == nil {
		return s.uploadFailed(p.NodeID, errors.New("no file"))
	}
	text, err := readAll(p.File)
	if err != nil {
		return s.uploadFailed(p.NodeID, err)
	}

	table := csvparse.ParseTable(text)
	s.runtime.SetCSV(table, runtime.CSVMeta{Name: p.File.Name(), Size: p.File.Size()})

	if err := s.graph.PatchConfig(p.NodeID, map[string]any{"filename": p.File.Name()}); err != nil {
		s.logger.Debug("upload target missing", "node_id", p.NodeID, "error", err)
	}
	if err := s.graph.SetStatus(p.NodeID, graph.StatusSuccess); err != nil {
		s.logger.Debug("upload target missing", "node_id", p.NodeID, "error", err)
	}
	s.log.Pushf("Upload: %s (%d rows)", p.File.Name(), table.Len())
	s.logger.Info("csv uploaded",
		"node_id", p.NodeID,
		"file", p.File.Name(),
		"rows", table.Len(),
		"columns", len(table.Header),
	)
	return nil
}

func (s *Session) uploadFailed(nodeID string, err error) error {
	if serr := s.graph.SetStatus(nodeID, graph.StatusError); serr != nil {
		s.logger.Debug("upload target missing", "node_id", nodeID, "error", serr)
	}
	s.log.Pushf("Upload failed: %v", err)
	return fcerrors.UserInput(err, "upload")
}

func readAll(f event.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name(), err)
	}
	return string(data), nil
}

func (s *Session) onUpdateConfig(_ context.Context, p event.UpdateConfig) error {
	return s.graph.PatchConfig(p.NodeID, p.Patch)
}

func (s *Session) onRunFromStart(ctx context.Context, _ event.RunFromStart) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	_, err := s.engine.RunFromStart(ctx)
	if errors.Is(err, flowcanvas.ErrNoStartNode) {
		s.logger.Debug("run-from-start ignored", "reason", err.Error())
		return nil
	}
	return err
}

func (s *Session) onRunNode(ctx context.Context, p event.RunNode) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	_, err := s.engine.RunChain(ctx, p.NodeID, flowcanvas.WithTrigger(string(event.TopicRunNode)))
	return err
}

// onAnalysis runs the node with the requested operation and, if it
// succeeds, continues from its first outgoing edge.
func (s *Session) onAnalysis(ctx context.Context, p event.Analysis) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	_, err := s.engine.RunChain(ctx, p.NodeID,
		flowcanvas.WithTrigger(string(event.TopicAnalysis)),
		flowcanvas.WithOp(p.Op),
	)
	return err
}
