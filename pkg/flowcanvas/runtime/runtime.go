// Package runtime holds the session-scoped values that runners read and
// write: the uploaded CSV, its file metadata, the last AI reply and the last
// analysis result.
//
// Values are overwritten wholesale by the runner that owns them. Nothing
// here is part of undo history and nothing is cleared automatically.
package runtime

import (
	"sync"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/csvparse"
)

// CSVMeta describes the uploaded file.
type CSVMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Analysis is the structured result of an analysis run.
// Key is set only for unique counts.
type Analysis struct {
	Type  string `json:"type"`
	Key   any    `json:"key,omitempty"`
	Value any    `json:"value"`
}

// Store is the runtime record of one session. The zero value is empty and
// ready to use.
type Store struct {
	mu           sync.RWMutex
	csv          csvparse.Table
	csvMeta      *CSVMeta
	lastAI       *string
	lastAnalysis *Analysis
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// SetCSV replaces the parsed CSV and its metadata.
func (s *Store) SetCSV(table csvparse.Table, meta CSVMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csv = table
	s.csvMeta = &meta
}

// CSV returns the parsed CSV. Records are shared and must not be modified.
func (s *Store) CSV() csvparse.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return csvparse.Table{
		Header:  append([]string(nil), s.csv.Header...),
		Records: append([]csvparse.Record(nil), s.csv.Records...),
	}
}

// Rows returns the number of CSV records held.
func (s *Store) Rows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csv.Len()
}

// CSVMeta returns the uploaded file's metadata, if any.
func (s *Store) CSVMeta() (CSVMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.csvMeta == nil {
		return CSVMeta{}, false
	}
	return *s.csvMeta, true
}

// SetLastAI records the latest AI reply.
func (s *Store) SetLastAI(reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAI = &reply
}

// LastAI returns the latest AI reply, if any.
func (s *Store) LastAI() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastAI == nil {
		return "", false
	}
	return *s.lastAI, true
}

// SetLastAnalysis records the latest analysis result.
func (s *Store) SetLastAnalysis(a Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAnalysis = &a
}

// LastAnalysis returns the latest analysis result, if any.
func (s *Store) LastAnalysis() (Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastAnalysis == nil {
		return Analysis{}, false
	}
	return *s.lastAnalysis, true
}

// View is a read-only rendering of the store. Absent values are nil.
type View struct {
	Rows         int       `json:"rows"`
	Header       []string  `json:"header"`
	CSVMeta      *CSVMeta  `json:"csvMeta"`
	LastAI       *string   `json:"lastAI"`
	LastAnalysis *Analysis `json:"lastAnalysis"`
}

// View returns a copy of the current values.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Rows:   s.csv.Len(),
		Header: append([]string{}, s.csv.Header...),
	}
	if s.csvMeta != nil {
		meta := *s.csvMeta
		v.CSVMeta = &meta
	}
	if s.lastAI != nil {
		reply := *s.lastAI
		v.LastAI = &reply
	}
	if s.lastAnalysis != nil {
		a := *s.lastAnalysis
		v.LastAnalysis = &a
	}
	return v
}
