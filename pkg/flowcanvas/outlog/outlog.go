// Package outlog is the bounded, timestamped trace shown in the output panel.
package outlog

import (
	"fmt"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 200

// TimeLayout formats the timestamp prefix of each line.
const TimeLayout = "15:04:05"

// Entry is one log line.
type Entry struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// String renders the entry as "[15:04:05] text".
func (e Entry) String() string {
	return "[" + e.Time.Format(TimeLayout) + "] " + e.Text
}

// Log keeps the most recent entries, discarding the oldest first.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	start    int
	capacity int
	now      func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithCapacity sets how many entries are retained. Values below one use
// DefaultCapacity.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{capacity: DefaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.entries = make([]Entry, 0, l.capacity)
	return l
}

// Push appends a line stamped with the current time.
func (l *Log) Push(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{Time: l.now(), Text: text}
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, e)
		return
	}
	l.entries[l.start] = e
	l.start = (l.start + 1) % l.capacity
}

// Pushf formats and appends a line.
func (l *Log) Pushf(format string, args ...any) {
	l.Push(fmt.Sprintf(format, args...))
}

// Entries returns the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, len(l.entries))
	out = append(out, l.entries[l.start:]...)
	out = append(out, l.entries[:l.start]...)
	return out
}

// Lines returns the retained entries rendered as strings, oldest first.
func (l *Log) Lines() []string {
	entries := l.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Capacity returns the maximum number of retained entries.
func (l *Log) Capacity() int {
	return l.capacity
}
