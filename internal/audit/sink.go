package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink receives audit events. Implementations append; they never rewrite.
type Sink interface {
	Write(event Event) error
}

// FileSink appends event lines to a file, creating it on first write
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink that appends to path
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the log target
func (s *FileSink) Path() string {
	return s.path
}

// Write appends one line for event
func (s *FileSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Clean(s.path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	if _, err := f.WriteString(event.Line()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close audit log: %w", err)
	}

	return nil
}

// Nop discards every event. Used when audit logging is disabled.
type Nop struct{}

// Write implements Sink
func (Nop) Write(Event) error { return nil }

// MemorySink keeps events in memory, in emission order
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Write implements Sink
func (m *MemorySink) Write(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of the recorded events
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfType returns the recorded events with the given type
func (m *MemorySink) OfType(t EventType) []Event {
	var out []Event
	for _, ev := range m.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Reset drops all recorded events
func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = Nop{}
	_ Sink = (*MemorySink)(nil)
)
