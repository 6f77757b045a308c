// Package testutil provides shared test infrastructure for the uamp-sim
// packages: trace and config fixtures, and an in-memory trace source.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uamp-sim/uamp-sim/sim"
)

// WriteFile writes lines to name inside a per-test temp dir and returns the path.
func WriteFile(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// WriteTrace writes a CSV trace fixture; the first line is the header row.
func WriteTrace(t *testing.T, lines ...string) string {
	t.Helper()
	return WriteFile(t, "trace.csv", lines...)
}

// WriteConfig writes a YAML sim config fixture.
func WriteConfig(t *testing.T, lines ...string) string {
	t.Helper()
	return WriteFile(t, "sim.yaml", lines...)
}

// SliceSource is an in-memory sim.TraceSource over pre-built events.
// It records the size of every GetEvents batch it returns.
type SliceSource struct {
	events  []sim.Event
	pos     int
	Batches []int
}

var _ sim.TraceSource = (*SliceSource)(nil)

// NewSliceSource creates a source emitting one stamped event per timestamp.
func NewSliceSource(eventType sim.EventType, timestamps ...int64) *SliceSource {
	events := make([]sim.Event, len(timestamps))
	for i, ts := range timestamps {
		events[i] = sim.NewEventAt(ts, eventType, nil)
	}
	return &SliceSource{events: events}
}

// NewSliceSourceOf creates a source over the given events, in order.
func NewSliceSourceOf(events ...sim.Event) *SliceSource {
	return &SliceSource{events: events}
}

func (s *SliceSource) Build() error { return nil }

func (s *SliceSource) EndOfTrace() bool { return s.pos >= len(s.events) }

func (s *SliceSource) PeekEvent() sim.Event {
	if s.EndOfTrace() {
		return nil
	}
	return s.events[s.pos]
}

func (s *SliceSource) GetEvents(count int) ([]sim.Event, error) {
	end := min(s.pos+count, len(s.events))
	batch := s.events[s.pos:end]
	s.pos = end
	s.Batches = append(s.Batches, len(batch))
	return batch, nil
}

// AssertNonDecreasing fails the test if timestamps ever go backwards.
func AssertNonDecreasing(t *testing.T, timestamps []int64) {
	t.Helper()
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] < timestamps[i-1] {
			t.Errorf("timestamp[%d]=%d < timestamp[%d]=%d", i, timestamps[i], i-1, timestamps[i-1])
		}
	}
}
