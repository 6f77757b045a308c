// Tracks run-wide counters: dispatched events per type, queue refills,
// alarm firings and debug breaks.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Metrics aggregates statistics about a simulation run for final reporting.
type Metrics struct {
	RunID            string              `json:"run_id"`
	DispatchedEvents int64               `json:"dispatched_events"`
	EventsByType     map[EventType]int64 `json:"events_by_type"`
	TraceEvents      int64               `json:"trace_events"`
	QueueRefills     int64               `json:"queue_refills"`
	AlarmsFired      int64               `json:"alarms_fired"`
	DebugBreaks      int64               `json:"debug_breaks"`
	PeakQueueLen     int                 `json:"peak_queue_len"`
	SimStartTime     int64               `json:"sim_start_time"` // first dispatched tick
	SimEndTime       int64               `json:"sim_end_time"`   // last dispatched tick
	WallTime         time.Duration       `json:"-"`
	WallTimeSeconds  float64             `json:"wall_time_s"`
}

func NewMetrics() *Metrics {
	return &Metrics{EventsByType: make(map[EventType]int64)}
}

func (m *Metrics) recordDispatch(ev Event) {
	if m.DispatchedEvents == 0 {
		m.SimStartTime = ev.Timestamp()
	}
	m.DispatchedEvents++
	m.EventsByType[ev.Type()]++
	m.SimEndTime = ev.Timestamp()
}

func (m *Metrics) recordQueueLen(n int) {
	if n > m.PeakQueueLen {
		m.PeakQueueLen = n
	}
}

// SimulatedSeconds is the span between the first and last dispatched event.
func (m *Metrics) SimulatedSeconds() float64 {
	return float64(m.SimEndTime-m.SimStartTime) / float64(TicksPerSecond)
}

// Print writes the metrics as indented JSON under a header.
func (m *Metrics) Print(w io.Writer) error {
	m.WallTimeSeconds = m.WallTime.Seconds()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	_, err = fmt.Fprintf(w, "=== Simulation Metrics ===\n%s\n", data)
	return err
}

// SaveResults prints the metrics to w and, when outputPath is set, also
// writes them to that file.
func (m *Metrics) SaveResults(w io.Writer, outputPath string) error {
	if err := m.Print(w); err != nil {
		return err
	}
	if outputPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	logrus.Infof("Metrics written to %s", outputPath)
	return nil
}
