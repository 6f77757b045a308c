package trace

import (
	"fmt"

	"github.com/uamp-sim/uamp-sim/sim"
)

// summaryBatch is how many events Summarize pulls from the reader at a time.
const summaryBatch = 1024

// TraceSummary aggregates statistics over a whole trace.
type TraceSummary struct {
	TotalEvents      int
	FirstTimestamp   int64
	LastTimestamp    int64
	TypeDistribution map[sim.EventType]int
	Fields           map[string]int // extra column -> rows where it is set
}

// DurationSeconds is the span between the first and last event.
func (s *TraceSummary) DurationSeconds() float64 {
	return float64(s.LastTimestamp-s.FirstTimestamp) / float64(sim.TicksPerSecond)
}

// Summarize reads every event of a built or unbuilt trace source and
// computes aggregate statistics. The source is exhausted afterwards.
func Summarize(src sim.TraceSource) (*TraceSummary, error) {
	summary := &TraceSummary{
		TypeDistribution: make(map[sim.EventType]int),
		Fields:           make(map[string]int),
	}
	if err := src.Build(); err != nil {
		return nil, err
	}

	for !src.EndOfTrace() {
		events, err := src.GetEvents(summaryBatch)
		if err != nil {
			return nil, fmt.Errorf("summarizing trace: %w", err)
		}
		for _, ev := range events {
			if summary.TotalEvents == 0 {
				summary.FirstTimestamp = ev.Timestamp()
			}
			summary.TotalEvents++
			summary.LastTimestamp = ev.Timestamp()
			summary.TypeDistribution[ev.Type()]++
			if rec, ok := RecordOf(ev); ok {
				for field := range rec.Fields {
					summary.Fields[field]++
				}
			}
		}
		if len(events) == 0 {
			break
		}
	}
	return summary, nil
}
