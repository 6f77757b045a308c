// Package trace reads pre-recorded device traces and feeds them to the
// simulation engine as a sim.TraceSource.
//
// A trace is a CSV file. Lines starting with '#' are comments. The header row
// must contain a "timestamp" column (integer ticks) and an "event_type"
// column; every other column is carried along as a payload field.
//
//	timestamp,event_type,app,bytes
//	1000,screen_on,,
//	1500,net_tx,mail,2048
package trace

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/uamp-sim/uamp-sim/sim"
)

// Column names every trace header must contain.
const (
	ColumnTimestamp = "timestamp"
	ColumnEventType = "event_type"
)

// Record is one trace row. It is the payload of the events the Reader emits.
type Record struct {
	Line      int
	Timestamp int64
	Type      sim.EventType
	Fields    map[string]string // extra columns; empty cells are omitted
}

// Field returns the value of an extra column.
func (r Record) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// IntField parses an extra column as an integer; missing or malformed values yield def.
func (r Record) IntField(name string, def int64) int64 {
	v, ok := r.Fields[name]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func (r Record) String() string {
	if len(r.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, r.Fields[k]))
	}
	return strings.Join(parts, " ")
}

// RecordOf extracts the trace Record carried by ev, if any.
func RecordOf(ev sim.Event) (Record, bool) {
	be, ok := ev.(*sim.BasicEvent)
	if !ok {
		return Record{}, false
	}
	rec, ok := be.Payload.(Record)
	return rec, ok
}
