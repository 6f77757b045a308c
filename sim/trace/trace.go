package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/uamp-sim/uamp-sim/sim"
)

// Reader streams a CSV trace with one event of lookahead, so PeekEvent is
// always exact. Implements sim.TraceSource.
type Reader struct {
	path   string
	src    io.Reader
	closer io.Closer

	csv       *csv.Reader
	columns   []string
	tsCol     int
	typeCol   int
	next      *sim.BasicEvent
	lastTS    int64
	built     bool
	totalRead int
}

var _ sim.TraceSource = (*Reader)(nil)

// NewReader creates a Reader for the trace file at path. The file is opened by Build.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// NewReaderFrom creates a Reader over an already open trace stream.
func NewReaderFrom(src io.Reader) *Reader {
	return &Reader{src: src}
}

// Build opens the trace, validates the header and loads the first event.
func (r *Reader) Build() error {
	if r.built {
		return nil
	}
	if r.src == nil {
		file, err := os.Open(filepath.Clean(r.path))
		if err != nil {
			return fmt.Errorf("opening trace: %w", err)
		}
		r.src = file
		r.closer = file
	}

	r.csv = csv.NewReader(r.src)
	r.csv.Comment = '#'
	r.csv.FieldsPerRecord = -1
	r.csv.TrimLeadingSpace = true

	header, err := r.csv.Read()
	if err != nil {
		_ = r.Close()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("reading trace header: empty trace")
		}
		return fmt.Errorf("reading trace header: %w", err)
	}
	if err := r.parseHeader(header); err != nil {
		_ = r.Close()
		return err
	}
	r.built = true

	if err := r.advance(); err != nil {
		_ = r.Close()
		return err
	}
	logrus.Debugf("Opened trace %s with columns %v", r.path, r.columns)
	return nil
}

func (r *Reader) parseHeader(header []string) error {
	r.columns = make([]string, len(header))
	r.tsCol, r.typeCol = -1, -1
	for i, col := range header {
		col = strings.TrimSpace(col)
		r.columns[i] = col
		switch col {
		case ColumnTimestamp:
			r.tsCol = i
		case ColumnEventType:
			r.typeCol = i
		}
	}
	if r.tsCol < 0 || r.typeCol < 0 {
		return fmt.Errorf("trace header %v must contain %q and %q columns", header, ColumnTimestamp, ColumnEventType)
	}
	return nil
}

// advance reads the next row into the lookahead slot; at end of file the
// slot is cleared and the file closed.
func (r *Reader) advance() error {
	row, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		r.next = nil
		_ = r.Close()
		return nil
	}
	if err != nil {
		r.next = nil
		return fmt.Errorf("reading trace row: %w", err)
	}
	line, _ := r.csv.FieldPos(0)
	rec, err := r.parseRecord(row, line)
	if err != nil {
		r.next = nil
		return err
	}
	r.next = sim.NewEventAt(rec.Timestamp, rec.Type, rec)
	return nil
}

func (r *Reader) parseRecord(row []string, line int) (Record, error) {
	if len(row) <= r.tsCol || len(row) <= r.typeCol {
		return Record{}, fmt.Errorf("trace line %d: expected at least %d columns, got %d", line, max(r.tsCol, r.typeCol)+1, len(row))
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(row[r.tsCol]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("trace line %d: parsing timestamp: %w", line, err)
	}
	if ts < 0 {
		return Record{}, fmt.Errorf("trace line %d: negative timestamp %d", line, ts)
	}
	if ts < r.lastTS {
		return Record{}, fmt.Errorf("trace line %d: timestamp %d precedes previous %d", line, ts, r.lastTS)
	}
	eventType, err := sim.ParseEventType(strings.TrimSpace(row[r.typeCol]))
	if err != nil {
		return Record{}, fmt.Errorf("trace line %d: %w", line, err)
	}
	if eventType == sim.EventTypeAlarm {
		return Record{}, fmt.Errorf("trace line %d: %s events cannot come from a trace", line, eventType)
	}
	r.lastTS = ts

	rec := Record{Line: line, Timestamp: ts, Type: eventType, Fields: make(map[string]string)}
	for i, value := range row {
		if i == r.tsCol || i == r.typeCol || i >= len(r.columns) {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			rec.Fields[r.columns[i]] = value
		}
	}
	return rec, nil
}

// EndOfTrace reports whether every event has been consumed.
func (r *Reader) EndOfTrace() bool {
	return r.next == nil
}

// PeekEvent returns the next event without consuming it, or nil.
func (r *Reader) PeekEvent() sim.Event {
	if r.next == nil {
		return nil
	}
	return r.next
}

// GetEvents consumes up to count events in file order.
func (r *Reader) GetEvents(count int) ([]sim.Event, error) {
	events := make([]sim.Event, 0, count)
	for len(events) < count && r.next != nil {
		events = append(events, r.next)
		r.totalRead++
		if err := r.advance(); err != nil {
			return events, err
		}
	}
	return events, nil
}

// Consumed returns the number of events handed out by GetEvents.
func (r *Reader) Consumed() int {
	return r.totalRead
}

// Close releases the underlying file, if the Reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
