package sim

import (
	"bytes"
	"strings"
)

//go:generate mockgen -destination "mock_sim_test.go" -package $GOPACKAGE -write_package_comment=false github.com/uamp-sim/uamp-sim/sim Module,TraceSource

// sliceSource is an in-memory TraceSource. The shared testutil version
// cannot be used here because it imports this package.
type sliceSource struct {
	events  []Event
	pos     int
	batches []int
}

func newSliceSource(timestamps ...int64) *sliceSource {
	events := make([]Event, len(timestamps))
	for i, ts := range timestamps {
		events[i] = NewEventAt(ts, EventTypeScreenOn, nil)
	}
	return &sliceSource{events: events}
}

func (s *sliceSource) Build() error { return nil }

func (s *sliceSource) EndOfTrace() bool { return s.pos >= len(s.events) }

func (s *sliceSource) PeekEvent() Event {
	if s.EndOfTrace() {
		return nil
	}
	return s.events[s.pos]
}

func (s *sliceSource) GetEvents(count int) ([]Event, error) {
	end := min(s.pos+count, len(s.events))
	batch := s.events[s.pos:end]
	s.pos = end
	s.batches = append(s.batches, len(batch))
	return batch, nil
}

// fakeModule records lifecycle calls into a shared log.
type fakeModule struct {
	name     string
	typ      ModuleType
	log      *[]string
	buildErr error
	build    func() error
}

func newFakeModule(name string, typ ModuleType, log *[]string) *fakeModule {
	return &fakeModule{name: name, typ: typ, log: log}
}

func (m *fakeModule) Name() string     { return m.name }
func (m *fakeModule) Type() ModuleType { return m.typ }

func (m *fakeModule) Build() error {
	if m.log != nil {
		*m.log = append(*m.log, "build:"+m.name)
	}
	if m.build != nil {
		return m.build()
	}
	return m.buildErr
}

func (m *fakeModule) Finish() error {
	if m.log != nil {
		*m.log = append(*m.log, "finish:"+m.name)
	}
	return nil
}

// newTestSimulator creates a simulator with scripted debug input and captured output.
func newTestSimulator(opts Options, debugInput ...string) (*Simulator, *bytes.Buffer) {
	out := &bytes.Buffer{}
	opts.Out = out
	opts.DebugIn = strings.NewReader(strings.Join(debugInput, "\n"))
	if len(debugInput) > 0 {
		opts.DebugIn = strings.NewReader(strings.Join(debugInput, "\n") + "\n")
	}
	return NewSimulator(opts), out
}

// recordTimes subscribes to eventType and appends every dispatch time.
func recordTimes(s *Simulator, eventType EventType, times *[]int64) {
	s.Subscribe(eventType, func(ev Event) error {
		*times = append(*times, ev.Timestamp())
		return nil
	}, nil)
}
